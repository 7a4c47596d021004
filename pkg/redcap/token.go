package redcap

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/willbeason/ncanda-reports/pkg/errs"
)

// DefaultTokenPath holds the data entry project's API token.
const DefaultTokenPath = "~/.server_config/redcap-dataentry-token"

// ExpandHome expands ~ to the current user's home directory, where
// appropriate.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// ReadToken reads an API token from the first line of the file at path.
// A missing, unreadable or empty file is an errs.ErrConfig.
func ReadToken(path string) (string, error) {
	expanded, err := ExpandHome(path)
	if err != nil {
		return "", fmt.Errorf("%w: expanding %q: %w", errs.ErrConfig, path, err)
	}

	contents, err := os.ReadFile(expanded)
	if err != nil {
		return "", fmt.Errorf("%w: reading token: %w", errs.ErrConfig, err)
	}

	token := strings.TrimSpace(string(contents))
	if i := strings.IndexAny(token, "\r\n"); i >= 0 {
		token = strings.TrimSpace(token[:i])
	}
	if token == "" {
		return "", fmt.Errorf("%w: token file %q is empty", errs.ErrConfig, expanded)
	}

	return token, nil
}
