package configutil

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"github.com/titanous/json5"
	"github.com/willbeason/ncanda-reports/pkg/errs"
)

func splitExt(f string) (string, string) {
	for i := len(f) - 1; i >= 0; i-- {
		if f[i] == '.' {
			return f[0:i], f[i+1:]
		}
	}
	return f, ""
}

// LocalPath is the override file read alongside name: reports.json5 is
// overridden by reports.local.json5.
func LocalPath(name string) string {
	prefix, ext := splitExt(filepath.Base(name))
	if ext == "" {
		return filepath.Join(filepath.Dir(name), prefix+".local")
	}
	return filepath.Join(filepath.Dir(name), fmt.Sprintf("%s.local.%s", prefix, ext))
}

// Load returns defaults when name is empty. Otherwise it decodes the
// following json5 files over a copy of defaults, where higher number is more
// prioritized.
// 1. <name>.<ext>
// 2. <name>.local.<ext>
//
// Only keys present in a file change the result, and a present key always
// wins: `false`, `""` and `[]` replace the default. Objects are decoded key
// by key, so a file may set one field of a nested object. At least one of
// the files must exist; every failure is an errs.ErrConfig.
func Load[T any](name string, defaults T) (T, error) {
	if name == "" {
		return defaults, nil
	}

	// Slices are appended into out, so decoding never writes into the
	// backing arrays of defaults.
	var out T
	err := mergo.Merge(&out, defaults, mergo.WithAppendSlice)
	if err != nil {
		return defaults, fmt.Errorf("%w: copying defaults: %w", errs.ErrConfig, err)
	}

	found := false
	for _, path := range []string{name, LocalPath(name)} {
		contents, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		} else if err != nil {
			return defaults, fmt.Errorf("%w: %w", errs.ErrConfig, err)
		}
		found = true

		if len(bytes.TrimSpace(contents)) == 0 {
			continue
		}
		err = json5.Unmarshal(contents, &out)
		if err != nil {
			return defaults, fmt.Errorf("%w: parsing %q: %w", errs.ErrConfig, path, err)
		}
		if path != name {
			slog.Info("merging config with local overrides", "local", path)
		}
	}

	if !found {
		return defaults, fmt.Errorf("%w: config %q not found", errs.ErrConfig, name)
	}

	slog.Debug("loaded config", "path", name)
	return out, nil
}
