package runner

import (
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/updatesnap/internal/foundation/errors"
	"git.home.luguber.info/inful/updatesnap/internal/snapcraft"
)

// IsURL reports whether target is fetched over HTTP.
func IsURL(target string) bool {
	return strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://")
}

// ResolveTargets expands a command line target. A URL is returned as is.
// A folder resolves to its snapcraft file; in recursive mode every direct
// subfolder holding a snapcraft file is returned, sorted by name.
func ResolveTargets(target string, recursive bool) ([]string, error) {
	if IsURL(target) {
		if recursive {
			return nil, errors.ValidationError("recursive mode can't be used with http or https").
				WithContext("target", target).
				Build()
		}
		return []string{target}, nil
	}
	if !recursive {
		file, err := snapcraft.FindFile(target)
		if err != nil {
			return nil, err
		}
		return []string{file}, nil
	}

	entries, err := os.ReadDir(target)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read folder").
			WithContext("path", target).
			Build()
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		file, err := snapcraft.FindFile(filepath.Join(target, e.Name()))
		if errors.HasCategory(err, errors.CategoryNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, nil
}
