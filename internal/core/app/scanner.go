package app

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/mnott/pynalyze/internal/shared/util"
)

// ScanPaths expands the requested paths into the list of files to analyse.
// File paths are kept as given, whatever their extension. Directories are
// walked for Python files, skipping excluded directories and files. Paths
// that cannot be stat'ed are kept so that analysis reports them.
func (a *App) ScanPaths(paths []string) ([]string, error) {
	a.mu.RLock()
	dirGlobs, fileGlobs := a.excludeDirs, a.excludeFiles
	a.mu.RUnlock()

	seen := make(map[string]bool, len(paths))
	files := make([]string, 0, len(paths))
	add := func(path string) {
		if seen[path] {
			return
		}
		seen[path] = true
		files = append(files, path)
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil || !info.IsDir() {
			add(root)
			continue
		}

		var found []string
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			base := filepath.Base(path)
			if d.IsDir() {
				if path == root {
					return nil
				}
				for _, g := range dirGlobs {
					if g.Match(base) {
						return filepath.SkipDir
					}
				}
				return nil
			}

			if !util.IsPythonFile(path) {
				return nil
			}
			for _, g := range fileGlobs {
				if g.Match(base) {
					return nil
				}
			}

			found = append(found, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
		sort.Strings(found)
		for _, path := range found {
			add(path)
		}
	}

	return files, nil
}
