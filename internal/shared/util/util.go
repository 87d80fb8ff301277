package util

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// PythonExt is the extension picked up by directory scans and watch mode.
const PythonExt = ".py"

// IsPythonFile reports whether path names a Python source file.
func IsPythonFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), PythonExt)
}

// SortedStringKeys returns the map's keys in sorted order.
func SortedStringKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// EnsureParentDir creates the parent directories of path (0755).
func EnsureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
