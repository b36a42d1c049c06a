package extractor

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultIgnoreDirs are directories never searched for packages.
var DefaultIgnoreDirs = []string{
	"vendor", "testdata", "node_modules", ".git", ".svn", ".hg",
	"dist", "build", "bin", "tmp",
}

// WalkOptions configures package discovery.
type WalkOptions struct {
	IgnoreDirs    []string // directory names to skip (default: DefaultIgnoreDirs)
	IncludeHidden bool     // descend into dot directories
}

// Packages returns every directory under root that holds at least one
// non-test Go file, sorted.
func Packages(root string, opts WalkOptions) ([]string, error) {
	ignore := opts.IgnoreDirs
	if len(ignore) == 0 {
		ignore = DefaultIgnoreDirs
	}

	dirs := make(map[string]bool)
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if path == root {
				return nil
			}
			if !opts.IncludeHidden && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			for _, name := range ignore {
				if info.Name() == name {
					return filepath.SkipDir
				}
			}
			return nil
		}

		if isSourceFile(info.Name()) {
			dirs[filepath.Dir(path)] = true
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discovering packages in %s: %w", root, err)
	}

	result := make([]string, 0, len(dirs))
	for dir := range dirs {
		result = append(result, dir)
	}
	sort.Strings(result)
	return result, nil
}

// isSourceFile reports whether name is a Go file the extractor reads.
func isSourceFile(name string) bool {
	return strings.HasSuffix(name, ".go") &&
		!strings.HasSuffix(name, "_test.go") &&
		!strings.HasPrefix(name, ".")
}
