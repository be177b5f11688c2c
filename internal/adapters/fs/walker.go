// Package fs provides file system adapters for discovering and inspecting source images.
package fs

import (
	"errors"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/srcset/internal/core/domain"
	"go.trai.ch/zerr"
)

// skipDirs are directories never searched for source images.
var skipDirs = map[string]bool{
	".git":               true,
	".jj":                true,
	"node_modules":       true,
	domain.SrcsetDirName: true,
}

// Walker finds source images on disk.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// IsImage reports whether path has the extension of a supported source format.
func IsImage(path string) bool {
	return domain.FormatFromExtension(filepath.Ext(path)) != domain.FormatUnknown
}

// WalkImages yields every supported image below root, skipping internal and VCS
// directories and any directory at or below one of exclude.
func (w *Walker) WalkImages(root string, exclude ...string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil //nolint:nilerr // unreadable entries are skipped
			}
			if d.IsDir() {
				if path != root && skipDirs[d.Name()] {
					return filepath.SkipDir
				}
				if excluded(path, exclude) {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() || !IsImage(path) {
				return nil
			}
			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

// Discover resolves files and directories to a sorted, duplicate-free list of absolute image paths.
// Explicitly named files must exist and have a supported extension. Remote URIs are skipped.
// Directories at or below one of exclude, such as the output directory, are not searched.
func (w *Walker) Discover(paths []string, exclude ...string) ([]string, error) {
	seen := make(map[string]struct{})
	var found []string
	add := func(p string) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		found = append(found, p)
	}

	for _, p := range paths {
		if strings.Contains(p, "://") {
			continue
		}

		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to resolve path"), "path", p)
		}

		info, err := os.Stat(abs)
		if err != nil {
			return nil, zerr.With(errors.Join(domain.ErrSourceReadFailed, err), "path", abs)
		}

		if info.IsDir() {
			for img := range w.WalkImages(abs, exclude...) {
				add(img)
			}
			continue
		}

		if !IsImage(abs) {
			return nil, zerr.With(zerr.Wrap(domain.ErrUnsupportedFormat, "not a supported image"), "path", abs)
		}
		add(abs)
	}

	slices.Sort(found)
	return found, nil
}

// excluded reports whether dir is one of roots or lies below one.
func excluded(dir string, roots []string) bool {
	for _, root := range roots {
		if root == "" {
			continue
		}
		rel, err := filepath.Rel(root, dir)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
