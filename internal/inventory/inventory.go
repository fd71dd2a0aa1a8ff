// Package inventory builds the ordered working set of convertible images
// under a root directory. Entry order is deterministic for an unchanged
// filesystem, so row indices stay stable across reloads.
package inventory

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Gradipoo/tui-jxl-converter/pkg/imgutil"
)

// FileEntry describes one convertible file. Immutable once loaded; identified
// by its index in the scan result.
type FileEntry struct {
	Path string // absolute input path
	Name string // base name
	Ext  string // extension, lower-cased, with dot
}

// Scan lists the convertible files under root. Non-recursive scans only look
// at direct children; recursive scans walk the whole subtree. The result is
// sorted by base name, case-insensitive, with the full path as tie-breaker.
func Scan(root string, recursive bool) ([]FileEntry, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	var entries []FileEntry
	add := func(path string) {
		entries = append(entries, FileEntry{
			Path: path,
			Name: filepath.Base(path),
			Ext:  strings.ToLower(filepath.Ext(path)),
		})
	}

	if recursive {
		err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() || !d.Type().IsRegular() {
				return nil
			}
			if imgutil.Supported(path) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	} else {
		dirents, readErr := os.ReadDir(absRoot)
		if readErr != nil {
			return nil, readErr
		}
		for _, d := range dirents {
			if d.IsDir() || !d.Type().IsRegular() {
				continue
			}
			if imgutil.Supported(d.Name()) {
				add(filepath.Join(absRoot, d.Name()))
			}
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		a := strings.ToLower(entries[i].Name)
		b := strings.ToLower(entries[j].Name)
		if a != b {
			return a < b
		}
		return entries[i].Path < entries[j].Path
	})

	return entries, nil
}
