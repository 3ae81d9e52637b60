// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package vfs

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// WriteDir writes every entry of s below dir, creating subdirectories as
// needed. Each file is written to a temporary name and renamed into place
// so readers never observe a partial file.
func WriteDir(s *Store, dir string) error {
	for _, key := range s.Keys("") {
		rel, err := safeRel(key)
		if err != nil {
			return err
		}
		dest := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return fmt.Errorf("creating directory for %s: %w", key, err)
		}
		tmp := dest + ".tmp"
		if err := os.WriteFile(tmp, []byte(s.Get(key, "")), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", key, err)
		}
		if err := os.Rename(tmp, dest); err != nil {
			os.Remove(tmp)
			return fmt.Errorf("renaming %s: %w", key, err)
		}
	}
	return nil
}

// ReadDir loads every regular file below dir into a new store, keyed by
// its slash-separated path relative to dir. Hidden files are skipped.
func ReadDir(dir string) (*Store, error) {
	s := New()
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), ".") && p != dir {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("reading %s: %w", p, err)
		}
		s.files[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading store from %s: %w", dir, err)
	}
	return s, nil
}

// safeRel rejects keys that would escape the target directory.
func safeRel(key string) (string, error) {
	clean := path.Clean(key)
	if key == "" || path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("invalid store path %q", key)
	}
	return filepath.FromSlash(clean), nil
}
