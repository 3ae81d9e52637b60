// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package vfs is the in-memory document store every pipeline stage reads
// from and writes to. A Store maps slash-separated paths to text content.
// Writes replace prior content (last write wins) and nothing is versioned.
//
// Research tasks never write to the canonical store. Each receives a Clone,
// writes into it, and hands back its Delta; the reducer merges the deltas.
package vfs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Store is a path to content map. The zero value is not usable; call New.
// Methods are safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	files   map[string]string
	written map[string]struct{}
}

// New returns an empty store.
func New() *Store {
	return &Store{
		files:   make(map[string]string),
		written: make(map[string]struct{}),
	}
}

// FromMap returns a store holding a copy of files. The copied entries are
// not counted as writes.
func FromMap(files map[string]string) *Store {
	s := New()
	for k, v := range files {
		s.files[k] = v
	}
	return s
}

// Get returns the content at path, or def when the path is absent.
func (s *Store) Get(path, def string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.files[path]; ok {
		return v
	}
	return def
}

// Has reports whether path exists.
func (s *Store) Has(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.files[path]
	return ok
}

// GetJSON decodes the content at path into v. A missing path leaves v
// untouched and returns nil, so callers pre-fill v with their default.
// Malformed content returns a *ParseError describing where decoding failed.
func (s *Store) GetJSON(path string, v any) error {
	raw, ok := s.lookup(path)
	if !ok {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return newParseError(path, raw, err)
	}
	return nil
}

func (s *Store) lookup(path string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.files[path]
	return v, ok
}

// Put replaces the content at path.
func (s *Store) Put(path, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[path] = content
	s.written[path] = struct{}{}
}

// PutJSON serialises v with two-space indentation and stores it at path.
// Map keys are sorted and HTML characters are left unescaped, so equal
// values always produce identical content.
func (s *Store) PutJSON(path string, v any) error {
	data, err := MarshalJSON(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	s.Put(path, string(data))
	return nil
}

// MarshalJSON is the deterministic encoding used by PutJSON.
func MarshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// List returns a copy of every entry whose path starts with prefix.
// An empty prefix lists the whole store.
func (s *Store) List(prefix string) map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string)
	for k, v := range s.files {
		if strings.HasPrefix(k, prefix) {
			out[k] = v
		}
	}
	return out
}

// Keys returns the sorted paths starting with prefix.
func (s *Store) Keys(prefix string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.files))
	for k := range s.files {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}

// Snapshot returns a copy of the whole store.
func (s *Store) Snapshot() map[string]string {
	return s.List("")
}

// Merge returns a new store holding the union of s and delta. Where both
// hold a path, delta's content wins. Neither input is modified, and the
// result carries no write history.
func (s *Store) Merge(delta *Store) *Store {
	out := FromMap(s.Snapshot())
	if delta == nil {
		return out
	}
	for k, v := range delta.Snapshot() {
		out.files[k] = v
	}
	return out
}

// Clone returns an independent copy with an empty write history, suitable
// as a private view for one research task.
func (s *Store) Clone() *Store {
	return FromMap(s.Snapshot())
}

// Delta returns a store holding exactly the paths written through Put or
// PutJSON since s was created or cloned, with their current content.
func (s *Store) Delta() *Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := New()
	for k := range s.written {
		out.files[k] = s.files[k]
	}
	return out
}
