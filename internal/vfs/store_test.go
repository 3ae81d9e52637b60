// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package vfs

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetReturnsDefaultWhenMissing(t *testing.T) {
	s := New()
	assert.Equal(t, "fallback", s.Get("missing.md", "fallback"))

	s.Put("present.md", "hello")
	assert.Equal(t, "hello", s.Get("present.md", "fallback"))
	assert.True(t, s.Has("present.md"))
	assert.False(t, s.Has("missing.md"))
}

func TestPutReplaces(t *testing.T) {
	s := New()
	s.Put("a.md", "one")
	s.Put("a.md", "two")
	assert.Equal(t, "two", s.Get("a.md", ""))
	assert.Equal(t, 1, s.Len())
}

func TestGetJSONMissingLeavesDefault(t *testing.T) {
	s := New()
	got := []string{"default"}
	require.NoError(t, s.GetJSON("nope.json", &got))
	assert.Equal(t, []string{"default"}, got)
}

func TestPutJSONRoundTrip(t *testing.T) {
	s := New()
	in := map[string]any{"b": 2, "a": "<x>"}
	require.NoError(t, s.PutJSON("m.json", in))

	assert.Equal(t, "{\n  \"a\": \"<x>\",\n  \"b\": 2\n}", s.Get("m.json", ""))

	var out map[string]any
	require.NoError(t, s.GetJSON("m.json", &out))
	assert.Equal(t, "<x>", out["a"])
	assert.Equal(t, float64(2), out["b"])
}

func TestPutJSONDeterministic(t *testing.T) {
	v := map[string]int{"z": 1, "m": 2, "a": 3}
	first, err := MarshalJSON(v)
	require.NoError(t, err)
	for range 10 {
		again, err := MarshalJSON(v)
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
}

func TestGetJSONTrailingComma(t *testing.T) {
	tests := []struct {
		name    string
		content string
		line    int
	}{
		{"object", "{\n  \"a\": 1,\n  \"b\": 2,\n}", 3},
		{"array", "[\n  1,\n  2,\n  3,\n]", 4},
		{"single line", `{"a": 1,}`, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			s.Put("bad.json", tt.content)

			var out any
			err := s.GetJSON("bad.json", &out)
			require.Error(t, err)

			var pe *ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.line, pe.Line)
			assert.Contains(t, pe.Msg, "trailing comma")
			assert.Equal(t, "bad.json", pe.Path)
			assert.Contains(t, pe.Problem, ",")
			assert.Contains(t, pe.Error(), "line")
		})
	}
}

func TestGetJSONMalformedContext(t *testing.T) {
	lines := []string{"{", `  "a": 1,`, `  "b": 2,`, `  "c": 3,`, `  "d": oops,`, `  "e": 5,`, `  "f": 6,`, `  "g": 7,`, `  "h": 8`, "}"}
	s := New()
	s.Put("bad.json", strings.Join(lines, "\n"))

	var out map[string]any
	err := s.GetJSON("bad.json", &out)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)

	assert.Equal(t, 5, pe.Line)
	assert.Equal(t, 8, pe.Column)
	assert.Equal(t, `  "d": oops,`, pe.Problem)
	assert.Contains(t, pe.Context, "   2 | ")
	assert.Contains(t, pe.Context, "   8 | ")
	assert.NotContains(t, pe.Context, "   1 | ")
	assert.NotContains(t, pe.Context, "   9 | ")
}

func TestGetJSONEmptyAndLongContent(t *testing.T) {
	s := New()
	s.Put("empty.json", "")
	var out any
	var pe *ParseError
	require.ErrorAs(t, s.GetJSON("empty.json", &out), &pe)
	assert.Equal(t, 1, pe.Line)

	long := "[" + strings.Repeat(`"xxxxxxxxxx",`, 100) + "}"
	s.Put("long.json", long)
	require.ErrorAs(t, s.GetJSON("long.json", &out), &pe)
	assert.Len(t, pe.Snippet, 500)
}

func TestList(t *testing.T) {
	s := New()
	s.Put("raw_data/subquery0_result0.txt", "a")
	s.Put("raw_data/subquery1_result0.txt", "b")
	s.Put("summaries/subquery0_index.json", "{}")

	assert.Len(t, s.List("raw_data/"), 2)
	assert.Len(t, s.List(""), 3)
	assert.Empty(t, s.List("nothing/"))
	assert.Equal(t, []string{"raw_data/subquery0_result0.txt", "raw_data/subquery1_result0.txt"}, s.Keys("raw_data/"))
}

func TestMergeLastWriteWins(t *testing.T) {
	base := FromMap(map[string]string{"a": "1", "b": "1"})
	delta := FromMap(map[string]string{"b": "2", "c": "2"})

	merged := base.Merge(delta)
	assert.Equal(t, map[string]string{"a": "1", "b": "2", "c": "2"}, merged.Snapshot())
	assert.Equal(t, "1", base.Get("b", ""), "merge must not modify its receiver")
}

func TestMergeDisjointCommutes(t *testing.T) {
	base := FromMap(map[string]string{"clarified_query.md": "q"})
	d1 := FromMap(map[string]string{"raw_data/subquery0_result0.txt": "x"})
	d2 := FromMap(map[string]string{"raw_data/subquery1_result0.txt": "y"})

	ab := base.Merge(d1).Merge(d2)
	ba := base.Merge(d2).Merge(d1)
	assert.Equal(t, ab.Snapshot(), ba.Snapshot())
}

func TestMergeIdempotent(t *testing.T) {
	base := FromMap(map[string]string{"a": "1"})
	d := FromMap(map[string]string{"b": "2", "a": "3"})

	once := base.Merge(d)
	twice := once.Merge(d)
	assert.Equal(t, once.Snapshot(), twice.Snapshot())
	assert.Equal(t, base.Snapshot(), base.Merge(nil).Snapshot())
}

func TestCloneAndDelta(t *testing.T) {
	base := New()
	base.Put("research_plan.json", "{}")

	view := base.Clone()
	assert.Empty(t, view.Delta().Snapshot(), "clone starts with no writes")

	view.Put("raw_data/subquery2_result0.txt", "r")
	require.NoError(t, view.PutJSON("raw_data/subquery2_metadata.json", map[string]int{"n": 1}))

	delta := view.Delta()
	assert.Equal(t, []string{"raw_data/subquery2_metadata.json", "raw_data/subquery2_result0.txt"}, delta.Keys(""))
	assert.False(t, base.Has("raw_data/subquery2_result0.txt"), "clone writes stay private")
	assert.False(t, delta.Has("research_plan.json"))
}

func TestTaskIndex(t *testing.T) {
	tests := []struct {
		path string
		want int
		ok   bool
	}{
		{RawResultPath(3, 0), 3, true},
		{SummaryIndexPath(12), 12, true},
		{ErrorPath(0), 0, true},
		{"raw_data/other.txt", 0, false},
		{FactcheckFile, 0, false},
	}
	for _, tt := range tests {
		got, ok := TaskIndex(tt.path)
		assert.Equal(t, tt.ok, ok, tt.path)
		assert.Equal(t, tt.want, got, tt.path)
	}

	r, ok := ResultNumber(RawResultPath(1, 7))
	assert.True(t, ok)
	assert.Equal(t, 7, r)
}

func TestWriteReadDir(t *testing.T) {
	dir := t.TempDir()
	s := New()
	s.Put(SubqueriesFile, "[]")
	s.Put(RawResultPath(0, 1), "content")

	require.NoError(t, WriteDir(s, dir))
	data, err := os.ReadFile(filepath.Join(dir, "raw_data", "subquery0_result1.txt"))
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden"), []byte("x"), 0o644))
	loaded, err := ReadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, s.Snapshot(), loaded.Snapshot())
}

func TestWriteDirRejectsEscapingPaths(t *testing.T) {
	for _, key := range []string{"../outside.txt", "/etc/passwd", "a/../../b"} {
		s := New()
		s.Put(key, "x")
		assert.Error(t, WriteDir(s, t.TempDir()), key)
	}
}
