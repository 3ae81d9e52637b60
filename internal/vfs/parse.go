// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package vfs

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	contextLines  = 3
	snippetLength = 500
)

// ParseError reports malformed JSON content in the store. Line and Column
// are 1-based and point at the offending character.
type ParseError struct {
	Path    string
	Msg     string
	Offset  int64
	Line    int
	Column  int
	Problem string // the offending line
	Context string // numbered surrounding lines
	Snippet string // first 500 characters of the content
	Err     error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "failed to parse JSON from %q: %s at line %d, column %d\n", e.Path, e.Msg, e.Line, e.Column)
	fmt.Fprintf(&b, "problematic line: %s\n", e.Problem)
	fmt.Fprintf(&b, "\ncontext:\n%s\n", e.Context)
	fmt.Fprintf(&b, "\ncontent (first %d chars):\n%s", snippetLength, e.Snippet)
	return b.String()
}

func (e *ParseError) Unwrap() error { return e.Err }

func newParseError(path, raw string, err error) *ParseError {
	pe := &ParseError{Path: path, Msg: err.Error(), Err: err}

	pos := len(raw)
	var synErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &synErr):
		pos = int(synErr.Offset) - 1
		if pos >= 0 && pos < len(raw) && (raw[pos] == '}' || raw[pos] == ']') {
			if comma := previousNonSpace(raw, pos); comma >= 0 && raw[comma] == ',' {
				pos = comma
				pe.Msg = "illegal trailing comma before end of " + closerName(raw[synErr.Offset-1])
			}
		}
	case errors.As(err, &typeErr):
		pos = int(typeErr.Offset) - 1
	}
	if pos < 0 {
		pos = 0
	}
	if pos > len(raw) {
		pos = len(raw)
	}
	pe.Offset = int64(pos)

	before := raw[:pos]
	pe.Line = strings.Count(before, "\n") + 1
	pe.Column = pos - strings.LastIndex(before, "\n")

	lines := strings.Split(raw, "\n")
	if pe.Line <= len(lines) {
		pe.Problem = lines[pe.Line-1]
	} else {
		pe.Problem = "N/A"
	}
	start := max(0, pe.Line-1-contextLines)
	end := min(len(lines), pe.Line+contextLines)
	ctx := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		ctx = append(ctx, fmt.Sprintf("%4d | %s", i+1, lines[i]))
	}
	pe.Context = strings.Join(ctx, "\n")

	pe.Snippet = raw
	if len(pe.Snippet) > snippetLength {
		pe.Snippet = pe.Snippet[:snippetLength]
	}
	return pe
}

func previousNonSpace(s string, pos int) int {
	for i := pos - 1; i >= 0; i-- {
		switch s[i] {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return i
	}
	return -1
}

func closerName(c byte) string {
	if c == ']' {
		return "array"
	}
	return "object"
}
