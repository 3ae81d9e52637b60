// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Schema is a compiled JSON schema that structured responses must satisfy.
type Schema struct {
	Name     string
	Document string
	compiled *gojsonschema.Schema
}

// NewSchema compiles doc.
func NewSchema(name, doc string) (*Schema, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("compiling schema %s: %w", name, err)
	}
	return &Schema{Name: name, Document: doc, compiled: compiled}, nil
}

// MustSchema is NewSchema for package-level schema declarations.
func MustSchema(name, doc string) *Schema {
	s, err := NewSchema(name, doc)
	if err != nil {
		panic(err)
	}
	return s
}

// SchemaError reports a response that is not JSON or does not match the
// requested schema.
type SchemaError struct {
	Schema string
	Errors []string
	Raw    string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("response does not match schema %s: %s", e.Schema, strings.Join(e.Errors, "; "))
}

// Validate checks payload against the schema.
func (s *Schema) Validate(payload string) error {
	result, err := s.compiled.Validate(gojsonschema.NewStringLoader(payload))
	if err != nil {
		return &SchemaError{Schema: s.Name, Errors: []string{err.Error()}, Raw: payload}
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		msgs = append(msgs, re.String())
	}
	return &SchemaError{Schema: s.Name, Errors: msgs, Raw: payload}
}

// Generate asks c for a JSON response, validates it against schema, and
// decodes it into out. The prompt should already describe the expected
// shape; the schema is the enforcement.
func Generate(ctx context.Context, c Client, req Request, schema *Schema, out any) error {
	req.JSON = true
	text, err := c.Complete(ctx, req)
	if err != nil {
		return err
	}

	payload := ExtractJSON(text)
	if err := schema.Validate(payload); err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return &SchemaError{Schema: schema.Name, Errors: []string{err.Error()}, Raw: payload}
	}
	return nil
}

// ExtractJSON returns the JSON document embedded in a model reply. It
// strips Markdown code fences and any prose around the outermost object
// or array.
func ExtractJSON(text string) string {
	s := strings.TrimSpace(text)
	if i := strings.Index(s, "```"); i >= 0 {
		rest := s[i+3:]
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			rest = rest[nl+1:]
		}
		if end := strings.Index(rest, "```"); end >= 0 {
			rest = rest[:end]
		}
		s = strings.TrimSpace(rest)
	}

	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return s
	}
	closer := byte('}')
	if s[start] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(s, closer)
	if end < start {
		return s[start:]
	}
	return s[start : end+1]
}
