// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key
// name and the file contents (trimmed) are the value.
//
// Known key files: tavily-api-key, anthropic-api-key, gemini-api-key.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Key file names and the environment variables that override them.
const (
	TavilyKey    = "tavily-api-key"
	AnthropicKey = "anthropic-api-key"
	GeminiKey    = "gemini-api-key"
)

var envVars = map[string]string{
	TavilyKey:    "TAVILY_API_KEY",
	AnthropicKey: "ANTHROPIC_API_KEY",
	GeminiKey:    "GEMINI_API_KEY",
}

// Set holds loaded secrets by key file name.
type Set map[string]string

// Load reads all files in dir and returns a Set of filename to trimmed
// contents. A missing directory is not an error; Load returns an empty Set.
// Unreadable files are logged and skipped.
func Load(dir string, logger *zap.Logger) (Set, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Set{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(Set)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warn("could not read secret", zap.String("name", name), zap.Error(err))
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Resolve returns the first non-empty value among explicit, the key's
// environment variable, and the secret file.
func (s Set) Resolve(key, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env, ok := envVars[key]; ok {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			return v
		}
	}
	return s[key]
}
