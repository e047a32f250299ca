// SPDX-License-Identifier: MIT
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Load reads and parses the JSON document at path, then validates it.
// Returns an *Error for schema violations, or a plain error for
// I/O/parse failures (spec.md §6's INVALID_FILE vs INVALID_CONFIGURATION
// split).
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: INVALID_FILE: %w", err)
	}
	return Parse(data)
}

// Parse parses and validates a JSON configuration document from raw bytes.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("config: INVALID_FILE: malformed JSON: %w", err)
	}
	if err := Validate(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}
