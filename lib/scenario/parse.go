// Copyright 2026 The Tabmirror Authors
// SPDX-License-Identifier: Apache-2.0

// Package scenario provides parsing, validation, and execution of
// scripted editor sessions. A scenario is an ordered list of steps
// (open, close, activate, rename, move, reverse commands, waits)
// that drive a workbench while a mirror engine follows along.
//
// Scenarios are authored on disk as JSONC files (JSON extended with
// comments and trailing commas). The typical flow:
//
//  1. ReadFile or Parse: JSONC bytes → Scenario
//  2. Validate: structural checks (exactly one action per step,
//     required fields, parseable durations)
//  3. Runner.Run: apply the steps to a live workbench and engine,
//     fencing each step on the mirror having caught up
package scenario

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
)

// Parse strips JSONC comments and trailing commas from data, then
// unmarshals the result into a Scenario.
func Parse(data []byte) (*Scenario, error) {
	stripped := jsonc.ToJSON(data)

	var content Scenario
	if err := json.Unmarshal(stripped, &content); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}

	return &content, nil
}

// ReadFile reads a JSONC scenario file from disk and parses it.
// Returns a descriptive error if the file cannot be read or the JSON
// is malformed.
func ReadFile(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	content, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return content, nil
}

// NameFromPath extracts a scenario name from a file path by stripping
// the directory prefix and the file extension. For example,
// "scenarios/morning-review.jsonc" returns "morning-review".
func NameFromPath(path string) string {
	base := filepath.Base(path)
	extension := filepath.Ext(base)
	return strings.TrimSuffix(base, extension)
}
