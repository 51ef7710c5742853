// Copyright 2026 The Tabmirror Authors
// SPDX-License-Identifier: Apache-2.0

package scenario

import (
	"fmt"
	"time"
)

// Validate checks a Scenario for structural issues. Returns a list of
// human-readable issue descriptions. An empty list means the scenario
// is valid.
//
// Structural checks include:
//   - At least one step is required
//   - Each step must set exactly one action
//   - Open steps need a column, name, and resource; composite fields
//     must be consistent (secondary with composite, known form)
//   - Position fields must be in range (columns 1-based, indexes
//     0-based)
//   - Rename steps need a non-empty name
//   - MoveTab and CloseTab steps need a resource
//   - Wait durations must be parseable by time.ParseDuration and not
//     negative
func Validate(scenario *Scenario) []string {
	var issues []string

	if len(scenario.Steps) == 0 {
		issues = append(issues, "scenario has no steps (at least one step is required)")
	}

	for index, step := range scenario.Steps {
		prefix := fmt.Sprintf("steps[%d]", index)
		issues = append(issues, validateStep(step, prefix)...)
	}

	return issues
}

// validateStep checks a single step for structural issues. The prefix
// identifies the step's position (e.g., "steps[0]") for error
// messages.
func validateStep(step Step, prefix string) []string {
	var issues []string

	actionCount := 0
	for _, present := range []bool{
		step.Open != nil,
		step.Close != nil,
		step.Activate != nil,
		step.ActivateGroup != nil,
		step.Rename != nil,
		step.Move != nil,
		step.MoveTab != nil,
		step.CloseTab != nil,
		step.Wait != "",
	} {
		if present {
			actionCount++
		}
	}

	switch {
	case actionCount == 0:
		return append(issues, fmt.Sprintf(
			"%s: step has no action (one of open, close, activate, activate_group, rename, move, move_tab, close_tab, wait)",
			prefix,
		))
	case actionCount > 1:
		return append(issues, fmt.Sprintf(
			"%s: step has %d actions, exactly one is allowed", prefix, actionCount,
		))
	}

	switch {
	case step.Open != nil:
		issues = append(issues, validateOpen(step.Open, prefix)...)

	case step.Close != nil:
		issues = append(issues, validatePosition(step.Close.Column, step.Close.Index, prefix+" close")...)

	case step.Activate != nil:
		issues = append(issues, validatePosition(step.Activate.Column, step.Activate.Index, prefix+" activate")...)

	case step.ActivateGroup != nil:
		if step.ActivateGroup.Column < 1 {
			issues = append(issues, fmt.Sprintf("%s activate_group: column must be >= 1", prefix))
		}

	case step.Rename != nil:
		issues = append(issues, validatePosition(step.Rename.Column, step.Rename.Index, prefix+" rename")...)
		if step.Rename.Name == "" {
			issues = append(issues, fmt.Sprintf("%s rename: name is required", prefix))
		}

	case step.Move != nil:
		issues = append(issues, validatePosition(step.Move.Column, step.Move.Index, prefix+" move")...)
		if step.Move.TargetColumn < 1 {
			issues = append(issues, fmt.Sprintf("%s move: target_column must be >= 1", prefix))
		}
		if step.Move.TargetIndex < 0 {
			issues = append(issues, fmt.Sprintf("%s move: target_index must be >= 0", prefix))
		}

	case step.MoveTab != nil:
		if step.MoveTab.Resource == "" {
			issues = append(issues, fmt.Sprintf("%s move_tab: resource is required", prefix))
		}
		if step.MoveTab.TargetColumn < 1 {
			issues = append(issues, fmt.Sprintf("%s move_tab: target_column must be >= 1", prefix))
		}
		if step.MoveTab.TargetIndex < 0 {
			issues = append(issues, fmt.Sprintf("%s move_tab: target_index must be >= 0", prefix))
		}

	case step.CloseTab != nil:
		if step.CloseTab.Resource == "" {
			issues = append(issues, fmt.Sprintf("%s close_tab: resource is required", prefix))
		}

	case step.Wait != "":
		if duration, err := time.ParseDuration(step.Wait); err != nil {
			issues = append(issues, fmt.Sprintf("%s wait: %v", prefix, err))
		} else if duration < 0 {
			issues = append(issues, fmt.Sprintf("%s wait: duration must not be negative", prefix))
		}
	}

	return issues
}

// validateOpen checks an open step's fields.
func validateOpen(open *OpenStep, prefix string) []string {
	var issues []string

	if open.Column < 1 {
		issues = append(issues, fmt.Sprintf("%s open: column must be >= 1", prefix))
	}
	if open.Name == "" {
		issues = append(issues, fmt.Sprintf("%s open: name is required", prefix))
	}
	if open.Resource == "" {
		issues = append(issues, fmt.Sprintf("%s open: resource is required", prefix))
	}

	if _, err := ParseComposite(open.Composite); err != nil {
		issues = append(issues, fmt.Sprintf("%s open: %v", prefix, err))
	}
	if open.Composite != "" && open.Secondary == "" {
		issues = append(issues, fmt.Sprintf("%s open: secondary is required for composite editors", prefix))
	}
	if open.Composite == "" && open.Secondary != "" {
		issues = append(issues, fmt.Sprintf("%s open: secondary is only valid on composite editors", prefix))
	}
	if open.Composite == "" && open.SecondaryKind != "" {
		issues = append(issues, fmt.Sprintf("%s open: secondary_kind is only valid on composite editors", prefix))
	}

	if open.At != nil && *open.At < 0 {
		issues = append(issues, fmt.Sprintf("%s open: at must be >= 0", prefix))
	}

	return issues
}

// validatePosition checks a column/index pair.
func validatePosition(column, index int, prefix string) []string {
	var issues []string
	if column < 1 {
		issues = append(issues, fmt.Sprintf("%s: column must be >= 1", prefix))
	}
	if index < 0 {
		issues = append(issues, fmt.Sprintf("%s: index must be >= 0", prefix))
	}
	return issues
}
