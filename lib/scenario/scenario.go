// Copyright 2026 The Tabmirror Authors
// SPDX-License-Identifier: Apache-2.0

package scenario

import (
	"fmt"

	"github.com/tabmirror/tabmirror/mirror"
)

// Scenario is a scripted editor session.
type Scenario struct {
	// Name identifies the scenario in logs and run summaries. When
	// loaded from a file it defaults to the file's base name.
	Name string `json:"name,omitempty"`

	// Description is free text for humans; nothing interprets it.
	Description string `json:"description,omitempty"`

	// Steps run in order.
	Steps []Step `json:"steps"`
}

// Step is one scripted action. Exactly one action field must be set;
// [Validate] enforces this before a scenario runs.
type Step struct {
	// Open opens an editor in a group, creating the group when the
	// column is one past the last.
	Open *OpenStep `json:"open,omitempty"`

	// Close closes the editor at a position.
	Close *CloseStep `json:"close,omitempty"`

	// Activate focuses the editor at a position.
	Activate *ActivateStep `json:"activate,omitempty"`

	// ActivateGroup focuses a column without changing its active
	// editor.
	ActivateGroup *ActivateGroupStep `json:"activate_group,omitempty"`

	// Rename relabels the editor at a position.
	Rename *RenameStep `json:"rename,omitempty"`

	// Move moves an editor between positions on the workbench.
	Move *MoveStep `json:"move,omitempty"`

	// MoveTab moves a tab through the mirror's reverse path: the
	// engine re-resolves the mirrored tab back to its editor first.
	MoveTab *MoveTabStep `json:"move_tab,omitempty"`

	// CloseTab closes a tab through the mirror's reverse path.
	CloseTab *CloseTabStep `json:"close_tab,omitempty"`

	// Wait pauses the script for a duration ("250ms", "2s").
	Wait string `json:"wait,omitempty"`
}

// Action returns the name of the step's action, for logs and error
// messages. Empty when the step has none.
func (s Step) Action() string {
	switch {
	case s.Open != nil:
		return "open"
	case s.Close != nil:
		return "close"
	case s.Activate != nil:
		return "activate"
	case s.ActivateGroup != nil:
		return "activate_group"
	case s.Rename != nil:
		return "rename"
	case s.Move != nil:
		return "move"
	case s.MoveTab != nil:
		return "move_tab"
	case s.CloseTab != nil:
		return "close_tab"
	case s.Wait != "":
		return "wait"
	default:
		return ""
	}
}

// OpenStep opens an editor.
type OpenStep struct {
	// Column is the 1-based group column. One past the last column
	// opens a fresh group.
	Column int `json:"column"`

	// Name is the editor's display name.
	Name string `json:"name"`

	// Resource is the canonical URI. For composites this is the
	// primary (for diffs: modified) side.
	Resource string `json:"resource"`

	// Kind is the editor's type identifier. Optional.
	Kind string `json:"kind,omitempty"`

	// Composite selects a composite form: "diff" or "side_by_side".
	// Empty opens a plain editor.
	Composite string `json:"composite,omitempty"`

	// Secondary is the second resource of a composite editor.
	Secondary string `json:"secondary,omitempty"`

	// SecondaryKind is the secondary side's own type identifier.
	// Optional.
	SecondaryKind string `json:"secondary_kind,omitempty"`

	// At is the insertion index within the group. Absent appends.
	At *int `json:"at,omitempty"`
}

// CloseStep closes the editor at a position.
type CloseStep struct {
	Column int `json:"column"`
	Index  int `json:"index"`
}

// ActivateStep focuses the editor at a position.
type ActivateStep struct {
	Column int `json:"column"`
	Index  int `json:"index"`
}

// ActivateGroupStep focuses a column.
type ActivateGroupStep struct {
	Column int `json:"column"`
}

// RenameStep relabels the editor at a position.
type RenameStep struct {
	Column int    `json:"column"`
	Index  int    `json:"index"`
	Name   string `json:"name"`
}

// MoveStep moves an editor directly on the workbench.
type MoveStep struct {
	Column       int `json:"column"`
	Index        int `json:"index"`
	TargetColumn int `json:"target_column"`
	TargetIndex  int `json:"target_index"`

	// PreserveFocus keeps the current focus instead of following
	// the moved editor.
	PreserveFocus bool `json:"preserve_focus,omitempty"`
}

// MoveTabStep moves a tab through the mirror's reverse path. The tab
// is identified by its mirrored resource.
type MoveTabStep struct {
	Resource     string `json:"resource"`
	TargetColumn int    `json:"target_column"`
	TargetIndex  int    `json:"target_index"`
}

// CloseTabStep closes a tab through the mirror's reverse path.
type CloseTabStep struct {
	Resource string `json:"resource"`
}

// ParseComposite maps a scenario composite name to the mirror's
// composite kind. Empty means a plain editor.
func ParseComposite(name string) (mirror.CompositeKind, error) {
	switch name {
	case "":
		return 0, nil
	case "diff":
		return mirror.CompositeDiff, nil
	case "side_by_side":
		return mirror.CompositeSideBySide, nil
	default:
		return 0, fmt.Errorf("unknown composite kind: %q", name)
	}
}
