// Copyright 2026 The Tabmirror Authors
// SPDX-License-Identifier: Apache-2.0

package mirror

import "fmt"

// ChangeKind identifies which aspect of the authoritative model a
// change notification describes.
type ChangeKind uint8

const (
	// ChangeUnknown is the zero value. It never takes the
	// incremental path; the reconciler answers it with a rebuild.
	ChangeUnknown ChangeKind = iota

	// ChangeGroupActivated reports that a group gained focus.
	ChangeGroupActivated

	// ChangeTabRelabeled reports that an editor's display name
	// changed.
	ChangeTabRelabeled

	// ChangeTabOpened reports that an editor opened at a specific
	// index within its group.
	ChangeTabOpened

	// ChangeTabClosed reports that the editor at an index closed.
	ChangeTabClosed

	// ChangeTabActivated reports that the editor at an index became
	// its group's active editor.
	ChangeTabActivated
)

// String returns the canonical name of the change kind.
func (k ChangeKind) String() string {
	switch k {
	case ChangeGroupActivated:
		return "groupActivated"
	case ChangeTabRelabeled:
		return "tabRelabeled"
	case ChangeTabOpened:
		return "tabOpened"
	case ChangeTabClosed:
		return "tabClosed"
	case ChangeTabActivated:
		return "tabActivated"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// ParseChangeKind parses a canonical change kind name.
func ParseChangeKind(s string) (ChangeKind, error) {
	switch s {
	case "groupActivated":
		return ChangeGroupActivated, nil
	case "tabRelabeled":
		return ChangeTabRelabeled, nil
	case "tabOpened":
		return ChangeTabOpened, nil
	case "tabClosed":
		return ChangeTabClosed, nil
	case "tabActivated":
		return ChangeTabActivated, nil
	default:
		return ChangeUnknown, fmt.Errorf("unknown change kind %q", s)
	}
}

// Change is one notification from the authority. Group is always
// present; Editor and EditorIndex are optional and each kind declares
// which of them it requires.
type Change struct {
	// Kind selects the reconciler branch.
	Kind ChangeKind

	// Group identifies the group the change concerns.
	Group GroupID

	// Editor is the live editor the change concerns. Nil when the
	// notification did not include one.
	Editor Editor

	// EditorIndex is the position the change concerns within the
	// group. Nil when the notification did not include an index.
	// Index zero is a valid, present index: presence is this pointer
	// being non-nil, never the value being non-zero.
	EditorIndex *int
}

// Index returns a pointer to the given index value, for building
// Change literals.
func Index(i int) *int { return &i }
