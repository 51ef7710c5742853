// Copyright 2026 The Tabmirror Authors
// SPDX-License-Identifier: Apache-2.0

package mirror

import "context"

// Authority is the engine's window onto the authoritative editor
// model. The engine never reaches for ambient or global state; every
// read and every command goes through this interface.
//
// Handles returned by Groups, ActiveGroup, GroupByID, and
// GroupByColumn, and the editors they expose, are comparable: the same
// live group or editor is always represented by the same value, so
// callers may compare handles directly.
type Authority interface {
	// Ready returns a channel that is closed once the authoritative
	// model is fully populated. The engine performs its initial
	// build only after this fires.
	Ready() <-chan struct{}

	// Changes returns the channel of change notifications. The
	// authority closes it when it shuts down.
	Changes() <-chan Change

	// Groups returns all groups in natural order.
	Groups() []AuthorityGroup

	// ActiveGroup returns the group holding focus, if any.
	ActiveGroup() (AuthorityGroup, bool)

	// GroupByID resolves a group by its identity.
	GroupByID(id GroupID) (AuthorityGroup, bool)

	// GroupByColumn resolves a group by its current column.
	GroupByColumn(column ViewColumn) (AuthorityGroup, bool)

	// CreateGroupRightOfLast creates a new empty group to the right
	// of the last group and returns it.
	CreateGroupRightOfLast() (AuthorityGroup, error)
}

// AuthorityGroup is one live group within the authority.
type AuthorityGroup interface {
	// ID is the group's stable identity.
	ID() GroupID

	// Column is the group's current 1-based column.
	Column() ViewColumn

	// Editors returns the group's editors in presentation order.
	Editors() []Editor

	// ActiveEditor returns the group's active editor, if any.
	ActiveEditor() (Editor, bool)

	// FindEditor resolves an abstract editor description to a live
	// editor. Equivalence is the authority's business; the mirror
	// only builds the description.
	FindEditor(match EditorMatch) (Editor, bool)

	// MoveEditor moves one of this group's editors to the target
	// group at the given index. With preserveFocus the move must not
	// implicitly steal focus from the active editor.
	MoveEditor(editor Editor, target AuthorityGroup, index int, preserveFocus bool) error

	// CloseEditor closes one of this group's editors and returns
	// once the close has completed.
	CloseEditor(ctx context.Context, editor Editor) error
}

// Editor is one live editor within an authority group.
type Editor interface {
	// Name is the display name shown on the editor's tab.
	Name() string

	// TypeID is the editor's intrinsic type identifier, empty when
	// the editor has no specific type.
	TypeID() EditorKind

	// Resource is the editor's own canonical resource.
	Resource() Resource
}

// CompositeKind discriminates the two composite editor forms.
type CompositeKind uint8

const (
	// CompositeDiff is a two-sided difference editor. Its primary
	// side is the modified version, its secondary side the original.
	CompositeDiff CompositeKind = iota + 1

	// CompositeSideBySide shows two independent editors next to each
	// other.
	CompositeSideBySide
)

// CompositeEditor is implemented by editors composed of two underlying
// sides. The projection detects composites by asserting this
// interface.
type CompositeEditor interface {
	Editor

	// Composite reports which composite form this editor takes.
	Composite() CompositeKind

	// PrimarySide is the primary (for diffs: modified) side.
	PrimarySide() Editor

	// SecondarySide is the secondary (for diffs: original) side.
	SecondarySide() Editor
}

// ResourceInput is one side of an abstract editor description: a
// resource plus the editor kind it should resolve under. An empty Kind
// leaves the kind to the authority.
type ResourceInput struct {
	Resource Resource
	Kind     EditorKind
}

// MatchKind discriminates which sides of an [EditorMatch] are
// populated.
type MatchKind uint8

const (
	// MatchSingle describes a plain single-resource editor.
	MatchSingle MatchKind = iota + 1

	// MatchSideBySide describes a side-by-side composite by its
	// primary and secondary sides.
	MatchSideBySide

	// MatchDiff describes a diff composite by its modified and
	// original sides.
	MatchDiff
)

// EditorMatch is an abstract description of an editor, rebuilt from a
// tab descriptor on every command. The resolver hands it to
// [AuthorityGroup.FindEditor]; it is never a reference to a live
// editor.
type EditorMatch struct {
	// Kind selects which of the side fields below carry the match.
	Kind MatchKind

	// Single is the sole input of a MatchSingle.
	Single ResourceInput

	// Primary and Secondary are the sides of a MatchSideBySide.
	Primary   ResourceInput
	Secondary ResourceInput

	// Modified and Original are the sides of a MatchDiff.
	Modified ResourceInput
	Original ResourceInput
}
