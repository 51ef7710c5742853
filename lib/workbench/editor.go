// Copyright 2026 The Tabmirror Authors
// SPDX-License-Identifier: Apache-2.0

package workbench

import (
	"fmt"

	"github.com/tabmirror/tabmirror/mirror"
)

// EditorSpec describes an editor to open. Name and Resource are
// required. Composite selects a diff or side-by-side editor; both need
// Secondary (the original side for a diff, the secondary side for a
// side-by-side).
type EditorSpec struct {
	// Name is the display name, shown as the tab label.
	Name string

	// Kind is the editor's intrinsic type identifier. Optional; a
	// plain text editor has none.
	Kind mirror.EditorKind

	// Resource is the canonical URI. For a diff editor this is the
	// modified side, for a side-by-side editor the primary side.
	Resource mirror.Resource

	// Composite selects a composite editor form. Zero means a plain
	// single-resource editor.
	Composite mirror.CompositeKind

	// Secondary is the second resource of a composite editor.
	Secondary mirror.Resource

	// SecondaryKind is the secondary side's own type identifier.
	// Optional; an empty value lets the projection fall back to the
	// parent's identifier.
	SecondaryKind mirror.EditorKind
}

func (s EditorSpec) validate() error {
	if s.Name == "" {
		return fmt.Errorf("editor spec missing name")
	}
	if s.Resource == "" {
		return fmt.Errorf("editor spec %q missing resource", s.Name)
	}
	if s.Composite != 0 && s.Secondary == "" {
		return fmt.Errorf("composite editor spec %q missing secondary resource", s.Name)
	}
	if s.Composite == 0 && s.Secondary != "" {
		return fmt.Errorf("editor spec %q has a secondary resource but no composite kind", s.Name)
	}
	return nil
}

// editor is a plain single-resource editor. Editors are immutable:
// renames replace the object, so concurrent readers holding an old
// handle see a consistent past value instead of a torn one.
type editor struct {
	name     string
	kind     mirror.EditorKind
	resource mirror.Resource
}

func (e *editor) Name() string              { return e.name }
func (e *editor) TypeID() mirror.EditorKind { return e.kind }
func (e *editor) Resource() mirror.Resource { return e.resource }

// compositeEditor is a diff or side-by-side editor over two sides.
type compositeEditor struct {
	name      string
	kind      mirror.EditorKind
	composite mirror.CompositeKind
	primary   *editor
	secondary *editor
}

func (e *compositeEditor) Name() string                    { return e.name }
func (e *compositeEditor) TypeID() mirror.EditorKind       { return e.kind }
func (e *compositeEditor) Resource() mirror.Resource       { return e.primary.resource }
func (e *compositeEditor) Composite() mirror.CompositeKind { return e.composite }
func (e *compositeEditor) PrimarySide() mirror.Editor      { return e.primary }
func (e *compositeEditor) SecondarySide() mirror.Editor    { return e.secondary }

// newEditor instantiates the editor described by a validated spec.
func newEditor(spec EditorSpec) mirror.Editor {
	if spec.Composite == 0 {
		return &editor{name: spec.Name, kind: spec.Kind, resource: spec.Resource}
	}
	return &compositeEditor{
		name:      spec.Name,
		kind:      spec.Kind,
		composite: spec.Composite,
		primary:   &editor{name: spec.Name, kind: spec.Kind, resource: spec.Resource},
		secondary: &editor{name: spec.Name, kind: spec.SecondaryKind, resource: spec.Secondary},
	}
}

// renameEditor returns a copy of the editor carrying a new display
// name. The resource identity is unchanged, so reverse resolution
// still finds the renamed editor.
func renameEditor(old mirror.Editor, name string) mirror.Editor {
	switch e := old.(type) {
	case *editor:
		clone := *e
		clone.name = name
		return &clone
	case *compositeEditor:
		clone := *e
		clone.name = name
		return &clone
	default:
		return old
	}
}

// matches is the workbench's editor equivalence test over the abstract
// match shape the resolver constructs. Resources compare per side; a
// non-empty single-match kind must equal the editor's own.
func matches(candidate mirror.Editor, match mirror.EditorMatch) bool {
	composite, _ := candidate.(mirror.CompositeEditor)
	switch match.Kind {
	case mirror.MatchSingle:
		if composite != nil {
			return false
		}
		if match.Single.Kind != "" && match.Single.Kind != candidate.TypeID() {
			return false
		}
		return candidate.Resource() == match.Single.Resource
	case mirror.MatchSideBySide:
		if composite == nil || composite.Composite() != mirror.CompositeSideBySide {
			return false
		}
		return composite.PrimarySide().Resource() == match.Primary.Resource &&
			composite.SecondarySide().Resource() == match.Secondary.Resource
	case mirror.MatchDiff:
		if composite == nil || composite.Composite() != mirror.CompositeDiff {
			return false
		}
		return composite.PrimarySide().Resource() == match.Modified.Resource &&
			composite.SecondarySide().Resource() == match.Original.Resource
	default:
		return false
	}
}
