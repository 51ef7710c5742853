// Copyright 2026 The Tabmirror Authors
// SPDX-License-Identifier: Apache-2.0

package mirror

import (
	"context"
	"io"
	"log/slog"
	"reflect"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeEditor is a plain single-resource editor.
type fakeEditor struct {
	name     string
	typeID   EditorKind
	resource Resource
}

func (e *fakeEditor) Name() string       { return e.name }
func (e *fakeEditor) TypeID() EditorKind { return e.typeID }
func (e *fakeEditor) Resource() Resource { return e.resource }

func plainEditor(name string, resource Resource) *fakeEditor {
	return &fakeEditor{name: name, resource: resource}
}

func typedEditor(name string, typeID EditorKind, resource Resource) *fakeEditor {
	return &fakeEditor{name: name, typeID: typeID, resource: resource}
}

// fakeComposite is a diff or side-by-side editor over two sides. Its
// own resource is the primary side's, matching the convention that a
// diff editor reports its modified side as its resource.
type fakeComposite struct {
	name      string
	typeID    EditorKind
	kind      CompositeKind
	primary   *fakeEditor
	secondary *fakeEditor
}

func (e *fakeComposite) Name() string             { return e.name }
func (e *fakeComposite) TypeID() EditorKind       { return e.typeID }
func (e *fakeComposite) Resource() Resource       { return e.primary.resource }
func (e *fakeComposite) Composite() CompositeKind { return e.kind }
func (e *fakeComposite) PrimarySide() Editor      { return e.primary }
func (e *fakeComposite) SecondarySide() Editor    { return e.secondary }

// fakeMove records one MoveEditor call.
type fakeMove struct {
	editor        Editor
	target        AuthorityGroup
	index         int
	preserveFocus bool
}

// fakeGroup is one live group of the fake authority.
type fakeGroup struct {
	id      GroupID
	column  ViewColumn
	editors []Editor
	active  Editor

	moves    []fakeMove
	closed   []Editor
	moveErr  error
	closeErr error

	// closeEntered, when non-nil, is closed as CloseEditor starts.
	// closeBlock, when non-nil, stalls CloseEditor until it is
	// closed. Together they let tests hold the engine loop inside a
	// close await.
	closeEntered chan struct{}
	closeBlock   chan struct{}
}

func (g *fakeGroup) ID() GroupID        { return g.id }
func (g *fakeGroup) Column() ViewColumn { return g.column }
func (g *fakeGroup) Editors() []Editor  { return g.editors }

func (g *fakeGroup) ActiveEditor() (Editor, bool) {
	if g.active == nil {
		return nil, false
	}
	return g.active, true
}

func (g *fakeGroup) FindEditor(match EditorMatch) (Editor, bool) {
	for _, editor := range g.editors {
		if fakeEditorMatches(editor, match) {
			return editor, true
		}
	}
	return nil, false
}

func (g *fakeGroup) MoveEditor(editor Editor, target AuthorityGroup, index int, preserveFocus bool) error {
	if g.moveErr != nil {
		return g.moveErr
	}
	g.moves = append(g.moves, fakeMove{
		editor:        editor,
		target:        target,
		index:         index,
		preserveFocus: preserveFocus,
	})
	return nil
}

func (g *fakeGroup) CloseEditor(ctx context.Context, editor Editor) error {
	if g.closeEntered != nil {
		close(g.closeEntered)
		g.closeEntered = nil
	}
	if g.closeBlock != nil {
		select {
		case <-g.closeBlock:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	g.closed = append(g.closed, editor)
	return g.closeErr
}

// fakeEditorMatches is the fake authority's equivalence policy:
// resource equality per side, honoring a non-empty override kind for
// single matches.
func fakeEditorMatches(editor Editor, match EditorMatch) bool {
	composite, _ := editor.(CompositeEditor)
	switch match.Kind {
	case MatchSingle:
		if composite != nil {
			return false
		}
		if match.Single.Kind != "" && match.Single.Kind != editor.TypeID() {
			return false
		}
		return editor.Resource() == match.Single.Resource
	case MatchSideBySide:
		if composite == nil || composite.Composite() != CompositeSideBySide {
			return false
		}
		return composite.PrimarySide().Resource() == match.Primary.Resource &&
			composite.SecondarySide().Resource() == match.Secondary.Resource
	case MatchDiff:
		if composite == nil || composite.Composite() != CompositeDiff {
			return false
		}
		return composite.PrimarySide().Resource() == match.Modified.Resource &&
			composite.SecondarySide().Resource() == match.Original.Resource
	}
	return false
}

// fakeAuthority is an in-test Authority whose state the test mutates
// directly. Tests that drive an engine must mutate state before
// sending the corresponding change, never after.
type fakeAuthority struct {
	ready   chan struct{}
	changes chan Change
	groups  []*fakeGroup
	active  *fakeGroup

	created   []*fakeGroup
	createErr error
	nextID    GroupID
}

func newFakeAuthority(groups ...*fakeGroup) *fakeAuthority {
	authority := &fakeAuthority{
		ready:   make(chan struct{}),
		changes: make(chan Change, 64),
		groups:  groups,
		nextID:  100,
	}
	if len(groups) > 0 {
		authority.active = groups[0]
	}
	return authority
}

func (a *fakeAuthority) Ready() <-chan struct{} { return a.ready }
func (a *fakeAuthority) Changes() <-chan Change { return a.changes }

func (a *fakeAuthority) Groups() []AuthorityGroup {
	groups := make([]AuthorityGroup, len(a.groups))
	for i, group := range a.groups {
		groups[i] = group
	}
	return groups
}

func (a *fakeAuthority) ActiveGroup() (AuthorityGroup, bool) {
	if a.active == nil {
		return nil, false
	}
	return a.active, true
}

func (a *fakeAuthority) GroupByID(id GroupID) (AuthorityGroup, bool) {
	for _, group := range a.groups {
		if group.id == id {
			return group, true
		}
	}
	return nil, false
}

func (a *fakeAuthority) GroupByColumn(column ViewColumn) (AuthorityGroup, bool) {
	for _, group := range a.groups {
		if group.column == column {
			return group, true
		}
	}
	return nil, false
}

func (a *fakeAuthority) CreateGroupRightOfLast() (AuthorityGroup, error) {
	if a.createErr != nil {
		return nil, a.createErr
	}
	column := ViewColumn(1)
	if len(a.groups) > 0 {
		column = a.groups[len(a.groups)-1].column + 1
	}
	group := &fakeGroup{id: a.nextID, column: column}
	a.nextID++
	a.groups = append(a.groups, group)
	a.created = append(a.created, group)
	return group, nil
}

// checkInvariants asserts the structural invariants over a snapshot:
// at most one active group, at most one active tab per group with
// ActiveTab mirroring it, no empty groups, and tab columns matching
// their group.
func checkInvariants(t *testing.T, groups []Group) {
	t.Helper()
	activeGroups := 0
	for _, group := range groups {
		if group.IsActive {
			activeGroups++
		}
		if len(group.Tabs) == 0 {
			t.Errorf("group %d is empty", group.ID)
		}
		activeTabs := 0
		var activeTab Tab
		for _, tab := range group.Tabs {
			if tab.IsActive {
				activeTabs++
				activeTab = tab
			}
			if tab.ViewColumn != group.ViewColumn {
				t.Errorf("group %d: tab %q has column %d, group has %d",
					group.ID, tab.Label, tab.ViewColumn, group.ViewColumn)
			}
		}
		switch {
		case activeTabs > 1:
			t.Errorf("group %d has %d active tabs", group.ID, activeTabs)
		case activeTabs == 1:
			if group.ActiveTab == nil {
				t.Errorf("group %d: tab flagged active but ActiveTab is nil", group.ID)
			} else if !reflect.DeepEqual(*group.ActiveTab, activeTab) {
				t.Errorf("group %d: ActiveTab %+v does not mirror flagged tab %+v",
					group.ID, *group.ActiveTab, activeTab)
			}
		case group.ActiveTab != nil:
			t.Errorf("group %d: no tab flagged active but ActiveTab is %+v",
				group.ID, *group.ActiveTab)
		}
	}
	if activeGroups > 1 {
		t.Errorf("%d active groups, want at most 1", activeGroups)
	}
}
