// Copyright 2026 The Tabmirror Authors
// SPDX-License-Identifier: Apache-2.0

package mirror

import "slices"

// GroupID is the authority-assigned identity of a tab group. IDs are
// opaque and stable for the lifetime of a group; they survive column
// renumbering when groups to the left open or close.
type GroupID int

// ViewColumn is a 1-based column position. Columns are a derived,
// stable mapping from the authoritative group ordering — column n is
// the n-th group in the authority's natural order — not an independent
// degree of freedom of the mirror.
type ViewColumn int

// Resource is an opaque canonical URI identifying what an editor
// shows. The mirror never parses or resolves it; it only carries the
// value and compares it for equality.
type Resource string

// EditorKind classifies the editor behind a tab. [KindDiff] and
// [KindSideBySide] mark composite tabs; any other non-empty value is
// the editor's intrinsic type identifier, and empty means the editor
// reported no type.
type EditorKind string

const (
	// KindDiff marks a tab backed by a two-sided difference editor.
	KindDiff EditorKind = "diff"

	// KindSideBySide marks a tab backed by a side-by-side composite
	// of two independent editors.
	KindSideBySide EditorKind = "sideBySide"

	// KindTextDiff is the fixed type identifier recorded for the
	// original side of a diff tab, and used as the override kind on
	// both sides when a diff tab is reverse-resolved. Only text
	// diffs are supported by the projection.
	KindTextDiff EditorKind = "textDiff"
)

// TabResource is one entry of a tab's resource list: a resource paired
// with the editor kind it should open under.
type TabResource struct {
	Resource Resource   `json:"resource"`
	Kind     EditorKind `json:"kind,omitempty"`
}

// Tab is the mirrored record of one open editor. Tabs are plain
// values; copying one copies everything except the shared backing of
// Resources, which [Tab.clone] duplicates.
type Tab struct {
	// ViewColumn is the column of the group the tab lives in.
	ViewColumn ViewColumn `json:"view_column"`

	// Label is the editor's display name.
	Label string `json:"label"`

	// Resource is the canonical resource: the primary side for a
	// side-by-side tab, otherwise the editor's own resource.
	Resource Resource `json:"resource,omitempty"`

	// EditorKind classifies the editor; see [EditorKind].
	EditorKind EditorKind `json:"editor_kind,omitempty"`

	// Resources lists the resources needed to reopen or re-resolve
	// the tab. The first entry is always (Resource, EditorKind);
	// composite tabs carry a second entry for their other side.
	Resources []TabResource `json:"resources,omitempty"`

	// IsActive reports whether this is its group's active tab.
	IsActive bool `json:"is_active"`
}

// clone returns a deep copy of the tab.
func (t Tab) clone() Tab {
	t.Resources = slices.Clone(t.Resources)
	return t
}

// Group is the mirrored record of one tab group. A record is created
// on the first tab insertion into a previously-unknown group and
// removed when its last tab closes.
type Group struct {
	// ID is the authority-assigned group identity.
	ID GroupID `json:"id"`

	// IsActive reports whether this group holds focus. At most one
	// group in the sequence is active.
	IsActive bool `json:"is_active"`

	// ViewColumn is the column the authority assigns to this group.
	ViewColumn ViewColumn `json:"view_column"`

	// Tabs are the group's tabs in presentation order.
	Tabs []Tab `json:"tabs"`

	// ActiveTab is a copy of the active tab, nil when the group
	// currently has none. It never aliases an entry of Tabs.
	ActiveTab *Tab `json:"active_tab,omitempty"`
}

// Clone returns a deep copy of the group.
func (g Group) Clone() Group {
	tabs := make([]Tab, len(g.Tabs))
	for i, tab := range g.Tabs {
		tabs[i] = tab.clone()
	}
	g.Tabs = tabs
	if g.ActiveTab != nil {
		active := g.ActiveTab.clone()
		g.ActiveTab = &active
	}
	return g
}

// refreshActiveTab re-derives the ActiveTab copy from the tab flags.
// Every mutation path that can change which tab is active, or the
// content of the active tab, ends here so the two representations
// never drift apart.
func refreshActiveTab(group *Group) {
	for i := range group.Tabs {
		if group.Tabs[i].IsActive {
			active := group.Tabs[i].clone()
			group.ActiveTab = &active
			return
		}
	}
	group.ActiveTab = nil
}
