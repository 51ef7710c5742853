// Copyright 2026 The Tabmirror Authors
// SPDX-License-Identifier: Apache-2.0

package mirror

// projectTab converts one live editor into its mirrored Tab.
//
// The projection is the single place where editor structure becomes
// tab fields: label from the display name, resource from the canonical
// side, kind from the composite form or the intrinsic type, and the
// resource list that later feeds reverse resolution. A side-by-side
// secondary with no type identifier of its own borrows the parent's.
func projectTab(editor Editor, group AuthorityGroup) Tab {
	tab := Tab{
		ViewColumn: group.Column(),
		Label:      editor.Name(),
		Resource:   editor.Resource(),
		EditorKind: editor.TypeID(),
	}
	if active, ok := group.ActiveEditor(); ok && active == editor {
		tab.IsActive = true
	}

	composite, _ := editor.(CompositeEditor)
	if composite != nil {
		switch composite.Composite() {
		case CompositeSideBySide:
			tab.EditorKind = KindSideBySide
			tab.Resource = composite.PrimarySide().Resource()
		case CompositeDiff:
			// The diff editor's own resource is its modified side.
			tab.EditorKind = KindDiff
		}
	}

	tab.Resources = []TabResource{{Resource: tab.Resource, Kind: tab.EditorKind}}
	if composite != nil {
		secondary := composite.SecondarySide()
		switch composite.Composite() {
		case CompositeSideBySide:
			kind := secondary.TypeID()
			if kind == "" {
				kind = editor.TypeID()
			}
			tab.Resources = append(tab.Resources, TabResource{
				Resource: secondary.Resource(),
				Kind:     kind,
			})
		case CompositeDiff:
			tab.Resources = append(tab.Resources, TabResource{
				Resource: secondary.Resource(),
				Kind:     KindTextDiff,
			})
		}
	}
	return tab
}
