// Copyright 2026 The Tabmirror Authors
// SPDX-License-Identifier: Apache-2.0

package mirror

// buildModel projects the authority's entire state into a fresh group
// sequence. It runs for the initial build and for every reconciler
// fallback; given the same authoritative state it always produces the
// same sequence, so two consecutive rebuilds encode to identical
// bytes.
//
// Groups without editors are skipped: the mirror never carries an
// empty group, even transiently reported ones.
func buildModel(authority Authority) []Group {
	authorityGroups := authority.Groups()
	activeID, hasActive := GroupID(0), false
	if active, ok := authority.ActiveGroup(); ok {
		activeID, hasActive = active.ID(), true
	}

	groups := make([]Group, 0, len(authorityGroups))
	for _, authorityGroup := range authorityGroups {
		editors := authorityGroup.Editors()
		if len(editors) == 0 {
			continue
		}
		group := Group{
			ID:         authorityGroup.ID(),
			IsActive:   hasActive && authorityGroup.ID() == activeID,
			ViewColumn: authorityGroup.Column(),
			Tabs:       make([]Tab, 0, len(editors)),
		}
		for _, editor := range editors {
			group.Tabs = append(group.Tabs, projectTab(editor, authorityGroup))
		}
		refreshActiveTab(&group)
		groups = append(groups, group)
	}
	return groups
}
