// Copyright 2026 The Tabmirror Authors
// SPDX-License-Identifier: Apache-2.0

package mirror

import "slices"

// Store holds the mirrored group sequence: Group records in the
// authority's natural order plus an identity lookup. All mutation goes
// through its methods, and every method leaves the structural
// invariants intact: group order matches insertion order, at most one
// group is active, at most one tab per group is active, ActiveTab
// mirrors the flagged tab, and no empty group survives a tab removal.
//
// The Store is not synchronized. The engine confines it to its loop
// goroutine; everyone else sees deep copies via [Store.Snapshot].
type Store struct {
	groups []*Group
	byID   map[GroupID]*Group
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{byID: make(map[GroupID]*Group)}
}

// Len returns the number of mirrored groups.
func (s *Store) Len() int { return len(s.groups) }

// Contains reports whether the store tracks a group with this ID.
func (s *Store) Contains(id GroupID) bool {
	_, ok := s.byID[id]
	return ok
}

// TabCount returns the number of tabs mirrored for the identified
// group, zero when the group is unknown.
func (s *Store) TabCount(id GroupID) int {
	group, ok := s.byID[id]
	if !ok {
		return 0
	}
	return len(group.Tabs)
}

// GroupByID returns a copy of the identified group.
func (s *Store) GroupByID(id GroupID) (Group, bool) {
	group, ok := s.byID[id]
	if !ok {
		return Group{}, false
	}
	return group.Clone(), true
}

// Snapshot returns a deep copy of the entire group sequence. The
// caller owns the result.
func (s *Store) Snapshot() []Group {
	groups := make([]Group, len(s.groups))
	for i, group := range s.groups {
		groups[i] = group.Clone()
	}
	return groups
}

// Replace discards the current contents and installs the given
// sequence wholesale. The store takes ownership of groups.
func (s *Store) Replace(groups []Group) {
	s.groups = make([]*Group, len(groups))
	s.byID = make(map[GroupID]*Group, len(groups))
	for i := range groups {
		group := &groups[i]
		refreshActiveTab(group)
		s.groups[i] = group
		s.byID[group.ID] = group
	}
}

// InsertGroup inserts a group record at the given position in the
// sequence, clamping the position to the valid range. The store takes
// ownership of group. Returns false when a group with the same ID
// already exists.
func (s *Store) InsertGroup(position int, group Group) bool {
	if _, exists := s.byID[group.ID]; exists {
		return false
	}
	if position < 0 {
		position = 0
	}
	if position > len(s.groups) {
		position = len(s.groups)
	}
	if group.IsActive {
		s.deactivateGroups()
	}
	refreshActiveTab(&group)
	s.groups = slices.Insert(s.groups, position, &group)
	s.byID[group.ID] = &group
	return true
}

// ActivateGroup marks the identified group active and every other
// group inactive. Returns false when the group is unknown.
func (s *Store) ActivateGroup(id GroupID) bool {
	target, ok := s.byID[id]
	if !ok {
		return false
	}
	s.deactivateGroups()
	target.IsActive = true
	return true
}

// InsertTab inserts a tab at the given index of the identified group.
// An active incoming tab deactivates its new siblings. Returns false
// when the group is unknown or the index is out of range.
func (s *Store) InsertTab(id GroupID, index int, tab Tab) bool {
	group, ok := s.byID[id]
	if !ok || index < 0 || index > len(group.Tabs) {
		return false
	}
	if tab.IsActive {
		for i := range group.Tabs {
			group.Tabs[i].IsActive = false
		}
	}
	group.Tabs = slices.Insert(group.Tabs, index, tab)
	refreshActiveTab(group)
	return true
}

// RemoveTab removes the tab at the given index of the identified
// group. When the last tab goes, the group record goes with it;
// groupRemoved reports that. Returns ok false when the group is
// unknown or the index is out of range.
func (s *Store) RemoveTab(id GroupID, index int) (groupRemoved, ok bool) {
	group, found := s.byID[id]
	if !found || index < 0 || index >= len(group.Tabs) {
		return false, false
	}
	group.Tabs = slices.Delete(group.Tabs, index, index+1)
	if len(group.Tabs) == 0 {
		s.removeGroup(id)
		return true, true
	}
	refreshActiveTab(group)
	return false, true
}

// SetTabLabel overwrites the label of the tab at the given index of
// the identified group. Returns false when the group is unknown or the
// index is out of range.
func (s *Store) SetTabLabel(id GroupID, index int, label string) bool {
	group, ok := s.byID[id]
	if !ok || index < 0 || index >= len(group.Tabs) {
		return false
	}
	group.Tabs[index].Label = label
	refreshActiveTab(group)
	return true
}

// ActivateTab marks the tab at the given index of the identified group
// active and its siblings inactive. Returns false when the group is
// unknown or the index is out of range.
func (s *Store) ActivateTab(id GroupID, index int) bool {
	group, ok := s.byID[id]
	if !ok || index < 0 || index >= len(group.Tabs) {
		return false
	}
	for i := range group.Tabs {
		group.Tabs[i].IsActive = i == index
	}
	refreshActiveTab(group)
	return true
}

func (s *Store) deactivateGroups() {
	for _, group := range s.groups {
		group.IsActive = false
	}
}

func (s *Store) removeGroup(id GroupID) {
	delete(s.byID, id)
	s.groups = slices.DeleteFunc(s.groups, func(g *Group) bool {
		return g.ID == id
	})
}
