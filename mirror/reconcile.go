// Copyright 2026 The Tabmirror Authors
// SPDX-License-Identifier: Apache-2.0

package mirror

import "log/slog"

// Reconciler applies change notifications to the Store. Each kind has
// its own guarded branch that verifies the change against the
// authority's current state before touching the store; a notification
// that is unknown, incomplete, stale, or inconsistent with either side
// routes to a full rebuild instead of a speculative partial
// application. Rebuilding on a notification the store has outrun also
// makes delayed processing safe: a change whose effect a rebuild
// already captured fails its guard instead of being applied twice.
type Reconciler struct {
	store     *Store
	authority Authority
	logger    *slog.Logger
}

// NewReconciler returns a reconciler over the given store and
// authority. A nil logger falls back to slog.Default().
func NewReconciler(store *Store, authority Authority, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{store: store, authority: authority, logger: logger}
}

// Apply applies one change notification and reports whether the
// incremental path was taken. Either way the store is consistent with
// the authority when Apply returns.
func (r *Reconciler) Apply(change Change) bool {
	if r.applyIncremental(change) {
		return true
	}
	if change.Kind == ChangeUnknown {
		r.logger.Debug("authority reported an unspecified change, rebuilding mirror",
			"group_id", int(change.Group))
	} else {
		r.logger.Warn("change not incrementally applicable, rebuilding mirror",
			"kind", change.Kind.String(),
			"group_id", int(change.Group))
	}
	r.Rebuild()
	return false
}

// Rebuild replaces the store contents with a fresh projection of the
// authority's entire state.
func (r *Reconciler) Rebuild() {
	r.store.Replace(buildModel(r.authority))
}

// applyIncremental dispatches on the change kind. Every branch checks
// its own required fields; a field is present when its pointer is
// non-nil, so index zero is as valid as any other index. Unknown kinds
// fall out of the switch and force the rebuild.
func (r *Reconciler) applyIncremental(change Change) bool {
	switch change.Kind {
	case ChangeGroupActivated:
		return r.applyGroupActivated(change)
	case ChangeTabRelabeled:
		return r.applyTabRelabeled(change)
	case ChangeTabOpened:
		return r.applyTabOpened(change)
	case ChangeTabClosed:
		return r.applyTabClosed(change)
	case ChangeTabActivated:
		return r.applyTabActivated(change)
	default:
		return false
	}
}

// applyGroupActivated marks the changed group active when the
// authority agrees it holds focus. An activation for any other group
// is stale; applying nothing keeps the mirror consistent, so it still
// counts as incrementally handled.
func (r *Reconciler) applyGroupActivated(change Change) bool {
	active, ok := r.authority.ActiveGroup()
	if !ok || active.ID() != change.Group {
		return true
	}
	return r.store.ActivateGroup(change.Group)
}

// applyTabRelabeled overwrites one tab label. The editor reference
// must still sit at the changed index in the authority, otherwise the
// notification is stale and cannot be trusted.
func (r *Reconciler) applyTabRelabeled(change Change) bool {
	if change.Editor == nil || change.EditorIndex == nil {
		return false
	}
	authorityGroup, ok := r.authority.GroupByID(change.Group)
	if !ok {
		return false
	}
	editors := authorityGroup.Editors()
	index := *change.EditorIndex
	if index < 0 || index >= len(editors) || editors[index] != change.Editor {
		return false
	}
	return r.store.SetTabLabel(change.Group, index, change.Editor.Name())
}

// applyTabOpened projects the opened editor and inserts it. The editor
// must sit at the changed index in the authority, and the insertion
// must bring the mirrored tab count up to the authority's editor
// count; anything else means the mirror and the notification disagree
// about the state this change applies to. A group the store has never
// seen gets its record created first, with column and sequence
// position taken from the authority.
func (r *Reconciler) applyTabOpened(change Change) bool {
	if change.Editor == nil || change.EditorIndex == nil {
		return false
	}
	authorityGroup, ok := r.authority.GroupByID(change.Group)
	if !ok {
		return false
	}
	editors := authorityGroup.Editors()
	index := *change.EditorIndex
	if index < 0 || index >= len(editors) || editors[index] != change.Editor {
		return false
	}
	if r.store.TabCount(change.Group)+1 != len(editors) {
		return false
	}
	if !r.store.Contains(change.Group) {
		active, hasActive := r.authority.ActiveGroup()
		r.store.InsertGroup(r.sequencePositionFor(change.Group), Group{
			ID:         change.Group,
			IsActive:   hasActive && active.ID() == change.Group,
			ViewColumn: authorityGroup.Column(),
		})
	}
	tab := projectTab(change.Editor, authorityGroup)
	return r.store.InsertTab(change.Group, index, tab)
}

// applyTabClosed removes one tab. The removal must bring the mirrored
// tab count down to the authority's: either the group survives with
// one editor less, or the close emptied it and the authority no longer
// knows it at all.
func (r *Reconciler) applyTabClosed(change Change) bool {
	if change.EditorIndex == nil {
		return false
	}
	count := r.store.TabCount(change.Group)
	if authorityGroup, ok := r.authority.GroupByID(change.Group); ok {
		if count-1 != len(authorityGroup.Editors()) {
			return false
		}
	} else if count != 1 {
		return false
	}
	_, ok := r.store.RemoveTab(change.Group, *change.EditorIndex)
	return ok
}

// applyTabActivated flags one tab active. The authority's current
// active editor for the group must be the editor at the changed index;
// a mismatch means the activation has been superseded.
func (r *Reconciler) applyTabActivated(change Change) bool {
	if change.EditorIndex == nil {
		return false
	}
	authorityGroup, ok := r.authority.GroupByID(change.Group)
	if !ok {
		return false
	}
	editors := authorityGroup.Editors()
	index := *change.EditorIndex
	if index < 0 || index >= len(editors) {
		return false
	}
	if active, ok := authorityGroup.ActiveEditor(); !ok || active != editors[index] {
		return false
	}
	return r.store.ActivateTab(change.Group, index)
}

// sequencePositionFor computes where a newly-mirrored group belongs in
// the store order: the number of authoritative groups ahead of it that
// the store already tracks. This keeps store order congruent with the
// authority's natural order without renumbering anything.
func (r *Reconciler) sequencePositionFor(id GroupID) int {
	position := 0
	for _, authorityGroup := range r.authority.Groups() {
		if authorityGroup.ID() == id {
			break
		}
		if r.store.Contains(authorityGroup.ID()) {
			position++
		}
	}
	return position
}
