// Copyright 2026 The Tabmirror Authors
// SPDX-License-Identifier: Apache-2.0

package workbench

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/tabmirror/tabmirror/mirror"
)

// changeBufferSize is the capacity of the change channel. Must be
// large enough to absorb a scenario burst while the engine is inside a
// close await.
const changeBufferSize = 256

// Workbench is the in-memory authoritative editor model. The zero
// value is not usable; construct with New.
type Workbench struct {
	logger *slog.Logger

	readyOnce sync.Once
	ready     chan struct{}
	changes   chan mirror.Change
	emitted   atomic.Uint64

	mu       sync.Mutex
	groups   []*PaneGroup
	active   *PaneGroup
	nextID   mirror.GroupID
	overflow bool
}

// New returns an empty workbench: no groups, no editors, readiness not
// yet signalled. A nil logger falls back to slog.Default().
func New(logger *slog.Logger) *Workbench {
	if logger == nil {
		logger = slog.Default()
	}
	return &Workbench{
		logger:  logger,
		ready:   make(chan struct{}),
		changes: make(chan mirror.Change, changeBufferSize),
		nextID:  1,
	}
}

// SignalReady fires the readiness signal. Safe to call more than once;
// only the first call has an effect.
func (w *Workbench) SignalReady() {
	w.readyOnce.Do(func() { close(w.ready) })
}

// Ready implements mirror.Authority.
func (w *Workbench) Ready() <-chan struct{} { return w.ready }

// Changes implements mirror.Authority.
func (w *Workbench) Changes() <-chan mirror.Change { return w.changes }

// ChangesEmitted returns the number of changes queued so far. A driver
// that wants to run an operation only after the previous one has been
// fully mirrored can wait until the engine's revision catches up with
// this count.
func (w *Workbench) ChangesEmitted() uint64 { return w.emitted.Load() }

// Groups implements mirror.Authority. The returned slice includes
// groups that are still empty.
func (w *Workbench) Groups() []mirror.AuthorityGroup {
	w.mu.Lock()
	defer w.mu.Unlock()
	groups := make([]mirror.AuthorityGroup, len(w.groups))
	for i, group := range w.groups {
		groups[i] = group
	}
	return groups
}

// ActiveGroup implements mirror.Authority.
func (w *Workbench) ActiveGroup() (mirror.AuthorityGroup, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.active == nil {
		return nil, false
	}
	return w.active, true
}

// GroupByID implements mirror.Authority.
func (w *Workbench) GroupByID(id mirror.GroupID) (mirror.AuthorityGroup, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, group := range w.groups {
		if group.id == id {
			return group, true
		}
	}
	return nil, false
}

// GroupByColumn implements mirror.Authority.
func (w *Workbench) GroupByColumn(column mirror.ViewColumn) (mirror.AuthorityGroup, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if column < 1 || int(column) > len(w.groups) {
		return nil, false
	}
	return w.groups[column-1], true
}

// CreateGroupRightOfLast implements mirror.Authority. The new group is
// empty and therefore invisible to the mirror until an editor lands in
// it, so no change is queued.
func (w *Workbench) CreateGroupRightOfLast() (mirror.AuthorityGroup, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.appendGroupLocked(), nil
}

// Emit queues a raw change notification, bypassing the workbench's
// own bookkeeping. Scenarios use this to inject malformed or stale
// notifications and watch the consumer fall back to a rebuild.
func (w *Workbench) Emit(change mirror.Change) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.emitLocked(change)
}

// GroupCount reports the number of groups, empty ones included.
func (w *Workbench) GroupCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.groups)
}

// OpenEditor opens the described editor in the group at column and
// focuses it. Column may be one past the current rightmost group,
// which creates a new group there. A nil at appends; otherwise the
// editor is inserted at *at.
func (w *Workbench) OpenEditor(column mirror.ViewColumn, spec EditorSpec, at *int) (mirror.Editor, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if column < 1 || int(column) > len(w.groups)+1 {
		return nil, fmt.Errorf("cannot open %q: column %d outside [1, %d]", spec.Name, column, len(w.groups)+1)
	}
	var group *PaneGroup
	if int(column) == len(w.groups)+1 {
		group = w.appendGroupLocked()
	} else {
		group = w.groups[column-1]
	}

	index := len(group.editors)
	if at != nil {
		if *at < 0 || *at > len(group.editors) {
			return nil, fmt.Errorf("cannot open %q: index %d outside [0, %d]", spec.Name, *at, len(group.editors))
		}
		index = *at
	}

	opened := newEditor(spec)
	group.editors = slices.Insert(group.editors, index, opened)
	group.active = opened
	focusChanged := w.active != group
	w.active = group

	w.emitLocked(mirror.Change{
		Kind:        mirror.ChangeTabOpened,
		Group:       group.id,
		Editor:      opened,
		EditorIndex: mirror.Index(index),
	})
	if focusChanged {
		w.emitLocked(mirror.Change{Kind: mirror.ChangeGroupActivated, Group: group.id})
	}
	return opened, nil
}

// CloseEditorAt closes the editor at index in the group at column.
func (w *Workbench) CloseEditorAt(column mirror.ViewColumn, index int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	group, err := w.groupAtLocked(column)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(group.editors) {
		return fmt.Errorf("cannot close: index %d outside [0, %d)", index, len(group.editors))
	}
	w.closeAtLocked(group, index)
	return nil
}

// ActivateEditorAt focuses the editor at index in the group at column,
// focusing that group as well.
func (w *Workbench) ActivateEditorAt(column mirror.ViewColumn, index int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	group, err := w.groupAtLocked(column)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(group.editors) {
		return fmt.Errorf("cannot activate: index %d outside [0, %d)", index, len(group.editors))
	}

	group.active = group.editors[index]
	if w.active != group {
		w.active = group
		w.emitLocked(mirror.Change{Kind: mirror.ChangeGroupActivated, Group: group.id})
	}
	w.emitLocked(mirror.Change{
		Kind:        mirror.ChangeTabActivated,
		Group:       group.id,
		EditorIndex: mirror.Index(index),
	})
	return nil
}

// ActivateColumn focuses the group at column. Focusing a group with no
// editors is rejected; an empty group never holds focus.
func (w *Workbench) ActivateColumn(column mirror.ViewColumn) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	group, err := w.groupAtLocked(column)
	if err != nil {
		return err
	}
	if len(group.editors) == 0 {
		return fmt.Errorf("cannot activate column %d: group has no editors", column)
	}
	if w.active == group {
		return nil
	}
	w.active = group
	w.emitLocked(mirror.Change{Kind: mirror.ChangeGroupActivated, Group: group.id})
	return nil
}

// RenameEditorAt changes the display name of the editor at index in
// the group at column. The editor object is replaced; its resource
// identity is unchanged.
func (w *Workbench) RenameEditorAt(column mirror.ViewColumn, index int, name string) error {
	if name == "" {
		return fmt.Errorf("cannot rename to an empty name")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	group, err := w.groupAtLocked(column)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(group.editors) {
		return fmt.Errorf("cannot rename: index %d outside [0, %d)", index, len(group.editors))
	}

	renamed := renameEditor(group.editors[index], name)
	if group.active == group.editors[index] {
		group.active = renamed
	}
	group.editors[index] = renamed
	w.emitLocked(mirror.Change{
		Kind:        mirror.ChangeTabRelabeled,
		Group:       group.id,
		Editor:      renamed,
		EditorIndex: mirror.Index(index),
	})
	return nil
}

// MoveEditorTo moves the editor at index in the group at column to
// targetIndex in the group at targetColumn. The target column may be
// one past the rightmost group, which creates a new group there. With
// preserveFocus the currently focused editor and group keep focus;
// without it focus follows the moved editor.
func (w *Workbench) MoveEditorTo(column mirror.ViewColumn, index int, targetColumn mirror.ViewColumn, targetIndex int, preserveFocus bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	source, err := w.groupAtLocked(column)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(source.editors) {
		return fmt.Errorf("cannot move: index %d outside [0, %d)", index, len(source.editors))
	}

	var target *PaneGroup
	if int(targetColumn) == len(w.groups)+1 {
		target = w.appendGroupLocked()
	} else {
		target, err = w.groupAtLocked(targetColumn)
		if err != nil {
			return err
		}
	}
	return w.moveEditorLocked(source, target, source.editors[index], targetIndex, preserveFocus)
}

// appendGroupLocked creates a new rightmost group.
func (w *Workbench) appendGroupLocked() *PaneGroup {
	group := &PaneGroup{bench: w, id: w.nextID}
	w.nextID++
	w.groups = append(w.groups, group)
	return group
}

func (w *Workbench) groupAtLocked(column mirror.ViewColumn) (*PaneGroup, error) {
	if column < 1 || int(column) > len(w.groups) {
		return nil, fmt.Errorf("no group at column %d", column)
	}
	return w.groups[column-1], nil
}

func (w *Workbench) positionLocked(group *PaneGroup) int {
	return slices.Index(w.groups, group)
}

// closeAtLocked removes the editor at index from the group, queuing
// the changes that describe the removal. A group left empty is removed
// from the layout.
func (w *Workbench) closeAtLocked(group *PaneGroup, index int) {
	closed := group.editors[index]
	wasActive := group.active == closed
	group.editors = slices.Delete(group.editors, index, index+1)

	if len(group.editors) == 0 {
		newActive, renumbered := w.detachGroupLocked(group)
		if renumbered {
			w.emitLocked(mirror.Change{Kind: mirror.ChangeUnknown, Group: group.id})
			return
		}
		// The activation goes out first so the mirror never shows
		// groups with no focus holder between the two changes.
		if newActive != nil {
			w.emitLocked(mirror.Change{Kind: mirror.ChangeGroupActivated, Group: newActive.id})
		}
		w.emitLocked(mirror.Change{
			Kind:        mirror.ChangeTabClosed,
			Group:       group.id,
			EditorIndex: mirror.Index(0),
		})
		return
	}

	w.emitLocked(mirror.Change{
		Kind:        mirror.ChangeTabClosed,
		Group:       group.id,
		EditorIndex: mirror.Index(index),
	})
	if wasActive {
		successor := min(index, len(group.editors)-1)
		group.active = group.editors[successor]
		w.emitLocked(mirror.Change{
			Kind:        mirror.ChangeTabActivated,
			Group:       group.id,
			EditorIndex: mirror.Index(successor),
		})
	}
}

// detachGroupLocked removes an emptied group from the layout and
// reassigns workbench focus if the group held it. It returns the new
// focus holder (nil when focus did not move or nothing is left to
// focus) and whether the removal shifted the columns of groups after
// it. A shift renumbers every later group at once, which no precise
// change kind expresses; callers must queue an unknown change in that
// case.
func (w *Workbench) detachGroupLocked(group *PaneGroup) (newActive *PaneGroup, renumbered bool) {
	position := w.positionLocked(group)
	if position < 0 {
		return nil, false
	}
	group.active = nil
	w.groups = slices.Delete(w.groups, position, position+1)
	renumbered = position < len(w.groups)
	if w.active == group {
		w.active = w.successorLocked(position)
		newActive = w.active
	}
	return newActive, renumbered
}

// successorLocked picks the group to focus after a removal at
// position: the nearest non-empty group, looking right first. Nil when
// no group holds an editor.
func (w *Workbench) successorLocked(position int) *PaneGroup {
	for i := position; i < len(w.groups); i++ {
		if len(w.groups[i].editors) > 0 {
			return w.groups[i]
		}
	}
	for i := min(position, len(w.groups)-1); i >= 0; i-- {
		if len(w.groups[i].editors) > 0 {
			return w.groups[i]
		}
	}
	return nil
}

// moveEditorLocked moves an editor between groups, or within one. An
// editor no longer present in the source group counts as already
// moved.
//
// The queued changes are ordered so that applying them one at a time
// never shows the mirror an impossible state: an open lands before the
// close that would orphan focus, and a focus change lands before the
// group it leaves disappears.
func (w *Workbench) moveEditorLocked(source, target *PaneGroup, moved mirror.Editor, index int, preserveFocus bool) error {
	from := slices.Index(source.editors, moved)
	if from < 0 {
		return nil
	}

	wasSourceActive := source.active == moved
	source.editors = slices.Delete(source.editors, from, from+1)

	if index < 0 {
		index = 0
	}
	if index > len(target.editors) {
		index = len(target.editors)
	}
	target.editors = slices.Insert(target.editors, index, moved)

	targetWasEmpty := source != target && len(target.editors) == 1
	if !preserveFocus || targetWasEmpty {
		target.active = moved
	}
	focusChanged := !preserveFocus && w.active != target
	if !preserveFocus {
		w.active = target
	}

	if source == target {
		// Reordering within one group shifts every tab between the two
		// positions at once, which no precise change kind expresses.
		w.emitLocked(mirror.Change{Kind: mirror.ChangeUnknown, Group: target.id})
		return nil
	}

	if len(source.editors) == 0 {
		newActive, renumbered := w.detachGroupLocked(source)
		if renumbered {
			w.emitLocked(mirror.Change{Kind: mirror.ChangeUnknown, Group: source.id})
			return nil
		}
		w.emitLocked(mirror.Change{
			Kind:        mirror.ChangeTabOpened,
			Group:       target.id,
			Editor:      moved,
			EditorIndex: mirror.Index(index),
		})
		switch {
		case focusChanged:
			w.emitLocked(mirror.Change{Kind: mirror.ChangeGroupActivated, Group: target.id})
		case newActive != nil:
			w.emitLocked(mirror.Change{Kind: mirror.ChangeGroupActivated, Group: newActive.id})
		}
		w.emitLocked(mirror.Change{
			Kind:        mirror.ChangeTabClosed,
			Group:       source.id,
			EditorIndex: mirror.Index(0),
		})
		return nil
	}

	w.emitLocked(mirror.Change{
		Kind:        mirror.ChangeTabClosed,
		Group:       source.id,
		EditorIndex: mirror.Index(from),
	})
	if wasSourceActive {
		successor := min(from, len(source.editors)-1)
		source.active = source.editors[successor]
		w.emitLocked(mirror.Change{
			Kind:        mirror.ChangeTabActivated,
			Group:       source.id,
			EditorIndex: mirror.Index(successor),
		})
	}
	w.emitLocked(mirror.Change{
		Kind:        mirror.ChangeTabOpened,
		Group:       target.id,
		Editor:      moved,
		EditorIndex: mirror.Index(index),
	})
	if focusChanged {
		w.emitLocked(mirror.Change{Kind: mirror.ChangeGroupActivated, Group: target.id})
	}
	return nil
}

// emitLocked queues one change for the consumer without blocking. Once
// the buffer has overflowed, every further change collapses into the
// unspecified kind: a precise change queued behind a gap could be
// applied on top of a rebuild that already covered its effect, so from
// that point on the consumer is only ever told to rebuild.
func (w *Workbench) emitLocked(change mirror.Change) {
	if w.overflow {
		select {
		case w.changes <- mirror.Change{Kind: mirror.ChangeUnknown}:
			w.emitted.Add(1)
		default:
		}
		return
	}
	select {
	case w.changes <- change:
		w.emitted.Add(1)
	default:
		w.overflow = true
		w.logger.Warn("change buffer full, degrading to rebuild notifications",
			"kind", change.Kind.String(),
			"group_id", int(change.Group),
		)
	}
}
