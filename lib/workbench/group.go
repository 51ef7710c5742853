// Copyright 2026 The Tabmirror Authors
// SPDX-License-Identifier: Apache-2.0

package workbench

import (
	"context"
	"fmt"
	"slices"

	"github.com/tabmirror/tabmirror/mirror"
)

// PaneGroup is one group of editors. Its view column is its current
// position in the workbench group order; moving or removing groups
// shifts the columns of everything to their right.
type PaneGroup struct {
	bench   *Workbench
	id      mirror.GroupID
	editors []mirror.Editor
	active  mirror.Editor
}

func (g *PaneGroup) ID() mirror.GroupID { return g.id }

// Column derives the group's 1-based view column from its position.
// A group that has been removed from the workbench reports column 0.
func (g *PaneGroup) Column() mirror.ViewColumn {
	g.bench.mu.Lock()
	defer g.bench.mu.Unlock()
	return g.columnLocked()
}

func (g *PaneGroup) columnLocked() mirror.ViewColumn {
	for i, group := range g.bench.groups {
		if group == g {
			return mirror.ViewColumn(i + 1)
		}
	}
	return 0
}

func (g *PaneGroup) Editors() []mirror.Editor {
	g.bench.mu.Lock()
	defer g.bench.mu.Unlock()
	return slices.Clone(g.editors)
}

func (g *PaneGroup) ActiveEditor() (mirror.Editor, bool) {
	g.bench.mu.Lock()
	defer g.bench.mu.Unlock()
	if g.active == nil {
		return nil, false
	}
	return g.active, true
}

func (g *PaneGroup) FindEditor(match mirror.EditorMatch) (mirror.Editor, bool) {
	g.bench.mu.Lock()
	defer g.bench.mu.Unlock()
	for _, candidate := range g.editors {
		if matches(candidate, match) {
			return candidate, true
		}
	}
	return nil, false
}

// MoveEditor moves an editor from this group into target at the given
// index. With preserveFocus the active editor and active group keep
// their focus; without it the moved editor and the target group take
// it. An editor that is no longer in this group is a no-op.
func (g *PaneGroup) MoveEditor(moved mirror.Editor, target mirror.AuthorityGroup, index int, preserveFocus bool) error {
	targetGroup, ok := target.(*PaneGroup)
	if !ok {
		return fmt.Errorf("move target is not a workbench group")
	}
	if targetGroup.bench != g.bench {
		return fmt.Errorf("move target belongs to a different workbench")
	}

	g.bench.mu.Lock()
	defer g.bench.mu.Unlock()
	return g.bench.moveEditorLocked(g, targetGroup, moved, index, preserveFocus)
}

// CloseEditor closes an editor in this group. An editor that is no
// longer present counts as already closed. The close completes
// synchronously; ctx only matters for callers that gave up before the
// call was made.
func (g *PaneGroup) CloseEditor(ctx context.Context, closed mirror.Editor) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.bench.mu.Lock()
	defer g.bench.mu.Unlock()
	index := slices.Index(g.editors, closed)
	if index < 0 {
		return nil
	}
	g.bench.closeAtLocked(g, index)
	return nil
}
