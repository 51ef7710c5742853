// Copyright 2026 The Tabmirror Authors
// SPDX-License-Identifier: Apache-2.0

package mirror

import (
	"context"
	"fmt"
	"log/slog"
)

// Resolver executes mirror-side commands against the authority. It
// holds no references to live editors between commands: every command
// re-resolves its target from the tab descriptor it was handed, so a
// descriptor that has gone stale simply stops resolving instead of
// acting on the wrong editor.
type Resolver struct {
	authority Authority
	logger    *slog.Logger
}

// NewResolver returns a resolver over the given authority. A nil
// logger falls back to slog.Default().
func NewResolver(authority Authority, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{authority: authority, logger: logger}
}

// MoveTab moves the editor described by tab to targetIndex in the
// group at targetColumn. When no group exists at that column, the
// authority creates one to the right of the last group. The index is
// clamped to the target's tab count, and the move never steals focus.
// A descriptor that does not resolve to a live editor is a silent
// no-op. The source group is resolved before any target group is
// created, so an unresolvable source never leaves an empty group
// behind.
func (r *Resolver) MoveTab(tab Tab, targetIndex int, targetColumn ViewColumn) {
	source, ok := r.authority.GroupByColumn(tab.ViewColumn)
	if !ok {
		r.logger.Debug("move dropped: source group does not resolve",
			"label", tab.Label, "view_column", int(tab.ViewColumn))
		return
	}

	target, ok := r.authority.GroupByColumn(targetColumn)
	if !ok {
		created, err := r.authority.CreateGroupRightOfLast()
		if err != nil {
			r.logger.Debug("move dropped: cannot create target group",
				"target_column", int(targetColumn), "error", err)
			return
		}
		target = created
	}

	index := targetIndex
	if count := len(target.Editors()); index > count {
		index = count
	}
	if index < 0 {
		index = 0
	}

	match, ok := matchForTab(tab)
	if !ok {
		r.logger.Debug("move dropped: descriptor is not resolvable",
			"label", tab.Label, "editor_kind", string(tab.EditorKind))
		return
	}
	editor, ok := source.FindEditor(match)
	if !ok {
		r.logger.Debug("move dropped: no editor matches descriptor",
			"label", tab.Label, "view_column", int(tab.ViewColumn))
		return
	}
	if err := source.MoveEditor(editor, target, index, true); err != nil {
		r.logger.Debug("move dropped: authority rejected move",
			"label", tab.Label, "error", err)
	}
}

// CloseTab closes the editor described by tab and waits for the
// authority to finish. An unresolvable descriptor is a silent no-op;
// the only returned failure is the authority's own close error.
func (r *Resolver) CloseTab(ctx context.Context, tab Tab) error {
	group, editor, ok := r.findEditor(tab)
	if !ok {
		r.logger.Debug("close dropped: descriptor does not resolve",
			"label", tab.Label, "view_column", int(tab.ViewColumn))
		return nil
	}
	if err := group.CloseEditor(ctx, editor); err != nil {
		return fmt.Errorf("close editor %q: %w", tab.Label, err)
	}
	return nil
}

// findEditor resolves a tab descriptor to the live editor it
// describes: the group comes from the descriptor's column, the editor
// from reverse resolution within that group.
func (r *Resolver) findEditor(tab Tab) (AuthorityGroup, Editor, bool) {
	group, ok := r.authority.GroupByColumn(tab.ViewColumn)
	if !ok {
		return nil, nil, false
	}
	match, ok := matchForTab(tab)
	if !ok {
		return nil, nil, false
	}
	editor, ok := group.FindEditor(match)
	if !ok {
		return nil, nil, false
	}
	return group, editor, true
}

// matchForTab rebuilds the abstract editor description for reverse
// resolution. Composite tabs need both of their recorded resources; a
// descriptor missing them cannot be resolved. Diff descriptors carry
// the fixed text-diff kind on both sides — the projection recorded the
// original side under that kind, and the modified side must resolve
// under the same editor family.
func matchForTab(tab Tab) (EditorMatch, bool) {
	switch tab.EditorKind {
	case KindSideBySide:
		if len(tab.Resources) < 2 {
			return EditorMatch{}, false
		}
		return EditorMatch{
			Kind:      MatchSideBySide,
			Primary:   ResourceInput{Resource: tab.Resources[0].Resource, Kind: tab.Resources[0].Kind},
			Secondary: ResourceInput{Resource: tab.Resources[1].Resource, Kind: tab.Resources[1].Kind},
		}, true
	case KindDiff:
		if len(tab.Resources) < 2 {
			return EditorMatch{}, false
		}
		return EditorMatch{
			Kind:     MatchDiff,
			Modified: ResourceInput{Resource: tab.Resources[0].Resource, Kind: KindTextDiff},
			Original: ResourceInput{Resource: tab.Resources[1].Resource, Kind: KindTextDiff},
		}, true
	default:
		return EditorMatch{
			Kind:   MatchSingle,
			Single: ResourceInput{Resource: tab.Resource, Kind: tab.EditorKind},
		}, true
	}
}
