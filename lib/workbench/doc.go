// Copyright 2026 The Tabmirror Authors
// SPDX-License-Identifier: Apache-2.0

// Package workbench is an in-memory authoritative editor model: pane
// groups laid out in 1-based view columns, each holding an ordered list
// of open editors. It implements mirror.Authority, so a mirror engine
// can reconcile against it exactly as it would against a real editor
// host.
//
// Every mutating operation queues change notifications for the
// consumer of Changes, ordered so that applying them one at a time
// keeps the consumer's model structurally sound at every step.
// Operations whose effect has no precise change kind (removing a group
// that shifts later columns, reordering editors within one group)
// queue a single unknown change instead, telling the consumer to
// rebuild. Sends never block: when the buffer is full the change is
// dropped and every later notification collapses into the unknown
// change, since a precise change delivered after a gap could describe
// state the consumer's rebuild has already covered.
//
// View columns are derived from group order, never stored: the group at
// position i is column i+1. Closing the last editor of a group removes
// the group and shifts every group to its right one column left.
//
// All methods are safe for concurrent use. Readers that interleave
// with operations may observe intermediate states; a consumer that
// drains Changes converges on the final state, except that a change
// dropped on overflow is only covered once a later operation queues
// the unknown change.
package workbench
