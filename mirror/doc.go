// Copyright 2026 The Tabmirror Authors
// SPDX-License-Identifier: Apache-2.0

// Package mirror maintains a local mirror of an authoritative editor
// model: the open editor tabs, grouped into columns, with focus state.
//
// The authoritative model lives elsewhere — behind the [Authority]
// interface — and announces mutations as [Change] notifications. The
// engine keeps a [Store] consistent with it and pushes a full snapshot
// of the mirrored group sequence to a [Consumer] after every
// reconciliation step.
//
// Data flows through five parts:
//
//   - Store (store.go): the ordered mirrored [Group] records plus
//     identity lookup. All mutation goes through its methods so the
//     structural invariants hold after every operation.
//   - Snapshot builder (builder.go): projects the authority's entire
//     state into a fresh group sequence. Runs once at startup and on
//     every fallback.
//   - Reconciler (reconcile.go): applies one notification at a time
//     through an explicit per-kind dispatch. Anything it cannot apply
//     safely routes to a full rebuild.
//   - Resolver (resolver.go): executes MoveTab and CloseTab commands
//     by re-resolving tab descriptors back to live authoritative
//     editors. It never holds editor references between commands.
//   - Engine (engine.go): the single goroutine that owns the Store,
//     serializes notifications and commands, and notifies the
//     consumer exactly once per applied change.
//
// The incremental path is an optimization, not a requirement: whenever
// a notification is unknown, incomplete, or inconsistent with the
// mirror, the reconciler discards it and rebuilds from the authority.
// Falling back is cheap and always safe.
package mirror
