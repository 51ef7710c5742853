// Copyright 2026 The Tabmirror Authors
// SPDX-License-Identifier: Apache-2.0

// Tabmirror-sim runs a scripted editing session against an in-process
// workbench and mirrors it through the reconciliation engine. It is
// the reference harness for exercising the mirror end to end: the
// scenario file drives workbench mutations and mirror-side commands,
// the engine keeps the mirrored model in step, and the final model is
// printed when the scenario completes.
//
// Data flow:
//
//	scenario file -> runner -> workbench -> change notifications -> engine -> snapshots -> runner (+ journal)
//
// Reverse steps (move_tab, close_tab) flow the other way: the runner
// resolves them against the latest mirrored snapshot and submits them
// to the engine, which applies them to the workbench.
//
// Configuration comes from the file named by --config or the
// TABMIRROR_CONFIG environment variable; with neither set the
// defaults apply. When journaling is enabled every snapshot the
// engine publishes is appended to a journal file that
// tabmirror-journal can dump and verify.
package main
