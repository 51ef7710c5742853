// Copyright 2026 The Tabmirror Authors
// SPDX-License-Identifier: Apache-2.0

// Tabmirror-journal inspects snapshot journals written by
// tabmirror-sim. It has two subcommands:
//
//	dump     print every journaled snapshot (text, JSON lines, or
//	         CBOR diagnostic notation)
//	verify   recompute every snapshot digest and check revision
//	         continuity
//
// A journal is self-contained: each record carries the encoded model
// exactly as it was digested, so verification needs nothing but the
// file itself.
package main
