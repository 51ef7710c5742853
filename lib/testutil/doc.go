// Copyright 2026 The Tabmirror Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for Tabmirror
// packages.
//
// [RequireReceive], [RequireSend], and [RequireClosed] encapsulate the
// timeout safety valve pattern (select with time.After fallback) so
// that individual tests do not need direct time.After calls. Engine
// tests lean on them heavily: snapshots arrive on consumer channels,
// and a missing snapshot should fail the test with a message instead
// of hanging it.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no Tabmirror-internal dependencies.
package testutil
