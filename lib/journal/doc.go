// Copyright 2026 The Tabmirror Authors
// SPDX-License-Identifier: Apache-2.0

// Package journal persists the stream of mirror snapshots to an
// append-only file, one record per snapshot revision.
//
// A journal file starts with an 8-byte magic string and continues
// with length-prefixed frames. Each frame holds one CBOR-encoded
// [Record]: the revision number, the wall-clock capture time, the
// snapshot digest, and the encoded snapshot itself. The snapshot
// bytes inside a record are the exact bytes that were digested, so a
// reader can re-verify every record without re-encoding anything.
//
// Frames are optionally compressed per record. The writer is
// configured with a preferred [CompressionTag]; records that do not
// shrink under it are stored raw, and the frame header records which
// encoding was actually used, so files mixing compressed and raw
// frames read back transparently.
//
// [Recorder] adapts a [Writer] to the mirror's consumer interface:
// attached to an engine it journals every published snapshot, which
// is how a simulation run becomes a replayable, verifiable artifact.
package journal
