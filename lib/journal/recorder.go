// Copyright 2026 The Tabmirror Authors
// SPDX-License-Identifier: Apache-2.0

package journal

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/tabmirror/tabmirror/lib/clock"
	"github.com/tabmirror/tabmirror/lib/codec"
	"github.com/tabmirror/tabmirror/lib/modelhash"
	"github.com/tabmirror/tabmirror/mirror"
)

// Recorder journals every snapshot handed to it. It implements
// [mirror.Consumer], numbering records itself so the journal is
// self-contained even when the engine restarts its own counters.
//
// The first write failure latches: later snapshots are dropped rather
// than appended after a possibly partial frame, and Err reports what
// went wrong.
type Recorder struct {
	writer *Writer
	clock  clock.Clock
	logger *slog.Logger

	mu       sync.Mutex
	revision uint64
	err      error
}

// NewRecorder returns a Recorder appending to writer, stamping
// records with clk. A nil logger falls back to slog.Default.
func NewRecorder(writer *Writer, clk clock.Clock, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		writer: writer,
		clock:  clk,
		logger: logger,
	}
}

// AcceptModel encodes, digests and appends the snapshot.
func (r *Recorder) AcceptModel(groups []mirror.Group) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return
	}
	r.revision++

	encoded, err := codec.Marshal(groups)
	if err != nil {
		r.fail(fmt.Errorf("encoding snapshot %d: %w", r.revision, err))
		return
	}
	digest := modelhash.HashSnapshot(encoded)

	record := Record{
		Revision: r.revision,
		UnixNano: r.clock.Now().UnixNano(),
		Digest:   digest[:],
		Model:    codec.RawMessage(encoded),
	}
	if err := r.writer.Append(record); err != nil {
		r.fail(fmt.Errorf("appending snapshot %d: %w", r.revision, err))
		return
	}

	r.logger.Debug("snapshot journaled",
		"revision", r.revision,
		"digest", modelhash.FormatShort(digest),
		"groups", len(groups))
}

// Err returns the error that stopped recording, nil while the
// recorder is healthy.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Recorded returns how many snapshots have been appended.
func (r *Recorder) Recorded() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		// The failed revision was counted but not written.
		return r.revision - 1
	}
	return r.revision
}

func (r *Recorder) fail(err error) {
	r.err = err
	r.logger.Error("journal recording stopped", "error", err)
}
