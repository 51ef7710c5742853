// Copyright 2026 The Tabmirror Authors
// SPDX-License-Identifier: Apache-2.0

package mirror

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
)

var errStopped = errors.New("engine stopped")

// EngineConfig carries the engine's collaborators.
type EngineConfig struct {
	// Authority is the authoritative editor model to mirror.
	// Required.
	Authority Authority

	// Consumer receives a full snapshot after every reconciliation
	// step. Required.
	Consumer Consumer

	// Logger receives structured engine logs. Nil falls back to
	// slog.Default().
	Logger *slog.Logger
}

// Engine owns the Store and runs the single goroutine that applies
// change notifications and commands. Nothing else ever touches the
// store: notifications and commands are serialized through [Engine.Run],
// each handled to completion — including the consumer notification —
// before the next is taken.
type Engine struct {
	authority  Authority
	consumer   Consumer
	store      *Store
	reconciler *Reconciler
	resolver   *Resolver
	logger     *slog.Logger

	commands chan func()
	done     chan struct{}

	revision    atomic.Uint64
	incremental atomic.Uint64
	rebuilds    atomic.Uint64
	commandsRun atomic.Uint64
}

// Stats is a point-in-time summary of engine activity.
type Stats struct {
	// Revision counts snapshots delivered to the consumer.
	Revision uint64 `json:"revision"`

	// Incremental counts changes applied without a rebuild.
	Incremental uint64 `json:"incremental"`

	// Rebuilds counts full rebuilds, the initial build included.
	Rebuilds uint64 `json:"rebuilds"`

	// Commands counts executed MoveTab and CloseTab commands.
	Commands uint64 `json:"commands"`
}

// New validates the config and returns an engine. The engine does
// nothing until [Engine.Run] is called.
func New(config EngineConfig) (*Engine, error) {
	if config.Authority == nil {
		return nil, errors.New("engine config missing authority")
	}
	if config.Consumer == nil {
		return nil, errors.New("engine config missing consumer")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	store := NewStore()
	return &Engine{
		authority:  config.Authority,
		consumer:   config.Consumer,
		store:      store,
		reconciler: NewReconciler(store, config.Authority, logger),
		resolver:   NewResolver(config.Authority, logger),
		logger:     logger,
		commands:   make(chan func()),
		done:       make(chan struct{}),
	}, nil
}

// Run drives the engine: wait for the authority's readiness signal,
// build the initial mirror, then apply notifications and commands one
// at a time until ctx is cancelled or the change channel closes. Run
// must be called exactly once.
//
// The only suspension point inside the loop is awaiting editor-close
// completion during a CloseTab command. While that await is pending,
// further notifications queue on the change channel unharmed; the
// store is not mutated until the await resumes.
func (e *Engine) Run(ctx context.Context) error {
	defer close(e.done)

	select {
	case <-e.authority.Ready():
	case <-ctx.Done():
		return ctx.Err()
	}

	e.reconciler.Rebuild()
	e.rebuilds.Add(1)
	e.notify()
	e.logger.Info("mirror initialized",
		"groups", e.store.Len(), "revision", e.revision.Load())

	changes := e.authority.Changes()
	for {
		select {
		case change, ok := <-changes:
			if !ok {
				return errors.New("authority change channel closed")
			}
			e.handleChange(change)
		case command := <-e.commands:
			command()
			e.commandsRun.Add(1)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// MoveTab asks the engine loop to move the editor described by tab to
// targetIndex in the group at targetColumn, and waits until the loop
// has run the move. A descriptor that no longer resolves is a silent
// no-op; the returned error covers submission and cancellation only.
func (e *Engine) MoveTab(ctx context.Context, tab Tab, targetIndex int, targetColumn ViewColumn) error {
	done := make(chan struct{})
	if err := e.submit(ctx, func() {
		defer close(done)
		e.resolver.MoveTab(tab, targetIndex, targetColumn)
	}); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CloseTab asks the engine loop to close the editor described by tab
// and waits for the close to complete. An unresolvable descriptor is a
// silent no-op; the authority's own close failure is propagated.
func (e *Engine) CloseTab(ctx context.Context, tab Tab) error {
	result := make(chan error, 1)
	if err := e.submit(ctx, func() {
		result <- e.resolver.CloseTab(ctx, tab)
	}); err != nil {
		return err
	}
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns a snapshot of the engine's activity counters. Safe to
// call from any goroutine.
func (e *Engine) Stats() Stats {
	return Stats{
		Revision:    e.revision.Load(),
		Incremental: e.incremental.Load(),
		Rebuilds:    e.rebuilds.Load(),
		Commands:    e.commandsRun.Load(),
	}
}

func (e *Engine) handleChange(change Change) {
	if e.reconciler.Apply(change) {
		e.incremental.Add(1)
	} else {
		e.rebuilds.Add(1)
	}
	e.notify()
	e.logger.Debug("change applied",
		"kind", change.Kind.String(),
		"group_id", int(change.Group),
		"revision", e.revision.Load(),
	)
}

// notify pushes a deep copy of the current model to the consumer.
// Exactly one call per reconciliation step.
func (e *Engine) notify() {
	e.revision.Add(1)
	e.consumer.AcceptModel(e.store.Snapshot())
}

// submit enqueues a command for the loop. Commands submitted before
// Run starts wait until the loop begins accepting them, after the
// initial build.
func (e *Engine) submit(ctx context.Context, command func()) error {
	select {
	case e.commands <- command:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-e.done:
		return errStopped
	}
}
