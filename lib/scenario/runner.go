// Copyright 2026 The Tabmirror Authors
// SPDX-License-Identifier: Apache-2.0

package scenario

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tabmirror/tabmirror/lib/clock"
	"github.com/tabmirror/tabmirror/lib/workbench"
	"github.com/tabmirror/tabmirror/mirror"
)

// RunnerConfig carries the dependencies of a Runner.
type RunnerConfig struct {
	// Workbench is the authority the scenario drives. Required.
	Workbench *workbench.Workbench

	// Clock paces wait steps. Defaults to the real clock.
	Clock clock.Clock

	// Logger receives step progress. Defaults to slog.Default().
	Logger *slog.Logger
}

// Runner applies scenario steps to a workbench and its mirror engine.
//
// The runner doubles as a [mirror.Consumer]: register it with the
// engine (alongside other consumers via [mirror.MultiConsumer]) so
// that it sees every published snapshot. Between steps it fences on
// the engine having mirrored every change emitted so far, which is
// what makes scripted runs deterministic: step n+1 never starts while
// the mirror still lags step n. The latest snapshot also serves as
// the lookup table for the reverse steps, which name tabs by
// mirrored resource.
type Runner struct {
	bench  *workbench.Workbench
	clock  clock.Clock
	logger *slog.Logger

	// revision counts received snapshots; tick wakes a pending
	// fence, coalescing bursts.
	revision atomic.Uint64
	tick     chan struct{}

	mu    sync.Mutex
	model []mirror.Group
}

// NewRunner builds a Runner from config, applying defaults.
func NewRunner(config RunnerConfig) (*Runner, error) {
	if config.Workbench == nil {
		return nil, fmt.Errorf("scenario runner: workbench is required")
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Runner{
		bench:  config.Workbench,
		clock:  config.Clock,
		logger: config.Logger,
		tick:   make(chan struct{}, 1),
	}, nil
}

// AcceptModel records the latest snapshot and wakes a pending fence.
func (r *Runner) AcceptModel(groups []mirror.Group) {
	r.mu.Lock()
	r.model = groups
	r.mu.Unlock()

	r.revision.Add(1)
	select {
	case r.tick <- struct{}{}:
	default:
	}
}

// Revision returns how many snapshots the runner has received.
func (r *Runner) Revision() uint64 { return r.revision.Load() }

// LatestModel returns the most recent snapshot. The slice is shared
// with other consumers and must be treated as read-only.
func (r *Runner) LatestModel() []mirror.Group {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.model
}

// Run validates the scenario and applies its steps in order, fencing
// after each one. The engine must be running and registered with this
// runner as one of its consumers.
func (r *Runner) Run(ctx context.Context, engine *mirror.Engine, scenario *Scenario) error {
	if issues := Validate(scenario); len(issues) > 0 {
		return fmt.Errorf("invalid scenario %q: %s", scenario.Name, strings.Join(issues, "; "))
	}

	r.logger.Info("scenario starting",
		"scenario", scenario.Name, "steps", len(scenario.Steps))

	for index, step := range scenario.Steps {
		r.logger.Debug("applying step", "step", index, "action", step.Action())
		if err := r.applyStep(ctx, engine, step); err != nil {
			return fmt.Errorf("steps[%d] %s: %w", index, step.Action(), err)
		}
		if err := r.awaitMirror(ctx); err != nil {
			return fmt.Errorf("steps[%d] %s: waiting for mirror: %w", index, step.Action(), err)
		}
	}

	r.logger.Info("scenario complete",
		"scenario", scenario.Name, "revision", r.Revision())
	return nil
}

func (r *Runner) applyStep(ctx context.Context, engine *mirror.Engine, step Step) error {
	switch {
	case step.Open != nil:
		return r.applyOpen(step.Open)

	case step.Close != nil:
		return r.bench.CloseEditorAt(mirror.ViewColumn(step.Close.Column), step.Close.Index)

	case step.Activate != nil:
		return r.bench.ActivateEditorAt(mirror.ViewColumn(step.Activate.Column), step.Activate.Index)

	case step.ActivateGroup != nil:
		return r.bench.ActivateColumn(mirror.ViewColumn(step.ActivateGroup.Column))

	case step.Rename != nil:
		return r.bench.RenameEditorAt(mirror.ViewColumn(step.Rename.Column), step.Rename.Index, step.Rename.Name)

	case step.Move != nil:
		move := step.Move
		return r.bench.MoveEditorTo(
			mirror.ViewColumn(move.Column), move.Index,
			mirror.ViewColumn(move.TargetColumn), move.TargetIndex,
			move.PreserveFocus,
		)

	case step.MoveTab != nil:
		tab, ok := r.findTab(mirror.Resource(step.MoveTab.Resource))
		if !ok {
			return fmt.Errorf("no mirrored tab for resource %q", step.MoveTab.Resource)
		}
		return engine.MoveTab(ctx, tab, step.MoveTab.TargetIndex, mirror.ViewColumn(step.MoveTab.TargetColumn))

	case step.CloseTab != nil:
		tab, ok := r.findTab(mirror.Resource(step.CloseTab.Resource))
		if !ok {
			return fmt.Errorf("no mirrored tab for resource %q", step.CloseTab.Resource)
		}
		return engine.CloseTab(ctx, tab)

	case step.Wait != "":
		duration, err := time.ParseDuration(step.Wait)
		if err != nil {
			return err
		}
		r.clock.Sleep(duration)
		return nil

	default:
		return fmt.Errorf("step has no action")
	}
}

func (r *Runner) applyOpen(step *OpenStep) error {
	composite, err := ParseComposite(step.Composite)
	if err != nil {
		return err
	}

	spec := workbench.EditorSpec{
		Name:          step.Name,
		Kind:          mirror.EditorKind(step.Kind),
		Resource:      mirror.Resource(step.Resource),
		Composite:     composite,
		Secondary:     mirror.Resource(step.Secondary),
		SecondaryKind: mirror.EditorKind(step.SecondaryKind),
	}

	var at *int
	if step.At != nil {
		index := *step.At
		at = &index
	}

	_, err = r.bench.OpenEditor(mirror.ViewColumn(step.Column), spec, at)
	return err
}

// findTab scans the latest snapshot for the tab mirroring resource.
func (r *Runner) findTab(resource mirror.Resource) (mirror.Tab, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, group := range r.model {
		for _, tab := range group.Tabs {
			if tab.Resource == resource {
				return tab, true
			}
		}
	}
	return mirror.Tab{}, false
}

// awaitMirror blocks until the engine has published a snapshot for
// every workbench change emitted so far. The engine's initial build
// is revision 1 and every drained change adds one, so the target is
// one past the emission count. Reverse commands mutate the authority
// before returning, which keeps the emission count read here
// complete.
func (r *Runner) awaitMirror(ctx context.Context) error {
	target := 1 + r.bench.ChangesEmitted()
	for r.revision.Load() < target {
		select {
		case <-r.tick:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
