// Copyright 2026 The Tabmirror Authors
// SPDX-License-Identifier: Apache-2.0

package mirror

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/tabmirror/tabmirror/lib/testutil"
)

const awaitTimeout = 5 * time.Second

type engineHarness struct {
	authority *fakeAuthority
	engine    *Engine
	snapshots chan []Group
	runErr    chan error
	cancel    context.CancelFunc
}

// startEngine runs an engine over the fake authority in a background
// goroutine. The readiness signal is not sent; tests fire it with
// h.ready when their setup is complete.
func startEngine(t *testing.T, authority *fakeAuthority) *engineHarness {
	t.Helper()
	snapshots := make(chan []Group, 16)
	engine, err := New(EngineConfig{
		Authority: authority,
		Consumer:  ConsumerFunc(func(groups []Group) { snapshots <- groups }),
		Logger:    discardLogger(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() { runErr <- engine.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-engine.done:
		case <-time.After(awaitTimeout):
			t.Error("engine did not stop on context cancel")
		}
	})

	return &engineHarness{
		authority: authority,
		engine:    engine,
		snapshots: snapshots,
		runErr:    runErr,
		cancel:    cancel,
	}
}

// ready fires the authority readiness signal and returns the initial
// snapshot.
func (h *engineHarness) ready(t *testing.T) []Group {
	t.Helper()
	close(h.authority.ready)
	return testutil.RequireReceive(t, h.snapshots, awaitTimeout, "waiting for initial snapshot")
}

// requireNoSnapshot asserts the snapshot channel is empty. Only valid
// when the engine loop is known to be idle or blocked.
func (h *engineHarness) requireNoSnapshot(t *testing.T) {
	t.Helper()
	select {
	case extra := <-h.snapshots:
		t.Fatalf("unexpected snapshot: %+v", extra)
	default:
	}
}

func TestEngineNewValidation(t *testing.T) {
	consumer := ConsumerFunc(func([]Group) {})
	if _, err := New(EngineConfig{Consumer: consumer}); err == nil {
		t.Error("New accepted a config without an authority")
	}
	if _, err := New(EngineConfig{Authority: newFakeAuthority()}); err == nil {
		t.Error("New accepted a config without a consumer")
	}
}

func TestEngineInitialBuildWaitsForReadiness(t *testing.T) {
	a := plainEditor("a.go", "file:///a.go")
	authority := newFakeAuthority(&fakeGroup{id: 1, column: 1, editors: []Editor{a}, active: a})
	h := startEngine(t, authority)

	// The loop is parked on the readiness signal; nothing may have
	// been published yet.
	h.requireNoSnapshot(t)

	initial := h.ready(t)
	if !reflect.DeepEqual(initial, buildModel(authority)) {
		t.Errorf("initial snapshot mismatch:\n got %+v\nwant %+v", initial, buildModel(authority))
	}
	checkInvariants(t, initial)
}

func TestEngineOneSnapshotPerChange(t *testing.T) {
	a := plainEditor("a.go", "file:///a.go")
	b := plainEditor("b.go", "file:///b.go")
	group := &fakeGroup{id: 1, column: 1, editors: []Editor{a}, active: a}
	authority := newFakeAuthority(group)
	h := startEngine(t, authority)
	h.ready(t)

	a.name = "a_test.go"
	testutil.RequireSend(t, authority.changes,
		Change{Kind: ChangeTabRelabeled, Group: 1, Editor: a, EditorIndex: Index(0)},
		awaitTimeout, "sending relabel")
	snapshot := testutil.RequireReceive(t, h.snapshots, awaitTimeout, "waiting for relabel snapshot")
	if snapshot[0].Tabs[0].Label != "a_test.go" {
		t.Errorf("label = %q, want a_test.go", snapshot[0].Tabs[0].Label)
	}

	group.editors = append(group.editors, b)
	testutil.RequireSend(t, authority.changes,
		Change{Kind: ChangeTabOpened, Group: 1, Editor: b, EditorIndex: Index(1)},
		awaitTimeout, "sending open")
	snapshot = testutil.RequireReceive(t, h.snapshots, awaitTimeout, "waiting for open snapshot")
	if len(snapshot[0].Tabs) != 2 {
		t.Errorf("tab count = %d, want 2", len(snapshot[0].Tabs))
	}

	// Two changes, two snapshots, nothing more.
	h.requireNoSnapshot(t)
}

func TestEngineBenignNoOpStillNotifies(t *testing.T) {
	a := plainEditor("a.go", "file:///a.go")
	b := plainEditor("b.go", "file:///b.go")
	group1 := &fakeGroup{id: 1, column: 1, editors: []Editor{a}, active: a}
	group2 := &fakeGroup{id: 2, column: 2, editors: []Editor{b}, active: b}
	authority := newFakeAuthority(group1, group2)
	h := startEngine(t, authority)
	before := h.ready(t)

	// Group 1 is still authoritatively active; this activation is
	// stale. The store must not change, but the consumer still hears
	// about the reconciliation step.
	testutil.RequireSend(t, authority.changes,
		Change{Kind: ChangeGroupActivated, Group: 2},
		awaitTimeout, "sending stale activation")
	after := testutil.RequireReceive(t, h.snapshots, awaitTimeout, "waiting for no-op snapshot")
	if !reflect.DeepEqual(before, after) {
		t.Error("benign no-op changed the published model")
	}
}

func TestEngineRebuildFallbackPublishes(t *testing.T) {
	a := plainEditor("a.go", "file:///a.go")
	group := &fakeGroup{id: 1, column: 1, editors: []Editor{a}, active: a}
	authority := newFakeAuthority(group)
	h := startEngine(t, authority)
	h.ready(t)

	// Mutate beyond what the incomplete change describes; the rebuild
	// must pick up the whole new state.
	b := plainEditor("b.go", "file:///b.go")
	group.editors = []Editor{a, b}
	group.active = b
	testutil.RequireSend(t, authority.changes,
		Change{Kind: ChangeTabOpened, Group: 1},
		awaitTimeout, "sending incomplete open")
	snapshot := testutil.RequireReceive(t, h.snapshots, awaitTimeout, "waiting for rebuild snapshot")
	if !reflect.DeepEqual(snapshot, buildModel(authority)) {
		t.Errorf("rebuild snapshot mismatch:\n got %+v\nwant %+v", snapshot, buildModel(authority))
	}

	stats := h.engine.Stats()
	if stats.Rebuilds != 2 {
		t.Errorf("Rebuilds = %d, want 2 (initial + fallback)", stats.Rebuilds)
	}
}

func TestEngineMoveTabCommand(t *testing.T) {
	a := plainEditor("a.go", "file:///a.go")
	b := plainEditor("b.go", "file:///b.go")
	group1 := &fakeGroup{id: 1, column: 1, editors: []Editor{a}, active: a}
	group2 := &fakeGroup{id: 2, column: 2, editors: []Editor{b}, active: b}
	authority := newFakeAuthority(group1, group2)
	h := startEngine(t, authority)
	h.ready(t)

	tab := projectTab(a, group1)
	if err := h.engine.MoveTab(context.Background(), tab, 1, 2); err != nil {
		t.Fatalf("MoveTab: %v", err)
	}

	// MoveTab waits for the loop to run the move, so the recording is
	// visible as soon as it returns.
	if len(group1.moves) != 1 {
		t.Fatalf("recorded %d moves, want 1", len(group1.moves))
	}
	move := group1.moves[0]
	if move.editor != a || move.target != group2 || move.index != 1 || !move.preserveFocus {
		t.Errorf("move = %+v, want editor a.go to group 2 index 1 preserving focus", move)
	}
}

func TestEngineCloseTabCommand(t *testing.T) {
	a := plainEditor("a.go", "file:///a.go")
	group := &fakeGroup{id: 1, column: 1, editors: []Editor{a}, active: a}
	authority := newFakeAuthority(group)
	h := startEngine(t, authority)
	h.ready(t)

	if err := h.engine.CloseTab(context.Background(), projectTab(a, group)); err != nil {
		t.Fatalf("CloseTab: %v", err)
	}
	if len(group.closed) != 1 || group.closed[0] != a {
		t.Errorf("closed %v, want exactly a.go", group.closed)
	}
}

func TestEngineCloseTabPropagatesCloseError(t *testing.T) {
	closeErr := errors.New("unsaved changes")
	a := plainEditor("a.go", "file:///a.go")
	group := &fakeGroup{id: 1, column: 1, editors: []Editor{a}, active: a, closeErr: closeErr}
	authority := newFakeAuthority(group)
	h := startEngine(t, authority)
	h.ready(t)

	err := h.engine.CloseTab(context.Background(), projectTab(a, group))
	if !errors.Is(err, closeErr) {
		t.Errorf("CloseTab error = %v, want wrapped %v", err, closeErr)
	}
}

// While a close await is pending, notifications must queue without
// being processed or lost, and the store must stay untouched until the
// await resumes.
func TestEngineCloseAwaitQueuesNotifications(t *testing.T) {
	a := plainEditor("a.go", "file:///a.go")
	b := plainEditor("b.go", "file:///b.go")
	closeEntered := make(chan struct{})
	closeBlock := make(chan struct{})
	group := &fakeGroup{
		id: 1, column: 1, editors: []Editor{a, b}, active: a,
		closeEntered: closeEntered,
		closeBlock:   closeBlock,
	}
	authority := newFakeAuthority(group)
	h := startEngine(t, authority)
	h.ready(t)

	closeResult := make(chan error, 1)
	go func() {
		closeResult <- h.engine.CloseTab(context.Background(), projectTab(a, group))
	}()
	testutil.RequireClosed(t, closeEntered, awaitTimeout, "waiting for close await")

	// The loop is parked inside the close await. Queue the follow-up
	// notifications the authority would emit for the finished close.
	group.editors = []Editor{b}
	group.active = b
	testutil.RequireSend(t, authority.changes,
		Change{Kind: ChangeTabClosed, Group: 1, EditorIndex: Index(0)},
		awaitTimeout, "queuing close notification")
	testutil.RequireSend(t, authority.changes,
		Change{Kind: ChangeTabActivated, Group: 1, EditorIndex: Index(0)},
		awaitTimeout, "queuing activation notification")
	h.requireNoSnapshot(t)

	close(closeBlock)
	if err := testutil.RequireReceive(t, closeResult, awaitTimeout, "waiting for CloseTab"); err != nil {
		t.Fatalf("CloseTab: %v", err)
	}

	first := testutil.RequireReceive(t, h.snapshots, awaitTimeout, "waiting for close snapshot")
	if len(first) != 1 || len(first[0].Tabs) != 1 || first[0].Tabs[0].Label != "b.go" {
		t.Errorf("first queued snapshot = %+v, want only b.go", first)
	}
	second := testutil.RequireReceive(t, h.snapshots, awaitTimeout, "waiting for activation snapshot")
	if !reflect.DeepEqual(second, buildModel(authority)) {
		t.Errorf("final snapshot diverged:\n got %+v\nwant %+v", second, buildModel(authority))
	}
	checkInvariants(t, second)
}

func TestEngineCloseTabHonorsCallerCancel(t *testing.T) {
	a := plainEditor("a.go", "file:///a.go")
	closeEntered := make(chan struct{})
	group := &fakeGroup{
		id: 1, column: 1, editors: []Editor{a}, active: a,
		closeEntered: closeEntered,
		closeBlock:   make(chan struct{}),
	}
	authority := newFakeAuthority(group)
	h := startEngine(t, authority)
	h.ready(t)

	ctx, cancel := context.WithCancel(context.Background())
	closeResult := make(chan error, 1)
	go func() {
		closeResult <- h.engine.CloseTab(ctx, projectTab(a, group))
	}()
	testutil.RequireClosed(t, closeEntered, awaitTimeout, "waiting for close await")

	cancel()
	err := testutil.RequireReceive(t, closeResult, awaitTimeout, "waiting for cancelled CloseTab")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("CloseTab error = %v, want context.Canceled", err)
	}

	// The loop must come back and keep serving notifications.
	testutil.RequireSend(t, authority.changes,
		Change{Kind: ChangeGroupActivated, Group: 1},
		awaitTimeout, "sending change after cancel")
	testutil.RequireReceive(t, h.snapshots, awaitTimeout, "waiting for snapshot after cancel")
}

func TestEngineStats(t *testing.T) {
	a := plainEditor("a.go", "file:///a.go")
	group := &fakeGroup{id: 1, column: 1, editors: []Editor{a}, active: a}
	authority := newFakeAuthority(group)
	h := startEngine(t, authority)
	h.ready(t)

	a.name = "renamed.go"
	testutil.RequireSend(t, authority.changes,
		Change{Kind: ChangeTabRelabeled, Group: 1, Editor: a, EditorIndex: Index(0)},
		awaitTimeout, "sending relabel")
	testutil.RequireReceive(t, h.snapshots, awaitTimeout, "waiting for relabel snapshot")

	testutil.RequireSend(t, authority.changes,
		Change{Kind: ChangeUnknown, Group: 1},
		awaitTimeout, "sending unknown change")
	testutil.RequireReceive(t, h.snapshots, awaitTimeout, "waiting for rebuild snapshot")

	if err := h.engine.MoveTab(context.Background(), projectTab(a, group), 0, 1); err != nil {
		t.Fatalf("MoveTab: %v", err)
	}
	testutil.RequireSend(t, authority.changes,
		Change{Kind: ChangeGroupActivated, Group: 1},
		awaitTimeout, "sending fence change")
	testutil.RequireReceive(t, h.snapshots, awaitTimeout, "waiting for fence snapshot")

	want := Stats{Revision: 4, Incremental: 2, Rebuilds: 2, Commands: 1}
	if got := h.engine.Stats(); got != want {
		t.Errorf("Stats = %+v, want %+v", got, want)
	}
}

func TestEngineStopsOnClosedChangeChannel(t *testing.T) {
	a := plainEditor("a.go", "file:///a.go")
	authority := newFakeAuthority(&fakeGroup{id: 1, column: 1, editors: []Editor{a}, active: a})
	h := startEngine(t, authority)
	h.ready(t)

	close(authority.changes)
	err := testutil.RequireReceive(t, h.runErr, awaitTimeout, "waiting for Run to return")
	if err == nil || errors.Is(err, context.Canceled) {
		t.Errorf("Run = %v, want a closed-channel error", err)
	}
}

func TestEngineStopsOnContextCancel(t *testing.T) {
	authority := newFakeAuthority()
	h := startEngine(t, authority)

	// Cancel while the loop is still waiting for readiness.
	h.cancel()
	err := testutil.RequireReceive(t, h.runErr, awaitTimeout, "waiting for Run to return")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run = %v, want context.Canceled", err)
	}
	h.requireNoSnapshot(t)
}

func TestEngineCommandsAfterStop(t *testing.T) {
	a := plainEditor("a.go", "file:///a.go")
	group := &fakeGroup{id: 1, column: 1, editors: []Editor{a}, active: a}
	authority := newFakeAuthority(group)
	h := startEngine(t, authority)
	h.ready(t)

	h.cancel()
	testutil.RequireReceive(t, h.runErr, awaitTimeout, "waiting for Run to return")

	if err := h.engine.MoveTab(context.Background(), projectTab(a, group), 0, 1); !errors.Is(err, errStopped) {
		t.Errorf("MoveTab after stop = %v, want errStopped", err)
	}
	if err := h.engine.CloseTab(context.Background(), projectTab(a, group)); !errors.Is(err, errStopped) {
		t.Errorf("CloseTab after stop = %v, want errStopped", err)
	}
}
