// Copyright 2026 The Tabmirror Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction for
// testability.
//
// Code that needs time accepts a Clock parameter instead of calling
// time.Now, time.After, or time.Sleep directly. In production, Real()
// provides the standard library behavior. In tests, Fake() provides a
// deterministic clock that advances only when Advance is called. The
// journal recorder stamps records through a Clock and the scenario
// runner waits through one, so both are fully deterministic under
// test.
//
// # Wiring Pattern
//
// Add a Clock field to structs that use time:
//
//	type Recorder struct {
//	    clock clock.Clock
//	    // ...
//	}
//
// In production:
//
//	r := &Recorder{clock: clock.Real()}
//
// In tests:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	r := &Recorder{clock: c}
//	// ... start goroutines ...
//	c.WaitForTimers(1) // wait for goroutine to register a waiter
//	c.Advance(5 * time.Second) // fire it deterministically
//
// # FakeClock Synchronization
//
// When a goroutine calls Sleep or After on a FakeClock, it registers a
// pending waiter. Use WaitForTimers to block until a specific number
// of waiters are registered before calling Advance. This eliminates
// the race between waiter registration and time advancement that
// plagues tests using time.Sleep for synchronization.
package clock
