// Copyright 2026 The Atelier Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts time for testability.
//
// Production code injects [Real]; tests inject [Fake] and drive time
// deterministically with Advance. Any function that would otherwise
// call time.Now, time.After, or time.NewTicker takes a [Clock]
// parameter (or is a method on a struct with a Clock field) instead of
// reaching for the time package directly. Order timestamps, session
// idle tracking, and sync-loop backoff all flow through this
// interface, which is what makes the session-expiry and order-ID tests
// deterministic.
package clock
