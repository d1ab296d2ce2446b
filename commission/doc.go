// Copyright 2026 The Atelier Authors
// SPDX-License-Identifier: Apache-2.0

// Package commission holds the marketplace domain: users who order
// sketches, artists who draw them, and the orders binding the two.
//
// [Service] is the single write path over the entity store. Each
// operation runs as one store transaction on one collection, so the
// marketplace invariants (orders only reference approved artists,
// order IDs are unique and monotonic, ratings only accumulate on
// approved artists) hold under concurrent use. Read helpers return
// snapshots; they are consistent per collection, not across
// collections.
//
// The service takes its clock and random source through [Options] so
// tests can pin order IDs, timestamps, and artist selection.
package commission
