// Copyright 2026 The Atelier Authors
// SPDX-License-Identifier: Apache-2.0

// Package ref provides typed identifiers for the entities Atelier
// passes between its components: principals (the Matrix accounts that
// act as clients, artists, or both) and orders.
//
// Each identifier is a distinct Go type wrapping a validated string or
// integer. The types exist to prevent accidental confusion between
// different kinds of IDs at compile time, and they implement
// encoding.TextMarshaler / TextUnmarshaler so that serialization
// layers (CBOR snapshots, JSON API bodies) validate on decode.
package ref
