// Copyright 2026 The Atelier Authors
// SPDX-License-Identifier: Apache-2.0

// Package store implements the durable entity store underneath the
// commission marketplace: named collections of CBOR records with
// atomic, serialized read-modify-write transactions.
//
// Each collection lives in a single snapshot file. A transaction
// loads the snapshot, applies the caller's function to a copy of the
// records, and atomically replaces the file (temp file + rename), so
// a crash mid-write never damages the previous snapshot. Within one
// collection, transactions are serialized by an exclusive mutex: every
// transaction observes the effects of all previously committed ones,
// and no reader ever sees a partially applied state. Collections are
// independent — nothing spans two collections atomically.
//
// The store assumes single-process ownership of the state directory.
// There is no cross-process file locking: running two processes
// against the same directory requires external coordination.
//
// A snapshot that cannot be decoded — damaged envelope, unsupported
// format, checksum mismatch, undecodable record — surfaces as a
// [*CorruptionError] carrying a diagnostic rendering of the damaged
// bytes. The store never silently resets a damaged snapshot to an
// empty collection; the file is left untouched for inspection.
//
// Records are forward-compatible: fields present in a snapshot that
// the current entity type does not claim are preserved across
// read-modify-write cycles (see lib/codec).
package store
