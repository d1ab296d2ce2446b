// Copyright 2026 The Atelier Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides Atelier's standard CBOR encoding.
//
// Encoding uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items.
// The same logical data always produces identical bytes, which keeps
// entity-store snapshots byte-stable and makes their checksums
// meaningful.
//
// Beyond plain Marshal/Unmarshal, the package supports forward-
// compatible records: [UnmarshalRecord] captures the fields of a CBOR
// map that the target Go type does not claim, and [MarshalRecord]
// merges them back on write. The entity store uses this pair so a
// snapshot written by a newer version of the software survives a
// read-modify-write cycle by an older one without losing fields.
//
// [Diagnose] renders raw CBOR in diagnostic notation (RFC 8949 §8)
// for error reporting on damaged snapshots.
package codec
