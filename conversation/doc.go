// Copyright 2026 The Atelier Authors
// SPDX-License-Identifier: Apache-2.0

// Package conversation runs per-principal multi-step dialogues: the
// finite-state flows behind artist registration, order placement, and
// artist rating.
//
// A [Flow] is pure data — a name, an initial step, and a handler per
// step. Handlers inspect one inbound event plus the session's scratch
// data and return an [Outcome]: advance to another step, finish the
// flow, or reject the input and stay put. The [Engine] owns the
// session table; at most one session exists per principal, beginning a
// new flow replaces whatever was active (last writer wins), and
// sessions for different principals never block each other.
//
// Sessions are in-memory only. A restart drops them all; the
// underlying marketplace state is unaffected because flows only write
// through the commission service at completion. An optional idle TTL
// clears abandoned sessions (see [Engine.Run]).
package conversation
