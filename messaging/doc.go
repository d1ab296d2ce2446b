// Copyright 2026 The Atelier Authors
// SPDX-License-Identifier: Apache-2.0

// Package messaging is the Matrix transport adapter for the commission
// service. It covers exactly the slice of the client-server API the
// bot needs: password login, the /sync long-poll loop, room creation
// and invites for per-user direct chats, and sending text and image
// messages.
//
// Inbound Matrix events are normalized into transport-neutral
// [gateway.Event] values ([DecodeSync]); outbound replies go through
// [Gateway], which implements [gateway.Messenger] over per-principal
// direct rooms. Nothing above this package speaks Matrix.
//
// Server-side error responses decode into [*MatrixError]; callers
// branch on the M_* code with [IsMatrixError].
package messaging
