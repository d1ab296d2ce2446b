// Copyright 2026 The Atelier Authors
// SPDX-License-Identifier: Apache-2.0

// Package gateway defines the transport-neutral contracts between the
// messaging transport and the marketplace core. The core consumes
// [Event] values and replies through a [Messenger]; nothing above the
// messaging package knows it is talking to Matrix.
package gateway

import (
	"context"

	"github.com/atelier-foundation/atelier/lib/ref"
)

// Kind classifies an inbound event.
type Kind string

const (
	// KindCommand is a slash command, e.g. "/register arg1 arg2".
	KindCommand Kind = "command"
	// KindText is free-form text outside a command.
	KindText Kind = "text"
	// KindPhoto is an uploaded image. MediaRef carries the transport's
	// opaque reference to the bytes; the core never dereferences it.
	KindPhoto Kind = "photo"
	// KindButtonPress is a structured choice, e.g. a star rating.
	// Token carries the chosen value.
	KindButtonPress Kind = "button"
)

// Event is one inbound interaction, already normalized by the
// transport adapter.
type Event struct {
	Kind   Kind
	Sender ref.PrincipalID

	// Command and Args are set for KindCommand ("/track" -> "track").
	Command string
	Args    []string

	// Text is set for KindText.
	Text string

	// MediaRef is set for KindPhoto. Opaque to the core; it is stored
	// and forwarded untouched.
	MediaRef string

	// Token is set for KindButtonPress.
	Token string
}

// Messenger sends outbound messages addressed by principal. The
// transport owns routing (which room, which chat) behind this
// interface.
type Messenger interface {
	SendText(ctx context.Context, recipient ref.PrincipalID, body string) error
	SendPhoto(ctx context.Context, recipient ref.PrincipalID, mediaRef, caption string) error
}
