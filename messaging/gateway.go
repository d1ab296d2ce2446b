// Copyright 2026 The Atelier Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/atelier-foundation/atelier/gateway"
	"github.com/atelier-foundation/atelier/lib/ref"
)

// Gateway implements [gateway.Messenger] over per-principal direct
// rooms. The room for a principal is whichever room they last wrote to
// the bot from; when the bot has to speak first (artist notifications),
// a direct room is created on demand with the principal invited, and
// remembered.
type Gateway struct {
	session *Session
	log     *slog.Logger

	mu    sync.Mutex
	rooms map[ref.PrincipalID]RoomID
}

// NewGateway creates a Gateway over an authenticated session.
func NewGateway(session *Session, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		session: session,
		log:     logger,
		rooms:   make(map[ref.PrincipalID]RoomID),
	}
}

// ObserveSender records that principal last wrote from room. The sync
// handler calls this for every inbound event so replies land in the
// conversation they belong to.
func (g *Gateway) ObserveSender(principal ref.PrincipalID, room RoomID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rooms[principal] = room
}

// SendText sends a plain-text message to the principal's direct room.
func (g *Gateway) SendText(ctx context.Context, recipient ref.PrincipalID, body string) error {
	room, err := g.roomFor(ctx, recipient)
	if err != nil {
		return err
	}
	if _, err := g.session.SendMessage(ctx, room, NewTextMessage(body)); err != nil {
		return fmt.Errorf("sending text to %s: %w", recipient, err)
	}
	return nil
}

// SendPhoto forwards an already-uploaded image to the principal's
// direct room. mediaRef is the opaque mxc URI from the inbound event.
func (g *Gateway) SendPhoto(ctx context.Context, recipient ref.PrincipalID, mediaRef, caption string) error {
	room, err := g.roomFor(ctx, recipient)
	if err != nil {
		return err
	}
	if _, err := g.session.SendMessage(ctx, room, NewImageMessage(mediaRef, caption)); err != nil {
		return fmt.Errorf("sending photo to %s: %w", recipient, err)
	}
	return nil
}

// roomFor returns the principal's direct room, creating one when the
// bot has never spoken with them.
func (g *Gateway) roomFor(ctx context.Context, principal ref.PrincipalID) (RoomID, error) {
	g.mu.Lock()
	room, ok := g.rooms[principal]
	g.mu.Unlock()
	if ok {
		return room, nil
	}

	created, err := g.session.CreateRoom(ctx, CreateRoomRequest{
		Preset:   "trusted_private_chat",
		IsDirect: true,
		Invite:   []string{principal.String()},
	})
	if err != nil {
		return "", fmt.Errorf("creating direct room for %s: %w", principal, err)
	}
	g.log.Info("created direct room", "principal", principal, "room_id", created)

	g.mu.Lock()
	defer g.mu.Unlock()
	// An inbound event may have raced us with the principal's own room;
	// the recorded one wins so the conversation stays in one place.
	if existing, ok := g.rooms[principal]; ok {
		return existing, nil
	}
	g.rooms[principal] = created
	return created, nil
}

var _ gateway.Messenger = (*Gateway)(nil)
