// Copyright 2026 The Atelier Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"log/slog"

	"github.com/atelier-foundation/atelier/commission"
	"github.com/atelier-foundation/atelier/conversation"
	"github.com/atelier-foundation/atelier/gateway"
	"github.com/atelier-foundation/atelier/lib/ref"
)

// bot routes inbound gateway events: commands always dispatch to their
// handler, everything else feeds the sender's active conversation.
type bot struct {
	service   *commission.Service
	engine    *conversation.Engine
	messenger gateway.Messenger
	operator  ref.PrincipalID
	log       *slog.Logger

	artistRegistration *conversation.Flow
	orderPlacement     *conversation.Flow
	rating             *conversation.Flow
}

func newBot(service *commission.Service, engine *conversation.Engine, messenger gateway.Messenger, operator ref.PrincipalID, logger *slog.Logger) *bot {
	b := &bot{
		service:   service,
		engine:    engine,
		messenger: messenger,
		operator:  operator,
		log:       logger,
	}
	b.artistRegistration = b.newArtistRegistrationFlow()
	b.orderPlacement = b.newOrderPlacementFlow()
	b.rating = b.newRatingFlow()
	return b
}

// route dispatches one inbound event. Commands run even while a
// conversation is active, so a stuck user can always /cancel or /help.
func (b *bot) route(ctx context.Context, event gateway.Event) {
	if event.Kind == gateway.KindCommand {
		b.handleCommand(ctx, event)
		return
	}

	outcome, active := b.engine.Step(ctx, event.Sender, event)
	if !active {
		b.reply(ctx, event.Sender, "Sorry, I didn't understand that. Try /help for the list of commands.")
		return
	}
	if outcome.Reply != "" {
		b.reply(ctx, event.Sender, outcome.Reply)
	}
}

// reply sends body to recipient, logging delivery failures. Replies
// never fail the operation that produced them.
func (b *bot) reply(ctx context.Context, recipient ref.PrincipalID, body string) {
	if err := b.messenger.SendText(ctx, recipient, body); err != nil {
		b.log.Error("failed to send reply", "recipient", recipient, "error", err)
	}
}
