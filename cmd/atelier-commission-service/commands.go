// Copyright 2026 The Atelier Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atelier-foundation/atelier/commission"
	"github.com/atelier-foundation/atelier/gateway"
	"github.com/atelier-foundation/atelier/lib/ref"
)

const welcomeText = "🎨 Welcome to the Sketch Order Bot! 🎨\n\n" +
	"I can help you commission sketches from talented artists.\n\n" +
	"🔹 To order a sketch, use /register\n" +
	"🔹 To offer your art services, use /register_artist\n\n" +
	"Use /help to see a full list of commands."

const helpText = "Here are the available commands:\n\n" +
	"For Everyone:\n" +
	"/start - Welcome message\n" +
	"/login - Check your registration status\n" +
	"/search_artist - List all approved artists\n" +
	"/searchid <artist_id> - Get a specific artist's profile\n\n" +
	"For Users:\n" +
	"/register - Register as a user\n" +
	"/order - Start a new sketch order\n" +
	"/track - Check the status of your orders\n" +
	"/rate - Rate an artist after an order\n" +
	"/cancel - Cancel the current operation\n\n" +
	"For Artists:\n" +
	"/register_artist - Register as an artist\n\n" +
	"Admin Only:\n" +
	"/approve_artist <artist_id> - Approve an artist"

func (b *bot) handleCommand(ctx context.Context, event gateway.Event) {
	switch event.Command {
	case "start":
		b.reply(ctx, event.Sender, welcomeText)
	case "help":
		b.reply(ctx, event.Sender, helpText)
	case "register":
		b.cmdRegister(ctx, event)
	case "login":
		b.cmdLogin(ctx, event)
	case "track":
		b.cmdTrack(ctx, event)
	case "search_artist":
		b.cmdSearchArtist(ctx, event)
	case "searchid":
		b.cmdSearchID(ctx, event)
	case "approve_artist":
		b.cmdApproveArtist(ctx, event)
	case "register_artist":
		b.cmdRegisterArtist(ctx, event)
	case "order":
		b.cmdOrder(ctx, event)
	case "rate":
		b.engine.Begin(event.Sender, b.rating)
		b.reply(ctx, event.Sender, "To rate an artist, please send their Artist ID.")
	case "cancel":
		b.engine.Cancel(event.Sender)
		b.reply(ctx, event.Sender, "Operation cancelled.")
	default:
		b.reply(ctx, event.Sender, "Sorry, I didn't understand that command. Try /help.")
	}
}

func (b *bot) cmdRegister(ctx context.Context, event gateway.Event) {
	created, err := b.service.RegisterUser(event.Sender, event.Sender.Localpart())
	if err != nil {
		b.log.Error("user registration failed", "principal", event.Sender, "error", err)
		b.reply(ctx, event.Sender, "Something went wrong. Please try again later.")
		return
	}
	if !created {
		b.reply(ctx, event.Sender, "You are already registered as a user.")
		return
	}
	b.reply(ctx, event.Sender, "✅ Success! You are now registered and can /order a sketch.")
}

func (b *bot) cmdLogin(ctx context.Context, event gateway.Event) {
	artist, err := b.service.ArtistByID(event.Sender)
	switch {
	case err == nil:
		status := "Pending Approval"
		if artist.Approved {
			status = "Approved"
		}
		b.reply(ctx, event.Sender, fmt.Sprintf("Logged in as: Artist\nStatus: %s", status))
		return
	case !errors.Is(err, commission.ErrNotFound):
		b.log.Error("login lookup failed", "principal", event.Sender, "error", err)
		b.reply(ctx, event.Sender, "Something went wrong. Please try again later.")
		return
	}

	registered, err := b.service.IsRegisteredUser(event.Sender)
	if err != nil {
		b.log.Error("login lookup failed", "principal", event.Sender, "error", err)
		b.reply(ctx, event.Sender, "Something went wrong. Please try again later.")
		return
	}
	if registered {
		b.reply(ctx, event.Sender, "Logged in as: User")
		return
	}
	b.reply(ctx, event.Sender, "You are not registered. Use /register or /register_artist.")
}

func (b *bot) cmdTrack(ctx context.Context, event gateway.Event) {
	orders, err := b.service.Orders(event.Sender)
	if err != nil {
		b.log.Error("order listing failed", "principal", event.Sender, "error", err)
		b.reply(ctx, event.Sender, "Something went wrong. Please try again later.")
		return
	}
	if len(orders) == 0 {
		b.reply(ctx, event.Sender, "You have no orders. Use /order to create one.")
		return
	}

	var response strings.Builder
	response.WriteString("Your Order History:\n\n")
	for _, order := range orders {
		fmt.Fprintf(&response,
			"📦 Order ID: %s\n"+
				"   - Artist: @%s\n"+
				"   - Status: %s\n"+
				"   - Date: %s\n\n",
			order.ID,
			order.ArtistID.Localpart(),
			order.Status,
			time.Unix(order.CreatedAt, 0).UTC().Format("2006-01-02"))
	}
	b.reply(ctx, event.Sender, strings.TrimRight(response.String(), "\n"))
}

func (b *bot) cmdSearchArtist(ctx context.Context, event gateway.Event) {
	approved, err := b.service.ApprovedArtists()
	if err != nil {
		b.log.Error("artist listing failed", "error", err)
		b.reply(ctx, event.Sender, "Something went wrong. Please try again later.")
		return
	}
	if len(approved) == 0 {
		b.reply(ctx, event.Sender, "There are no approved artists available at the moment.")
		return
	}

	var response strings.Builder
	response.WriteString("🎨 Approved Artists 🎨\n\n")
	for _, artist := range approved {
		fmt.Fprintf(&response,
			"ID: %s\n"+
				"Username: @%s\n"+
				"Rating: %.1f ★ (%d)\n"+
				"Price: %s\n"+
				"Portfolio: %s\n"+
				"--------------------\n",
			artist.ID,
			artist.ID.Localpart(),
			commission.AverageRating(artist.Ratings),
			len(artist.Ratings),
			artist.PriceLabel,
			artist.PortfolioRef)
	}
	b.reply(ctx, event.Sender, strings.TrimRight(response.String(), "\n"))
}

func (b *bot) cmdSearchID(ctx context.Context, event gateway.Event) {
	if len(event.Args) == 0 {
		b.reply(ctx, event.Sender, "Please provide an Artist ID. Usage: /searchid <artist_id>")
		return
	}
	artistID, err := ref.ParsePrincipalID(event.Args[0])
	if err != nil {
		b.reply(ctx, event.Sender, "Invalid ID. Please provide the artist's full ID (e.g., @artist:atelier.local).")
		return
	}

	artist, err := b.service.ArtistByID(artistID)
	if errors.Is(err, commission.ErrNotFound) {
		b.reply(ctx, event.Sender, "No artist found with that ID.")
		return
	}
	if err != nil {
		b.log.Error("artist lookup failed", "artist", artistID, "error", err)
		b.reply(ctx, event.Sender, "Something went wrong. Please try again later.")
		return
	}

	status := "Pending Approval"
	if artist.Approved {
		status = "Approved"
	}
	b.reply(ctx, event.Sender, fmt.Sprintf(
		"🧑‍🎨 Artist Profile 🧑‍🎨\n\n"+
			"ID: %s\n"+
			"Username: @%s\n"+
			"Status: %s\n"+
			"Rating: %.1f ★ (%d ratings)\n"+
			"Price: %s\n"+
			"Portfolio: %s",
		artist.ID,
		artist.ID.Localpart(),
		status,
		commission.AverageRating(artist.Ratings),
		len(artist.Ratings),
		artist.PriceLabel,
		artist.PortfolioRef))
}

func (b *bot) cmdApproveArtist(ctx context.Context, event gateway.Event) {
	if event.Sender != b.operator {
		b.reply(ctx, event.Sender, "⛔ This is an admin-only command.")
		return
	}
	if len(event.Args) == 0 {
		b.reply(ctx, event.Sender, "Usage: /approve_artist <artist_id>")
		return
	}
	artistID, err := ref.ParsePrincipalID(event.Args[0])
	if err != nil {
		b.reply(ctx, event.Sender, "Invalid ID. Please provide the artist's full ID (e.g., @artist:atelier.local).")
		return
	}

	artist, already, err := b.service.Approve(artistID)
	if errors.Is(err, commission.ErrNotFound) {
		b.reply(ctx, event.Sender, fmt.Sprintf("Artist with ID %s not found.", artistID))
		return
	}
	if err != nil {
		b.log.Error("artist approval failed", "artist", artistID, "error", err)
		b.reply(ctx, event.Sender, "Something went wrong. Please try again later.")
		return
	}
	if already {
		b.reply(ctx, event.Sender, fmt.Sprintf("Artist @%s is already approved.", artist.ID.Localpart()))
		return
	}

	b.reply(ctx, event.Sender, fmt.Sprintf("✅ Artist @%s (ID: %s) has been approved!", artist.ID.Localpart(), artist.ID))
	b.notifyArtistApproved(ctx, artist)
}

func (b *bot) cmdRegisterArtist(ctx context.Context, event gateway.Event) {
	if _, err := b.service.ArtistByID(event.Sender); err == nil {
		b.reply(ctx, event.Sender, "You have already registered as an artist.")
		return
	} else if !errors.Is(err, commission.ErrNotFound) {
		b.log.Error("artist lookup failed", "principal", event.Sender, "error", err)
		b.reply(ctx, event.Sender, "Something went wrong. Please try again later.")
		return
	}
	b.engine.Begin(event.Sender, b.artistRegistration)
	b.reply(ctx, event.Sender, "Okay, let's get you registered as an artist.\n\nPlease send me a link to your portfolio or a text describing your work.")
}

func (b *bot) cmdOrder(ctx context.Context, event gateway.Event) {
	approved, err := b.service.ApprovedArtists()
	if err != nil {
		b.log.Error("artist listing failed", "error", err)
		b.reply(ctx, event.Sender, "Something went wrong. Please try again later.")
		return
	}
	if len(approved) == 0 {
		b.reply(ctx, event.Sender, "Sorry, there are no approved artists available to take orders right now. Please check back later.")
		return
	}
	b.engine.Begin(event.Sender, b.orderPlacement)
	b.reply(ctx, event.Sender, "Please upload a single photo you would like sketched.")
}
