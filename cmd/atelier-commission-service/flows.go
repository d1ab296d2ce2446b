// Copyright 2026 The Atelier Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/atelier-foundation/atelier/commission"
	"github.com/atelier-foundation/atelier/conversation"
	"github.com/atelier-foundation/atelier/gateway"
	"github.com/atelier-foundation/atelier/lib/ref"
)

// Conversation steps.
const (
	stepAwaitingPortfolio conversation.Step = "awaiting-portfolio"
	stepAwaitingPhoto     conversation.Step = "awaiting-photo"
	stepAwaitingArtistID  conversation.Step = "awaiting-artist-id"
	stepAwaitingStars     conversation.Step = "awaiting-stars"
)

// dataArtistKey carries the artist under rating between the two rating
// steps.
const dataArtistKey = "artist"

// newArtistRegistrationFlow builds the one-step artist registration
// dialogue: a portfolio link (or description) completes the profile.
func (b *bot) newArtistRegistrationFlow() *conversation.Flow {
	return &conversation.Flow{
		Name:    "artist-registration",
		Initial: stepAwaitingPortfolio,
		Handlers: map[conversation.Step]conversation.Handler{
			stepAwaitingPortfolio: func(ctx context.Context, state *conversation.State, event gateway.Event) conversation.Outcome {
				if event.Kind != gateway.KindText {
					return conversation.Invalid("Please send me a link to your portfolio or a text describing your work.")
				}
				_, created, err := b.service.RegisterArtist(event.Sender, event.Sender.Localpart(), event.Text)
				if err != nil {
					b.log.Error("artist registration failed", "principal", event.Sender, "error", err)
					return conversation.Complete("Something went wrong creating your profile. Please try /register_artist again.")
				}
				if !created {
					return conversation.Complete("You have already registered as an artist.")
				}
				return conversation.Complete(
					"✅ Your artist profile has been created and is pending approval.\n" +
						"An admin will review it shortly. You will be notified upon approval.")
			},
		},
	}
}

// newOrderPlacementFlow builds the one-step ordering dialogue: an
// uploaded photo triggers assignment and completes the order.
func (b *bot) newOrderPlacementFlow() *conversation.Flow {
	return &conversation.Flow{
		Name:    "order-placement",
		Initial: stepAwaitingPhoto,
		Handlers: map[conversation.Step]conversation.Handler{
			stepAwaitingPhoto: func(ctx context.Context, state *conversation.State, event gateway.Event) conversation.Outcome {
				if event.Kind != gateway.KindPhoto {
					return conversation.Invalid("Please upload a single photo you would like sketched.")
				}
				order, artist, err := b.service.Assign(event.Sender, event.MediaRef)
				if errors.Is(err, commission.ErrNoArtistsAvailable) {
					// The last approved artist disappeared between the
					// /order entry check and now.
					return conversation.Complete("An unexpected error occurred: no artists are available.")
				}
				if err != nil {
					b.log.Error("order assignment failed", "user", event.Sender, "error", err)
					return conversation.Complete("Something went wrong placing your order. Please try /order again.")
				}
				b.notifyArtistAssigned(ctx, artist, order, event.Sender)
				return conversation.Complete(fmt.Sprintf(
					"✅ Order placed successfully!\n\n"+
						"Your order (ID: %s) has been assigned to artist @%s.\n"+
						"Use /track to monitor its status.",
					order.ID, artist.ID.Localpart()))
			},
		},
	}
}

// newRatingFlow builds the two-step rating dialogue: artist ID, then a
// star button press.
func (b *bot) newRatingFlow() *conversation.Flow {
	return &conversation.Flow{
		Name:    "rating",
		Initial: stepAwaitingArtistID,
		Handlers: map[conversation.Step]conversation.Handler{
			stepAwaitingArtistID: func(ctx context.Context, state *conversation.State, event gateway.Event) conversation.Outcome {
				if event.Kind != gateway.KindText {
					return conversation.Invalid("Please send the Artist ID as text.")
				}
				artistID, err := ref.ParsePrincipalID(event.Text)
				if err != nil {
					return conversation.Invalid("That's not a valid ID. Please send the artist's full ID (e.g., @artist:atelier.local).")
				}
				artist, err := b.service.ArtistByID(artistID)
				if err != nil || !artist.Approved {
					return conversation.Invalid("No approved artist found with this ID. Please check the ID and try again.")
				}
				state.Data[dataArtistKey] = artistID.String()
				return conversation.Continue("How would you rate this artist? React with ⭐ (1-5 stars).", stepAwaitingStars)
			},
			stepAwaitingStars: func(ctx context.Context, state *conversation.State, event gateway.Event) conversation.Outcome {
				if event.Kind != gateway.KindButtonPress {
					return conversation.Invalid("Please rate with a ⭐ reaction (1-5 stars).")
				}
				stars, err := strconv.Atoi(event.Token)
				if err != nil || stars < 1 || stars > 5 {
					return conversation.Invalid("Please rate with a ⭐ reaction (1-5 stars).")
				}
				artistID, parseErr := ref.ParsePrincipalID(state.Data[dataArtistKey])
				if parseErr != nil {
					b.log.Error("rating session lost its artist", "user", event.Sender)
					return conversation.Complete("Session expired. Please start again with /rate.")
				}
				if _, err := b.service.Rate(artistID, stars); err != nil {
					b.log.Error("rating failed", "artist", artistID, "error", err)
					return conversation.Complete("Error: Could not find the artist to rate.")
				}
				return conversation.Complete(fmt.Sprintf("Thank you! You gave a %d-star rating.", stars))
			},
		},
	}
}
