// Copyright 2026 The Atelier Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"

	"github.com/atelier-foundation/atelier/commission"
	"github.com/atelier-foundation/atelier/lib/ref"
)

// Artist notifications are best-effort: the store transaction that
// produced them has already committed, so delivery failures are logged
// and never surfaced to the user who triggered them.

// notifyArtistAssigned tells the artist about a new order and forwards
// the reference photo.
func (b *bot) notifyArtistAssigned(ctx context.Context, artist commission.Artist, order commission.Order, user ref.PrincipalID) {
	text := fmt.Sprintf("📣 You have a new sketch order from @%s!", user.Localpart())
	if err := b.messenger.SendText(ctx, artist.ID, text); err != nil {
		b.log.Error("failed to notify artist of new order",
			"artist", artist.ID, "order_id", order.ID, "error", err)
		return
	}
	caption := fmt.Sprintf("New order %s from @%s. Please confirm or decline.", order.ID, user.Localpart())
	if err := b.messenger.SendPhoto(ctx, artist.ID, order.MediaRef, caption); err != nil {
		b.log.Error("failed to forward order photo to artist",
			"artist", artist.ID, "order_id", order.ID, "error", err)
	}
}

// notifyArtistApproved congratulates a freshly approved artist.
func (b *bot) notifyArtistApproved(ctx context.Context, artist commission.Artist) {
	text := "🎉 Congratulations! Your artist application has been approved. You will now be assigned new orders."
	if err := b.messenger.SendText(ctx, artist.ID, text); err != nil {
		b.log.Error("failed to notify approved artist",
			"artist", artist.ID, "error", err)
	}
}
