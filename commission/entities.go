// Copyright 2026 The Atelier Authors
// SPDX-License-Identifier: Apache-2.0

package commission

import (
	"github.com/atelier-foundation/atelier/lib/ref"
)

// OrderStatus is the lifecycle state of an order. The base flow only
// ever writes [StatusPendingAcceptance]; the remaining states exist so
// snapshots written by richer builds stay readable.
type OrderStatus string

const (
	StatusPendingAcceptance OrderStatus = "pending-acceptance"
	StatusAccepted          OrderStatus = "accepted"
	StatusDeclined          OrderStatus = "declined"
	StatusCompleted         OrderStatus = "completed"
)

// User is a registered customer.
type User struct {
	ID           ref.PrincipalID `cbor:"id"`
	Name         string          `cbor:"name"`
	RegisteredAt int64           `cbor:"registered_at"`
}

func (u User) EntityID() string { return u.ID.String() }

func (u User) Clone() User { return u }

// Artist is a registered sketch artist. Artists start unapproved and
// become assignable only after the operator approves them.
type Artist struct {
	ID           ref.PrincipalID `cbor:"id"`
	Name         string          `cbor:"name"`
	PortfolioRef string          `cbor:"portfolio"`
	PriceLabel   string          `cbor:"price"`
	Approved     bool            `cbor:"approved"`
	Ratings      []int           `cbor:"ratings"`
	RegisteredAt int64           `cbor:"registered_at"`
}

func (a Artist) EntityID() string { return a.ID.String() }

func (a Artist) Clone() Artist {
	clone := a
	clone.Ratings = append([]int(nil), a.Ratings...)
	return clone
}

// Order is one placed commission, created already bound to its
// assigned artist.
type Order struct {
	ID        ref.OrderID     `cbor:"id"`
	UserID    ref.PrincipalID `cbor:"user_id"`
	ArtistID  ref.PrincipalID `cbor:"artist_id"`
	MediaRef  string          `cbor:"media_ref"`
	Status    OrderStatus     `cbor:"status"`
	CreatedAt int64           `cbor:"created_at"`
}

func (o Order) EntityID() string { return o.ID.String() }

func (o Order) Clone() Order { return o }

// AverageRating computes the arithmetic mean of ratings, 0.0 when
// there are none.
func AverageRating(ratings []int) float64 {
	if len(ratings) == 0 {
		return 0
	}
	total := 0
	for _, stars := range ratings {
		total += stars
	}
	return float64(total) / float64(len(ratings))
}
