// Copyright 2026 The Atelier Authors
// SPDX-License-Identifier: Apache-2.0

package commission

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/atelier-foundation/atelier/lib/clock"
	"github.com/atelier-foundation/atelier/lib/ref"
	"github.com/atelier-foundation/atelier/store"
)

// Sentinel errors callers branch on.
var (
	// ErrNotFound reports a lookup for a user, artist, or order that
	// does not exist.
	ErrNotFound = errors.New("commission: not found")
	// ErrNotApproved reports an operation that requires an approved
	// artist against one still pending approval.
	ErrNotApproved = errors.New("commission: artist not approved")
	// ErrNoArtistsAvailable reports an assignment attempt when no
	// approved artist exists.
	ErrNoArtistsAvailable = errors.New("commission: no approved artists available")
)

// PriceRange bounds the randomly assigned artist price label.
type PriceRange struct {
	Min      int
	Max      int
	Currency string
}

// Options configures a Service. Zero fields get production defaults.
type Options struct {
	// Clock supplies order timestamps. Defaults to clock.Real().
	Clock clock.Clock
	// RandInt returns a uniform value in [0, n). Defaults to
	// math/rand/v2. Tests inject a deterministic pick.
	RandInt func(n int) int
	// Price is the range artist price labels are drawn from.
	// Defaults to $15–$50 USD.
	Price PriceRange
	// Logger receives service-level events. Defaults to slog.Default().
	Logger *slog.Logger
}

// Service is the write path over the marketplace state. All methods
// are safe for concurrent use.
type Service struct {
	users   *store.Collection[User]
	artists *store.Collection[Artist]
	orders  *store.Collection[Order]
	clock   clock.Clock
	randInt func(n int) int
	price   PriceRange
	log     *slog.Logger
}

// Open creates a Service over the snapshots in stateDir. The files are
// read lazily; a fresh directory is an empty marketplace.
func Open(stateDir string, opts Options) *Service {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.RandInt == nil {
		opts.RandInt = rand.IntN
	}
	if opts.Price == (PriceRange{}) {
		opts.Price = PriceRange{Min: 15, Max: 50, Currency: "USD"}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Service{
		users:   store.NewCollection[User](stateDir, "users"),
		artists: store.NewCollection[Artist](stateDir, "artists"),
		orders:  store.NewCollection[Order](stateDir, "orders"),
		clock:   opts.Clock,
		randInt: opts.RandInt,
		price:   opts.Price,
		log:     opts.Logger,
	}
}

// RegisterUser creates a user account. Registration is idempotent by
// principal: re-registering reports created == false and changes
// nothing.
func (s *Service) RegisterUser(id ref.PrincipalID, name string) (created bool, err error) {
	err = s.users.Transact(func(users []User) ([]User, error) {
		for _, u := range users {
			if u.ID == id {
				return users, nil
			}
		}
		created = true
		return append(users, User{
			ID:           id,
			Name:         name,
			RegisteredAt: s.clock.Now().Unix(),
		}), nil
	})
	if err != nil {
		return false, fmt.Errorf("registering user %s: %w", id, err)
	}
	return created, nil
}

// RegisterArtist creates an artist profile, unapproved, with an empty
// rating history and a provider-assigned price label drawn from the
// configured range. Re-registering reports created == false and
// returns the existing profile unchanged.
func (s *Service) RegisterArtist(id ref.PrincipalID, name, portfolioRef string) (artist Artist, created bool, err error) {
	err = s.artists.Transact(func(artists []Artist) ([]Artist, error) {
		for _, a := range artists {
			if a.ID == id {
				artist = a
				return artists, nil
			}
		}
		created = true
		artist = Artist{
			ID:           id,
			Name:         name,
			PortfolioRef: portfolioRef,
			PriceLabel:   s.priceLabel(),
			Approved:     false,
			Ratings:      []int{},
			RegisteredAt: s.clock.Now().Unix(),
		}
		return append(artists, artist), nil
	})
	if err != nil {
		return Artist{}, false, fmt.Errorf("registering artist %s: %w", id, err)
	}
	return artist, created, nil
}

// priceLabel draws a price from the configured range, e.g. "$23 USD".
func (s *Service) priceLabel() string {
	span := s.price.Max - s.price.Min + 1
	if span < 1 {
		span = 1
	}
	return fmt.Sprintf("$%d %s", s.price.Min+s.randInt(span), s.price.Currency)
}

// Approve marks an artist as approved and assignable. Approving an
// already-approved artist reports already == true and changes nothing.
// Returns ErrNotFound when no such artist exists.
func (s *Service) Approve(id ref.PrincipalID) (artist Artist, already bool, err error) {
	err = s.artists.Transact(func(artists []Artist) ([]Artist, error) {
		for i, a := range artists {
			if a.ID != id {
				continue
			}
			already = a.Approved
			artists[i].Approved = true
			artist = artists[i]
			return artists, nil
		}
		return nil, fmt.Errorf("approving artist %s: %w", id, ErrNotFound)
	})
	if err != nil {
		return Artist{}, false, err
	}
	return artist, already, nil
}

// Assign creates an order for userID by picking one approved artist
// uniformly at random. Returns ErrNoArtistsAvailable when no approved
// artist exists; in that case no order is created.
//
// The artist snapshot and the order write are separate transactions:
// an artist un-approved between the two still receives the order. The
// pick is taken from consistent state, and approval status is advisory
// for routing, so the window is tolerated rather than locked away.
func (s *Service) Assign(userID ref.PrincipalID, mediaRef string) (Order, Artist, error) {
	approved, err := s.ApprovedArtists()
	if err != nil {
		return Order{}, Artist{}, fmt.Errorf("assigning order: %w", err)
	}
	if len(approved) == 0 {
		return Order{}, Artist{}, ErrNoArtistsAvailable
	}
	artist := approved[s.randInt(len(approved))]

	var order Order
	err = s.orders.Transact(func(orders []Order) ([]Order, error) {
		id := ref.OrderID(s.clock.Now().Unix())
		for _, o := range orders {
			if o.ID >= id {
				id = o.ID + 1
			}
		}
		order = Order{
			ID:        id,
			UserID:    userID,
			ArtistID:  artist.ID,
			MediaRef:  mediaRef,
			Status:    StatusPendingAcceptance,
			CreatedAt: s.clock.Now().Unix(),
		}
		return append(orders, order), nil
	})
	if err != nil {
		return Order{}, Artist{}, fmt.Errorf("assigning order: %w", err)
	}

	s.log.Info("order assigned",
		"order_id", order.ID,
		"user", userID,
		"artist", artist.ID)
	return order, artist, nil
}

// Rate appends a star rating (1..5) to an artist's history. Returns
// ErrNotFound for an unknown artist and ErrNotApproved for one still
// pending approval.
func (s *Service) Rate(artistID ref.PrincipalID, stars int) (Artist, error) {
	if stars < 1 || stars > 5 {
		return Artist{}, fmt.Errorf("rating must be 1..5 stars, got %d", stars)
	}
	var artist Artist
	err := s.artists.Transact(func(artists []Artist) ([]Artist, error) {
		for i, a := range artists {
			if a.ID != artistID {
				continue
			}
			if !a.Approved {
				return nil, fmt.Errorf("rating artist %s: %w", artistID, ErrNotApproved)
			}
			artists[i].Ratings = append(artists[i].Ratings, stars)
			artist = artists[i]
			return artists, nil
		}
		return nil, fmt.Errorf("rating artist %s: %w", artistID, ErrNotFound)
	})
	if err != nil {
		return Artist{}, err
	}
	return artist, nil
}

// Orders returns userID's orders, oldest first (IDs are monotonic, so
// store order is creation order).
func (s *Service) Orders(userID ref.PrincipalID) ([]Order, error) {
	all, err := s.orders.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("listing orders for %s: %w", userID, err)
	}
	var mine []Order
	for _, o := range all {
		if o.UserID == userID {
			mine = append(mine, o)
		}
	}
	return mine, nil
}

// ApprovedArtists returns all artists currently assignable.
func (s *Service) ApprovedArtists() ([]Artist, error) {
	all, err := s.artists.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("listing approved artists: %w", err)
	}
	var approved []Artist
	for _, a := range all {
		if a.Approved {
			approved = append(approved, a)
		}
	}
	return approved, nil
}

// ArtistByID returns one artist's profile regardless of approval
// status. Returns ErrNotFound when absent.
func (s *Service) ArtistByID(id ref.PrincipalID) (Artist, error) {
	all, err := s.artists.ReadAll()
	if err != nil {
		return Artist{}, fmt.Errorf("looking up artist %s: %w", id, err)
	}
	for _, a := range all {
		if a.ID == id {
			return a, nil
		}
	}
	return Artist{}, fmt.Errorf("looking up artist %s: %w", id, ErrNotFound)
}

// IsRegisteredUser reports whether id has a user account.
func (s *Service) IsRegisteredUser(id ref.PrincipalID) (bool, error) {
	all, err := s.users.ReadAll()
	if err != nil {
		return false, fmt.Errorf("looking up user %s: %w", id, err)
	}
	for _, u := range all {
		if u.ID == id {
			return true, nil
		}
	}
	return false, nil
}
