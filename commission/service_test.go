// Copyright 2026 The Atelier Authors
// SPDX-License-Identifier: Apache-2.0

package commission

import (
	"errors"
	"testing"
	"time"

	"github.com/atelier-foundation/atelier/lib/clock"
	"github.com/atelier-foundation/atelier/lib/ref"
	"github.com/atelier-foundation/atelier/lib/testutil"
)

func principal(t *testing.T, raw string) ref.PrincipalID {
	t.Helper()
	id, err := ref.ParsePrincipalID(raw)
	if err != nil {
		t.Fatal(err)
	}
	return id
}

// newService returns a service with a pinned clock and a rand that
// always picks index 0.
func newService(t *testing.T) (*Service, *clock.FakeClock) {
	t.Helper()
	fake := clock.Fake(time.Unix(1_700_000_000, 0))
	svc := Open(testutil.StateDir(t), Options{
		Clock:   fake,
		RandInt: func(n int) int { return 0 },
	})
	return svc, fake
}

func TestAverageRating(t *testing.T) {
	tests := []struct {
		name    string
		ratings []int
		want    float64
	}{
		{"empty", nil, 0},
		{"single", []int{4}, 4},
		{"mixed", []int{5, 4, 4, 2}, 3.75},
		{"all fives", []int{5, 5, 5}, 5},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := AverageRating(test.ratings); got != test.want {
				t.Errorf("AverageRating(%v) = %v, want %v", test.ratings, got, test.want)
			}
		})
	}
}

func TestRegisterUserIdempotent(t *testing.T) {
	svc, _ := newService(t)
	alice := principal(t, "@alice:atelier.local")

	created, err := svc.RegisterUser(alice, "Alice")
	if err != nil || !created {
		t.Fatalf("RegisterUser = %v, %v; want created", created, err)
	}

	created, err = svc.RegisterUser(alice, "Alice Again")
	if err != nil {
		t.Fatal(err)
	}
	if created {
		t.Fatal("second RegisterUser reported created")
	}

	registered, err := svc.IsRegisteredUser(alice)
	if err != nil || !registered {
		t.Fatalf("IsRegisteredUser = %v, %v", registered, err)
	}
}

func TestRegisterArtistAssignsPriceLabel(t *testing.T) {
	fake := clock.Fake(time.Unix(1_700_000_000, 0))
	svc := Open(testutil.StateDir(t), Options{
		Clock:   fake,
		RandInt: func(n int) int { return n - 1 },
		Price:   PriceRange{Min: 15, Max: 50, Currency: "USD"},
	})

	artist, created, err := svc.RegisterArtist(principal(t, "@bob:atelier.local"), "Bob", "mxc://atelier.local/portfolio")
	if err != nil || !created {
		t.Fatalf("RegisterArtist = %v, %v", created, err)
	}
	if artist.PriceLabel != "$50 USD" {
		t.Errorf("PriceLabel = %q, want $50 USD", artist.PriceLabel)
	}
	if artist.Approved {
		t.Error("new artist is approved")
	}
	if len(artist.Ratings) != 0 {
		t.Errorf("new artist has ratings %v", artist.Ratings)
	}
}

func TestRegisterArtistIdempotent(t *testing.T) {
	svc, _ := newService(t)
	bob := principal(t, "@bob:atelier.local")

	first, _, err := svc.RegisterArtist(bob, "Bob", "mxc://a/1")
	if err != nil {
		t.Fatal(err)
	}
	second, created, err := svc.RegisterArtist(bob, "Robert", "mxc://a/2")
	if err != nil {
		t.Fatal(err)
	}
	if created {
		t.Fatal("second RegisterArtist reported created")
	}
	if second.Name != first.Name || second.PortfolioRef != first.PortfolioRef {
		t.Fatalf("re-registration changed the profile: %+v", second)
	}
}

func TestApprove(t *testing.T) {
	svc, _ := newService(t)
	bob := principal(t, "@bob:atelier.local")

	if _, _, err := svc.Approve(bob); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Approve unknown artist = %v, want ErrNotFound", err)
	}

	if _, _, err := svc.RegisterArtist(bob, "Bob", "mxc://a/1"); err != nil {
		t.Fatal(err)
	}

	artist, already, err := svc.Approve(bob)
	if err != nil {
		t.Fatal(err)
	}
	if already || !artist.Approved {
		t.Fatalf("Approve = already %v, approved %v", already, artist.Approved)
	}

	_, already, err = svc.Approve(bob)
	if err != nil {
		t.Fatal(err)
	}
	if !already {
		t.Fatal("second Approve did not report already-approved")
	}
}

func TestAssignRequiresApprovedArtist(t *testing.T) {
	svc, _ := newService(t)
	alice := principal(t, "@alice:atelier.local")
	bob := principal(t, "@bob:atelier.local")

	if _, _, err := svc.Assign(alice, "mxc://a/photo"); !errors.Is(err, ErrNoArtistsAvailable) {
		t.Fatalf("Assign with no artists = %v, want ErrNoArtistsAvailable", err)
	}

	// An unapproved artist is not assignable either.
	if _, _, err := svc.RegisterArtist(bob, "Bob", "mxc://a/1"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := svc.Assign(alice, "mxc://a/photo"); !errors.Is(err, ErrNoArtistsAvailable) {
		t.Fatalf("Assign with only unapproved artists = %v, want ErrNoArtistsAvailable", err)
	}

	if orders, err := svc.Orders(alice); err != nil || len(orders) != 0 {
		t.Fatalf("failed assignment left orders behind: %v, %v", orders, err)
	}
}

func TestAssignPicksOnlyApprovedArtists(t *testing.T) {
	svc, _ := newService(t)
	alice := principal(t, "@alice:atelier.local")
	bob := principal(t, "@bob:atelier.local")
	carol := principal(t, "@carol:atelier.local")

	if _, _, err := svc.RegisterArtist(bob, "Bob", "mxc://a/1"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := svc.RegisterArtist(carol, "Carol", "mxc://a/2"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := svc.Approve(carol); err != nil {
		t.Fatal(err)
	}

	// RandInt pins index 0; the approved list holds only carol.
	for range 5 {
		order, artist, err := svc.Assign(alice, "mxc://a/photo")
		if err != nil {
			t.Fatal(err)
		}
		if artist.ID != carol {
			t.Fatalf("assigned %s, want approved artist %s", artist.ID, carol)
		}
		if order.ArtistID != carol || order.Status != StatusPendingAcceptance {
			t.Fatalf("order = %+v", order)
		}
	}
}

func TestOrderIDsAreMonotonicAcrossClockRegression(t *testing.T) {
	svc, fake := newService(t)
	alice := principal(t, "@alice:atelier.local")
	bob := principal(t, "@bob:atelier.local")

	if _, _, err := svc.RegisterArtist(bob, "Bob", "mxc://a/1"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := svc.Approve(bob); err != nil {
		t.Fatal(err)
	}

	first, _, err := svc.Assign(alice, "mxc://a/1")
	if err != nil {
		t.Fatal(err)
	}
	if first.ID != ref.OrderID(1_700_000_000) {
		t.Fatalf("first order ID = %v", first.ID)
	}

	// Same second: the ID bumps past the existing one.
	second, _, err := svc.Assign(alice, "mxc://a/2")
	if err != nil {
		t.Fatal(err)
	}
	if second.ID != first.ID+1 {
		t.Fatalf("second order ID = %v, want %v", second.ID, first.ID+1)
	}

	// Clock regression: IDs still strictly increase.
	fake.Advance(-time.Hour)
	third, _, err := svc.Assign(alice, "mxc://a/3")
	if err != nil {
		t.Fatal(err)
	}
	if third.ID <= second.ID {
		t.Fatalf("third order ID = %v, not after %v", third.ID, second.ID)
	}
}

func TestRate(t *testing.T) {
	svc, _ := newService(t)
	bob := principal(t, "@bob:atelier.local")
	ghost := principal(t, "@ghost:atelier.local")

	if _, err := svc.Rate(ghost, 5); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Rate unknown artist = %v, want ErrNotFound", err)
	}

	if _, _, err := svc.RegisterArtist(bob, "Bob", "mxc://a/1"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Rate(bob, 5); !errors.Is(err, ErrNotApproved) {
		t.Fatalf("Rate unapproved artist = %v, want ErrNotApproved", err)
	}

	if _, _, err := svc.Approve(bob); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Rate(bob, 0); err == nil {
		t.Fatal("Rate accepted 0 stars")
	}
	if _, err := svc.Rate(bob, 6); err == nil {
		t.Fatal("Rate accepted 6 stars")
	}

	// Ratings append in submission order.
	for _, stars := range []int{5, 3, 4} {
		if _, err := svc.Rate(bob, stars); err != nil {
			t.Fatal(err)
		}
	}
	artist, err := svc.ArtistByID(bob)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{5, 3, 4}
	if len(artist.Ratings) != len(want) {
		t.Fatalf("Ratings = %v, want %v", artist.Ratings, want)
	}
	for i := range want {
		if artist.Ratings[i] != want[i] {
			t.Fatalf("Ratings = %v, want %v", artist.Ratings, want)
		}
	}
	if got := AverageRating(artist.Ratings); got != 4 {
		t.Errorf("AverageRating = %v, want 4", got)
	}
}

// TestMarketplaceScenario walks the whole lifecycle: a user registers,
// assignment fails while no artist is approved, an artist registers
// and gets approved, the order lands on them, and a rating sticks.
func TestMarketplaceScenario(t *testing.T) {
	svc, _ := newService(t)
	alice := principal(t, "@alice:atelier.local")
	bob := principal(t, "@bob:atelier.local")

	if created, err := svc.RegisterUser(alice, "Alice"); err != nil || !created {
		t.Fatalf("RegisterUser = %v, %v", created, err)
	}

	if _, _, err := svc.Assign(alice, "mxc://a/ref"); !errors.Is(err, ErrNoArtistsAvailable) {
		t.Fatalf("Assign before any artist = %v", err)
	}

	if _, created, err := svc.RegisterArtist(bob, "Bob", "mxc://a/portfolio"); err != nil || !created {
		t.Fatalf("RegisterArtist = %v, %v", created, err)
	}
	if _, _, err := svc.Approve(bob); err != nil {
		t.Fatal(err)
	}

	order, artist, err := svc.Assign(alice, "mxc://a/ref")
	if err != nil {
		t.Fatal(err)
	}
	if artist.ID != bob || order.UserID != alice {
		t.Fatalf("order = %+v assigned to %s", order, artist.ID)
	}

	orders, err := svc.Orders(alice)
	if err != nil {
		t.Fatal(err)
	}
	if len(orders) != 1 || orders[0].ID != order.ID {
		t.Fatalf("Orders = %+v", orders)
	}

	rated, err := svc.Rate(bob, 5)
	if err != nil {
		t.Fatal(err)
	}
	if AverageRating(rated.Ratings) != 5 {
		t.Fatalf("Ratings = %v", rated.Ratings)
	}
}

func TestStatePersistsAcrossReopen(t *testing.T) {
	dir := testutil.StateDir(t)
	fake := clock.Fake(time.Unix(1_700_000_000, 0))
	opts := Options{Clock: fake, RandInt: func(n int) int { return 0 }}
	alice := principal(t, "@alice:atelier.local")
	bob := principal(t, "@bob:atelier.local")

	svc := Open(dir, opts)
	if _, err := svc.RegisterUser(alice, "Alice"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := svc.RegisterArtist(bob, "Bob", "mxc://a/1"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := svc.Approve(bob); err != nil {
		t.Fatal(err)
	}
	order, _, err := svc.Assign(alice, "mxc://a/photo")
	if err != nil {
		t.Fatal(err)
	}

	reopened := Open(dir, opts)
	registered, err := reopened.IsRegisteredUser(alice)
	if err != nil || !registered {
		t.Fatalf("IsRegisteredUser after reopen = %v, %v", registered, err)
	}
	orders, err := reopened.Orders(alice)
	if err != nil {
		t.Fatal(err)
	}
	if len(orders) != 1 || orders[0].ID != order.ID || orders[0].ArtistID != bob {
		t.Fatalf("Orders after reopen = %+v", orders)
	}

	// New orders after reopen continue past the persisted IDs.
	next, _, err := reopened.Assign(alice, "mxc://a/photo2")
	if err != nil {
		t.Fatal(err)
	}
	if next.ID <= order.ID {
		t.Fatalf("order ID %v not after %v", next.ID, order.ID)
	}
}
