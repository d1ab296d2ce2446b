// Copyright 2026 The Atelier Authors
// SPDX-License-Identifier: Apache-2.0

package conversation

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/atelier-foundation/atelier/gateway"
	"github.com/atelier-foundation/atelier/lib/clock"
	"github.com/atelier-foundation/atelier/lib/ref"
	"github.com/atelier-foundation/atelier/lib/testutil"
)

const (
	stepFirst  Step = "first"
	stepSecond Step = "second"
)

func principal(t *testing.T, raw string) ref.PrincipalID {
	t.Helper()
	id, err := ref.ParsePrincipalID(raw)
	if err != nil {
		t.Fatal(err)
	}
	return id
}

// twoStepFlow accepts text at the first step, a button at the second.
// Anything else is Invalid.
func twoStepFlow() *Flow {
	return &Flow{
		Name:    "two-step",
		Initial: stepFirst,
		Handlers: map[Step]Handler{
			stepFirst: func(ctx context.Context, state *State, event gateway.Event) Outcome {
				if event.Kind != gateway.KindText {
					return Invalid("send text")
				}
				state.Data["text"] = event.Text
				return Continue("now the button", stepSecond)
			},
			stepSecond: func(ctx context.Context, state *State, event gateway.Event) Outcome {
				if event.Kind != gateway.KindButtonPress {
					return Invalid("press a button")
				}
				return Complete("done with " + state.Data["text"])
			},
		},
	}
}

func textEvent(sender ref.PrincipalID, text string) gateway.Event {
	return gateway.Event{Kind: gateway.KindText, Sender: sender, Text: text}
}

func buttonEvent(sender ref.PrincipalID, token string) gateway.Event {
	return gateway.Event{Kind: gateway.KindButtonPress, Sender: sender, Token: token}
}

func TestStepWithoutSession(t *testing.T) {
	engine := New(Options{Clock: clock.Fake(time.Unix(0, 0))})
	alice := principal(t, "@alice:atelier.local")

	if _, ok := engine.Step(context.Background(), alice, textEvent(alice, "hi")); ok {
		t.Fatal("Step handled an event with no active session")
	}
}

func TestFlowRunsToCompletion(t *testing.T) {
	engine := New(Options{Clock: clock.Fake(time.Unix(0, 0))})
	alice := principal(t, "@alice:atelier.local")
	ctx := context.Background()

	engine.Begin(alice, twoStepFlow())
	if !engine.Active(alice) {
		t.Fatal("session not active after Begin")
	}

	outcome, ok := engine.Step(ctx, alice, textEvent(alice, "a sketch"))
	if !ok || outcome.IsInvalid() || outcome.IsComplete() {
		t.Fatalf("first step: ok=%v outcome=%+v", ok, outcome)
	}
	if outcome.Reply != "now the button" {
		t.Errorf("Reply = %q", outcome.Reply)
	}

	outcome, ok = engine.Step(ctx, alice, buttonEvent(alice, "5"))
	if !ok || !outcome.IsComplete() {
		t.Fatalf("second step: ok=%v outcome=%+v", ok, outcome)
	}
	if outcome.Reply != "done with a sketch" {
		t.Errorf("Reply = %q (session data lost)", outcome.Reply)
	}
	if engine.Active(alice) {
		t.Fatal("session still active after completion")
	}
}

func TestInvalidInputDoesNotAdvance(t *testing.T) {
	engine := New(Options{Clock: clock.Fake(time.Unix(0, 0))})
	alice := principal(t, "@alice:atelier.local")
	ctx := context.Background()

	engine.Begin(alice, twoStepFlow())

	// Wrong kind at the first step, three times over.
	for range 3 {
		outcome, ok := engine.Step(ctx, alice, buttonEvent(alice, "5"))
		if !ok || !outcome.IsInvalid() {
			t.Fatalf("outcome = %+v, want Invalid", outcome)
		}
	}

	// Still at the first step: text is accepted.
	outcome, ok := engine.Step(ctx, alice, textEvent(alice, "finally"))
	if !ok || outcome.IsInvalid() {
		t.Fatalf("outcome after invalids = %+v", outcome)
	}
}

func TestBeginReplacesActiveSession(t *testing.T) {
	engine := New(Options{Clock: clock.Fake(time.Unix(0, 0))})
	alice := principal(t, "@alice:atelier.local")
	ctx := context.Background()

	engine.Begin(alice, twoStepFlow())
	if _, ok := engine.Step(ctx, alice, textEvent(alice, "first flow")); !ok {
		t.Fatal("step failed")
	}

	// Restarting puts the principal back at the initial step with
	// fresh data.
	engine.Begin(alice, twoStepFlow())
	outcome, ok := engine.Step(ctx, alice, buttonEvent(alice, "5"))
	if !ok || !outcome.IsInvalid() {
		t.Fatalf("outcome = %+v, want Invalid at the restarted initial step", outcome)
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	engine := New(Options{Clock: clock.Fake(time.Unix(0, 0))})
	alice := principal(t, "@alice:atelier.local")

	if engine.Cancel(alice) {
		t.Fatal("Cancel reported an active session before Begin")
	}
	engine.Begin(alice, twoStepFlow())
	if !engine.Cancel(alice) {
		t.Fatal("Cancel missed the active session")
	}
	if engine.Cancel(alice) {
		t.Fatal("second Cancel reported an active session")
	}
	if engine.Active(alice) {
		t.Fatal("session survives Cancel")
	}
}

func TestIdleSessionsExpire(t *testing.T) {
	fake := clock.Fake(time.Unix(0, 0))
	engine := New(Options{Clock: fake, IdleTTL: 30 * time.Minute})
	alice := principal(t, "@alice:atelier.local")
	bob := principal(t, "@bob:atelier.local")
	ctx := context.Background()

	engine.Begin(alice, twoStepFlow())
	engine.Begin(bob, twoStepFlow())

	// Alice stays active, bob goes idle.
	fake.Advance(20 * time.Minute)
	if _, ok := engine.Step(ctx, alice, textEvent(alice, "still here")); !ok {
		t.Fatal("step failed")
	}

	fake.Advance(15 * time.Minute)
	if expired := engine.ExpireIdle(fake.Now()); expired != 1 {
		t.Fatalf("ExpireIdle = %d, want 1", expired)
	}
	if !engine.Active(alice) {
		t.Fatal("active session expired")
	}
	if engine.Active(bob) {
		t.Fatal("idle session survived")
	}
}

func TestZeroTTLNeverExpires(t *testing.T) {
	fake := clock.Fake(time.Unix(0, 0))
	engine := New(Options{Clock: fake})
	alice := principal(t, "@alice:atelier.local")

	engine.Begin(alice, twoStepFlow())
	fake.Advance(1000 * time.Hour)
	if expired := engine.ExpireIdle(fake.Now()); expired != 0 {
		t.Fatalf("ExpireIdle = %d with zero TTL", expired)
	}
	if !engine.Active(alice) {
		t.Fatal("session expired with zero TTL")
	}
}

func TestJanitorRunExpiresViaTicker(t *testing.T) {
	fake := clock.Fake(time.Unix(0, 0))
	engine := New(Options{Clock: fake, IdleTTL: 10 * time.Minute})
	alice := principal(t, "@alice:atelier.local")

	engine.Begin(alice, twoStepFlow())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		engine.Run(ctx)
		close(done)
	}()

	// Let the janitor register its ticker, then push past the TTL and
	// wait for the sweep.
	deadline := time.Now().Add(5 * time.Second)
	for engine.Active(alice) {
		if time.Now().After(deadline) {
			t.Fatal("janitor never expired the idle session")
		}
		fake.Advance(10 * time.Minute)
		time.Sleep(time.Millisecond)
	}

	cancel()
	testutil.RequireClosed(t, done, 5*time.Second, "waiting for Run to return after cancel")
}

// Exercises the janitor sweeping while principals step; run with -race.
func TestExpireIdleConcurrentWithSteps(t *testing.T) {
	fake := clock.Fake(time.Unix(0, 0))
	engine := New(Options{Clock: fake, IdleTTL: time.Minute})
	ctx := context.Background()

	const principals = 4
	ids := make([]ref.PrincipalID, principals)
	for i := range ids {
		ids[i] = principal(t, fmt.Sprintf("@user%d:atelier.local", i))
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				engine.Begin(id, twoStepFlow())
				engine.Step(ctx, id, textEvent(id, "payload"))
				engine.Step(ctx, id, buttonEvent(id, "5"))
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for range 200 {
			engine.ExpireIdle(fake.Now().Add(2 * time.Minute))
		}
	}()
	wg.Wait()
}

func TestConcurrentPrincipalsAreIndependent(t *testing.T) {
	engine := New(Options{Clock: clock.Fake(time.Unix(0, 0))})
	ctx := context.Background()

	const principals = 8
	ids := make([]ref.PrincipalID, principals)
	for i := range ids {
		ids[i] = principal(t, fmt.Sprintf("@user%d:atelier.local", i))
		engine.Begin(ids[i], twoStepFlow())
	}

	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			text := fmt.Sprintf("payload-%d", i)
			if outcome, ok := engine.Step(ctx, id, textEvent(id, text)); !ok || outcome.IsInvalid() {
				t.Errorf("principal %d first step: %+v", i, outcome)
				return
			}
			outcome, ok := engine.Step(ctx, id, buttonEvent(id, "5"))
			if !ok || !outcome.IsComplete() {
				t.Errorf("principal %d second step: %+v", i, outcome)
				return
			}
			if want := "done with " + text; outcome.Reply != want {
				t.Errorf("principal %d reply = %q, want %q (cross-session data)", i, outcome.Reply, want)
			}
		}()
	}
	wg.Wait()
}
