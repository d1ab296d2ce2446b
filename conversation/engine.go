// Copyright 2026 The Atelier Authors
// SPDX-License-Identifier: Apache-2.0

package conversation

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/atelier-foundation/atelier/gateway"
	"github.com/atelier-foundation/atelier/lib/clock"
	"github.com/atelier-foundation/atelier/lib/ref"
)

// Step names one state within a flow.
type Step string

// State is the mutable session state a handler sees: the current step
// and a scratch map that survives across steps of one session.
type State struct {
	Step Step
	Data map[string]string
}

// Handler processes one inbound event at one step. It may mutate
// state.Data; the step only changes through the returned Outcome.
type Handler func(ctx context.Context, state *State, event gateway.Event) Outcome

// Flow is a finite-state dialogue definition. Flows are immutable
// after construction and shared across sessions.
type Flow struct {
	Name     string
	Initial  Step
	Handlers map[Step]Handler
}

type outcomeKind int

const (
	outcomeContinue outcomeKind = iota
	outcomeComplete
	outcomeInvalid
)

// Outcome is a handler's verdict on one event.
type Outcome struct {
	kind  outcomeKind
	next  Step
	Reply string
}

// Continue advances the session to next and sends reply.
func Continue(reply string, next Step) Outcome {
	return Outcome{kind: outcomeContinue, next: next, Reply: reply}
}

// Complete ends the session and sends reply.
func Complete(reply string) Outcome {
	return Outcome{kind: outcomeComplete, Reply: reply}
}

// Invalid rejects the event: reply is sent, the session stays at the
// current step with its data untouched by the engine.
func Invalid(reply string) Outcome {
	return Outcome{kind: outcomeInvalid, Reply: reply}
}

// IsComplete reports whether the outcome ended the session.
func (o Outcome) IsComplete() bool { return o.kind == outcomeComplete }

// IsInvalid reports whether the event was rejected.
func (o Outcome) IsInvalid() bool { return o.kind == outcomeInvalid }

// session is one principal's active dialogue. The engine mutex guards
// the table; the session mutex serializes steps for this principal.
// lastActive is guarded by the engine mutex, not the session mutex, so
// the janitor can sweep without taking every session lock.
type session struct {
	mu    sync.Mutex
	flow  *Flow
	state State

	lastActive time.Time
}

// Options configures an Engine.
type Options struct {
	// Clock drives idle tracking and the janitor. Defaults to
	// clock.Real().
	Clock clock.Clock
	// IdleTTL is how long an untouched session survives. Zero means
	// sessions never expire.
	IdleTTL time.Duration
	// Logger receives session lifecycle events. Defaults to
	// slog.Default().
	Logger *slog.Logger
}

// Engine owns the per-principal session table.
type Engine struct {
	clock clock.Clock
	ttl   time.Duration
	log   *slog.Logger

	mu       sync.Mutex
	sessions map[ref.PrincipalID]*session
}

// New creates an empty engine.
func New(opts Options) *Engine {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Engine{
		clock:    opts.Clock,
		ttl:      opts.IdleTTL,
		log:      opts.Logger,
		sessions: make(map[ref.PrincipalID]*session),
	}
}

// Begin starts flow for principal at its initial step. Any session
// already active for the principal is discarded: the new flow wins.
func (e *Engine) Begin(principal ref.PrincipalID, flow *Flow) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, replaced := e.sessions[principal]; replaced {
		e.log.Debug("conversation replaced", "principal", principal, "flow", flow.Name)
	}
	e.sessions[principal] = &session{
		flow: flow,
		state: State{
			Step: flow.Initial,
			Data: make(map[string]string),
		},
		lastActive: e.clock.Now(),
	}
}

// Step feeds one event to the principal's active session. The second
// return is false when no session is active; the event is then the
// router's to handle.
//
// Steps for one principal are serialized; different principals run
// concurrently.
func (e *Engine) Step(ctx context.Context, principal ref.PrincipalID, event gateway.Event) (Outcome, bool) {
	e.mu.Lock()
	sess, ok := e.sessions[principal]
	e.mu.Unlock()
	if !ok {
		return Outcome{}, false
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	handler, ok := sess.flow.Handlers[sess.state.Step]
	if !ok {
		// A flow with a missing handler is a programming error; end the
		// session rather than trap the principal in it.
		e.log.Error("conversation step has no handler",
			"flow", sess.flow.Name, "step", sess.state.Step)
		e.remove(principal, sess)
		return Outcome{}, false
	}

	outcome := handler(ctx, &sess.state, event)
	e.touch(sess)

	switch outcome.kind {
	case outcomeContinue:
		sess.state.Step = outcome.next
	case outcomeComplete:
		e.remove(principal, sess)
	case outcomeInvalid:
		// Step unchanged.
	}
	return outcome, true
}

// Cancel discards the principal's active session, reporting whether
// one existed. Safe to call repeatedly.
func (e *Engine) Cancel(principal ref.PrincipalID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	_, existed := e.sessions[principal]
	delete(e.sessions, principal)
	return existed
}

// Active reports whether the principal has a session in flight.
func (e *Engine) Active(principal ref.PrincipalID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.sessions[principal]
	return ok
}

// touch refreshes the session's idle timestamp.
func (e *Engine) touch(sess *session) {
	e.mu.Lock()
	defer e.mu.Unlock()
	sess.lastActive = e.clock.Now()
}

// remove deletes the session from the table, unless the principal has
// already been handed a replacement by Begin.
func (e *Engine) remove(principal ref.PrincipalID, sess *session) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sessions[principal] == sess {
		delete(e.sessions, principal)
	}
}

// ExpireIdle discards sessions untouched since before now minus the
// idle TTL, returning how many were dropped. No-op when the TTL is
// zero.
func (e *Engine) ExpireIdle(now time.Time) int {
	if e.ttl == 0 {
		return 0
	}
	cutoff := now.Add(-e.ttl)

	e.mu.Lock()
	defer e.mu.Unlock()

	expired := 0
	for principal, sess := range e.sessions {
		if sess.lastActive.After(cutoff) {
			continue
		}
		delete(e.sessions, principal)
		expired++
		e.log.Info("conversation expired",
			"principal", principal, "flow", sess.flow.Name)
	}
	return expired
}

// Run drives the idle janitor until ctx is done. Returns immediately
// when the TTL is zero. Sessions expire between one and two TTLs after
// their last activity, depending on tick alignment.
func (e *Engine) Run(ctx context.Context) {
	if e.ttl == 0 {
		return
	}
	ticker := e.clock.NewTicker(e.ttl)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			e.ExpireIdle(now)
		}
	}
}
