// Copyright 2026 The Atelier Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/atelier-foundation/atelier/lib/clock"
)

// SyncConfig configures the Matrix /sync long-poll loop.
type SyncConfig struct {
	// Filter is the inline JSON filter restricting which event types
	// the homeserver returns.
	Filter string

	// Timeout is the long-poll timeout in milliseconds. The homeserver
	// holds the connection open for this duration when no events are
	// available, then returns an empty response. Default: 30000 (30s).
	Timeout int

	// MaxBackoff is the maximum duration between retry attempts on
	// transient /sync errors. The loop uses exponential backoff
	// starting at 1 second. Default: 30 seconds.
	MaxBackoff time.Duration
}

// SyncHandler is called for each /sync response. The next poll starts
// after the handler returns; handlers should not block for extended
// periods.
type SyncHandler func(ctx context.Context, response *SyncResponse)

// InitialSync performs the first /sync with no since token. Returns
// the next_batch token for the incremental loop and the full response
// for the caller to build initial state from.
func InitialSync(ctx context.Context, session *Session, filter string) (string, *SyncResponse, error) {
	response, err := session.Sync(ctx, SyncOptions{Filter: filter})
	if err != nil {
		return "", nil, fmt.Errorf("initial sync: %w", err)
	}
	return response.NextBatch, response, nil
}

// RunSyncLoop runs the incremental /sync long-poll loop, calling
// handler for each response until ctx is cancelled. Transient errors
// retry with exponential backoff (1 second to config.MaxBackoff).
//
// The caller performs the initial sync (via InitialSync) and processes
// that response before starting this loop.
func RunSyncLoop(ctx context.Context, session *Session, config SyncConfig, sinceToken string, handler SyncHandler, clk clock.Clock, logger *slog.Logger) {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30000
	}
	maxBackoff := config.MaxBackoff
	if maxBackoff == 0 {
		maxBackoff = 30 * time.Second
	}

	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		options := SyncOptions{
			Since:      sinceToken,
			Timeout:    timeout,
			SetTimeout: true,
			Filter:     config.Filter,
		}

		response, err := session.Sync(ctx, options)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("sync failed, retrying", "error", err, "backoff", backoff)
			session.CloseIdleConnections()
			select {
			case <-ctx.Done():
				return
			case <-clk.After(backoff):
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}

		backoff = time.Second
		sinceToken = response.NextBatch

		handler(ctx, response)
	}
}

// AcceptInvites joins all rooms the bot has been invited to. Direct
// chats start with the user inviting the bot; joining is what lets the
// conversation proceed. Returns the room IDs joined.
func AcceptInvites(ctx context.Context, session *Session, invites map[RoomID]InvitedRoom, logger *slog.Logger) []RoomID {
	var accepted []RoomID
	for roomID := range invites {
		logger.Info("accepting room invite", "room_id", roomID)
		if err := session.JoinRoom(ctx, roomID); err != nil {
			logger.Error("failed to accept room invite",
				"room_id", roomID,
				"error", err,
			)
			continue
		}
		accepted = append(accepted, roomID)
	}
	return accepted
}
