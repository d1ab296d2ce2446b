// Copyright 2026 The Atelier Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"encoding/json"
)

// RoomID identifies a Matrix room (e.g., "!abc:atelier.local"). Rooms
// are a transport detail; nothing above this package handles them.
type RoomID string

// LoginRequest is the body of POST /_matrix/client/v3/login.
type LoginRequest struct {
	Type                     string `json:"type"`
	User                     string `json:"user"`
	Password                 string `json:"password"`
	InitialDeviceDisplayName string `json:"initial_device_display_name"`
}

// AuthResponse is the body returned by a successful login.
type AuthResponse struct {
	UserID      string `json:"user_id"`
	AccessToken string `json:"access_token"`
	DeviceID    string `json:"device_id"`
}

// WhoAmIResponse is the body of GET /_matrix/client/v3/account/whoami.
type WhoAmIResponse struct {
	UserID string `json:"user_id"`
}

// CreateRoomRequest is the body of POST /_matrix/client/v3/createRoom.
type CreateRoomRequest struct {
	Name     string   `json:"name,omitempty"`
	Preset   string   `json:"preset,omitempty"`
	IsDirect bool     `json:"is_direct"`
	Invite   []string `json:"invite,omitempty"`
}

// CreateRoomResponse is the body returned by createRoom.
type CreateRoomResponse struct {
	RoomID RoomID `json:"room_id"`
}

// InviteRequest is the body of POST .../rooms/{roomID}/invite.
type InviteRequest struct {
	UserID string `json:"user_id"`
}

// SendEventResponse is the body returned by sending an event.
type SendEventResponse struct {
	EventID string `json:"event_id"`
}

// MessageContent is the content of an m.room.message event. URL is set
// for m.image messages and carries the mxc content URI.
type MessageContent struct {
	MsgType string `json:"msgtype"`
	Body    string `json:"body"`
	URL     string `json:"url,omitempty"`
}

// NewTextMessage builds plain-text message content.
func NewTextMessage(body string) MessageContent {
	return MessageContent{MsgType: "m.text", Body: body}
}

// NewImageMessage builds image message content referencing an
// already-uploaded mxc URI.
func NewImageMessage(mediaRef, caption string) MessageContent {
	return MessageContent{MsgType: "m.image", Body: caption, URL: mediaRef}
}

// SyncOptions configures a /sync request.
type SyncOptions struct {
	// Since is the batch token from the previous sync. Empty for the
	// initial sync.
	Since string
	// Timeout is the long-poll timeout in milliseconds. Only sent when
	// SetTimeout is true (the initial sync should return immediately).
	Timeout    int
	SetTimeout bool
	// Filter is an inline JSON filter restricting returned event types.
	Filter string
}

// SyncResponse is the body of GET /_matrix/client/v3/sync, trimmed to
// the parts the bot consumes.
type SyncResponse struct {
	NextBatch string    `json:"next_batch"`
	Rooms     SyncRooms `json:"rooms"`
}

// SyncRooms groups per-room sync data by membership.
type SyncRooms struct {
	Join   map[RoomID]JoinedRoom  `json:"join"`
	Invite map[RoomID]InvitedRoom `json:"invite"`
}

// JoinedRoom carries the new timeline events of one joined room.
type JoinedRoom struct {
	Timeline Timeline `json:"timeline"`
}

// InvitedRoom marks a pending invite. The bot joins every room it is
// invited to; the stripped state is not needed for that.
type InvitedRoom struct{}

// Timeline is the ordered list of events since the previous batch.
type Timeline struct {
	Events []Event `json:"events"`
}

// Event is one room event from /sync.
type Event struct {
	Type    string          `json:"type"`
	Sender  string          `json:"sender"`
	EventID string          `json:"event_id"`
	Content json.RawMessage `json:"content"`
}

// messageContent is the decoded content of an m.room.message event.
type messageContent struct {
	MsgType string `json:"msgtype"`
	Body    string `json:"body"`
	URL     string `json:"url"`
}

// reactionContent is the decoded content of an m.reaction event.
type reactionContent struct {
	RelatesTo struct {
		RelType string `json:"rel_type"`
		EventID string `json:"event_id"`
		Key     string `json:"key"`
	} `json:"m.relates_to"`
}
