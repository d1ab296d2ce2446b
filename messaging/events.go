// Copyright 2026 The Atelier Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"encoding/json"
	"strings"

	"github.com/atelier-foundation/atelier/gateway"
	"github.com/atelier-foundation/atelier/lib/ref"
)

// InboundEvent is one normalized event plus the room it arrived in.
// The room is recorded so replies go back where the conversation
// happened; the Event itself stays transport-neutral.
type InboundEvent struct {
	Room  RoomID
	Event gateway.Event
}

// DecodeSync normalizes the timeline events of a /sync response into
// gateway events, skipping the bot's own echoes and event types the
// bot does not handle.
func DecodeSync(botID ref.PrincipalID, response *SyncResponse) []InboundEvent {
	var inbound []InboundEvent
	for roomID, room := range response.Rooms.Join {
		for _, event := range room.Timeline.Events {
			decoded, ok := decodeEvent(botID, event)
			if !ok {
				continue
			}
			inbound = append(inbound, InboundEvent{Room: roomID, Event: decoded})
		}
	}
	return inbound
}

// decodeEvent maps one Matrix room event to a gateway event:
//
//   - m.room.message / m.text starting with "/" -> Command
//   - m.room.message / m.text otherwise        -> Text
//   - m.room.message / m.image                 -> Photo (mxc URI as MediaRef)
//   - m.reaction annotation                    -> ButtonPress (star keys as "1".."5")
func decodeEvent(botID ref.PrincipalID, event Event) (gateway.Event, bool) {
	sender, err := ref.ParsePrincipalID(event.Sender)
	if err != nil || sender == botID {
		return gateway.Event{}, false
	}

	switch event.Type {
	case "m.room.message":
		var content messageContent
		if err := json.Unmarshal(event.Content, &content); err != nil {
			return gateway.Event{}, false
		}
		switch content.MsgType {
		case "m.text":
			body := strings.TrimSpace(content.Body)
			if command, ok := strings.CutPrefix(body, "/"); ok && command != "" {
				fields := strings.Fields(command)
				return gateway.Event{
					Kind:    gateway.KindCommand,
					Sender:  sender,
					Command: fields[0],
					Args:    fields[1:],
				}, true
			}
			if body == "" {
				return gateway.Event{}, false
			}
			return gateway.Event{
				Kind:   gateway.KindText,
				Sender: sender,
				Text:   body,
			}, true
		case "m.image":
			if content.URL == "" {
				return gateway.Event{}, false
			}
			return gateway.Event{
				Kind:     gateway.KindPhoto,
				Sender:   sender,
				MediaRef: content.URL,
			}, true
		}
		return gateway.Event{}, false

	case "m.reaction":
		var content reactionContent
		if err := json.Unmarshal(event.Content, &content); err != nil {
			return gateway.Event{}, false
		}
		if content.RelatesTo.RelType != "m.annotation" || content.RelatesTo.Key == "" {
			return gateway.Event{}, false
		}
		return gateway.Event{
			Kind:   gateway.KindButtonPress,
			Sender: sender,
			Token:  buttonToken(content.RelatesTo.Key),
		}, true
	}

	return gateway.Event{}, false
}

// buttonToken normalizes a reaction key to a token. A run of one to
// five star emoji becomes the digit string for the count ("⭐⭐⭐" ->
// "3"); anything else passes through as-is. Clients commonly send each
// star with the emoji variation selector (U+FE0F) appended; both forms
// count.
func buttonToken(key string) string {
	stars := 0
	rest := key
	for {
		trimmed, ok := strings.CutPrefix(rest, "⭐")
		if !ok {
			break
		}
		stars++
		rest = strings.TrimPrefix(trimmed, "\ufe0f")
	}
	if stars >= 1 && stars <= 5 && rest == "" {
		return string(rune('0' + stars))
	}
	return key
}
