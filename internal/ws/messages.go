// SPDX-FileCopyrightText: 2026 chat contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package ws

// Event names on the client-to-server channel.
const (
	EventJoinRoom    = "join_room"
	EventLeaveRoom   = "leave_room"
	EventSetLanguage = "set_language"
	EventSendMessage = "send_message"
)

// EventMessage is the single server-to-client event.
const EventMessage = "message"

// ClientEvent is the envelope for every inbound websocket frame. Which
// fields are meaningful depends on Event.
type ClientEvent struct {
	Event    string `json:"event"`
	RoomID   string `json:"roomId,omitempty"`
	LangID   string `json:"langId,omitempty"`
	Username string `json:"username,omitempty"`
	Text     string `json:"text,omitempty"`
}

// ServerEvent carries one tailored message to one recipient. The wire
// field names match what the web client expects.
type ServerEvent struct {
	Event             string `json:"event"`
	Username          string `json:"username,omitempty"`
	Text              string `json:"text,omitempty"`
	TranslatedText    string `json:"translated_text,omitempty"`
	TranslationFailed bool   `json:"translation_failed,omitempty"`
}
