// SPDX-FileCopyrightText: 2026 chat contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ws is the websocket transport and connection lifecycle manager:
// it upgrades connections, registers them, dispatches named client events
// and tears everything down exactly once on disconnect.
package ws

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/samirertt/chat/internal/registry"
	"github.com/samirertt/chat/internal/relay"
	"github.com/samirertt/chat/internal/rooms"
)

type eventHandler func(c *Client, evt ClientEvent)

type Hub struct {
	registry *registry.Registry
	rooms    *rooms.Directory
	relay    *relay.Relay

	mu      sync.Mutex
	clients map[string]*Client

	handlers map[string]eventHandler
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

func NewHub(reg *registry.Registry, dir *rooms.Directory, rel *relay.Relay) *Hub {
	h := &Hub{
		registry: reg,
		rooms:    dir,
		relay:    rel,
		clients:  make(map[string]*Client),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The web client is served from a different origin in dev.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: slog.With("component", "ws_hub"),
	}

	h.handlers = map[string]eventHandler{
		EventJoinRoom:    h.handleJoinRoom,
		EventLeaveRoom:   h.handleLeaveRoom,
		EventSetLanguage: h.handleSetLanguage,
		EventSendMessage: h.handleSendMessage,
	}
	return h
}

// HandleWS upgrades the request and brings the connection to life.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}

	c := newClient(uuid.NewString(), h, conn)

	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()

	h.registry.Register(c.id)
	h.relay.AddConnection(c.id)

	h.logger.Info("connection opened", "conn_id", c.id, "remote", r.RemoteAddr)

	go c.writePump()
	go c.readPump()
}

// Send implements relay.Sender.
func (h *Hub) Send(connID string, msg relay.OutboundMessage) error {
	h.mu.Lock()
	c, ok := h.clients[connID]
	h.mu.Unlock()
	if !ok {
		return ErrTransportClosed
	}

	return c.Deliver(ServerEvent{
		Event:             EventMessage,
		Username:          msg.Username,
		Text:              msg.Text,
		TranslatedText:    msg.TranslatedText,
		TranslationFailed: msg.TranslationFailed,
	})
}

// disconnect runs the teardown sequence. Both pumps call it; the closed
// flag makes it a no-op after the first time.
func (h *Hub) disconnect(c *Client) {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}

	h.mu.Lock()
	delete(h.clients, c.id)
	h.mu.Unlock()

	h.relay.RemoveConnection(c.id)

	joined := h.registry.Unregister(c.id)
	for _, roomID := range joined {
		h.rooms.Leave(roomID, c.id)
	}

	c.conn.Close()
	h.logger.Info("connection closed", "conn_id", c.id, "rooms_left", len(joined))
}

func (h *Hub) dispatch(c *Client, evt ClientEvent) {
	handler, ok := h.handlers[evt.Event]
	if !ok {
		h.logger.Warn("unknown event", "event", evt.Event, "conn_id", c.id)
		return
	}
	handler(c, evt)
}

func (h *Hub) handleJoinRoom(c *Client, evt ClientEvent) {
	if evt.RoomID == "" {
		h.logger.Warn("join_room without roomId", "conn_id", c.id)
		return
	}
	h.rooms.Join(evt.RoomID, c.id)
	if !h.registry.TrackJoin(c.id, evt.RoomID) {
		// Teardown ran between the two inserts; Unregister has already
		// returned, so nothing else will ever remove this membership.
		h.rooms.Leave(evt.RoomID, c.id)
		return
	}
	h.logger.Debug("joined room", "conn_id", c.id, "room_id", evt.RoomID)
}

func (h *Hub) handleLeaveRoom(c *Client, evt ClientEvent) {
	if evt.RoomID == "" {
		h.logger.Warn("leave_room without roomId", "conn_id", c.id)
		return
	}
	h.rooms.Leave(evt.RoomID, c.id)
	h.registry.TrackLeave(c.id, evt.RoomID)
	h.logger.Debug("left room", "conn_id", c.id, "room_id", evt.RoomID)
}

func (h *Hub) handleSetLanguage(c *Client, evt ClientEvent) {
	if evt.LangID == "" {
		h.logger.Warn("set_language without langId", "conn_id", c.id)
		return
	}
	h.registry.SetLanguage(c.id, evt.LangID)
}

func (h *Hub) handleSendMessage(c *Client, evt ClientEvent) {
	h.relay.Enqueue(relay.ChatMessage{
		RoomID:         evt.RoomID,
		SenderConnID:   c.id,
		SenderUsername: evt.Username,
		Text:           evt.Text,
	})
}

// Shutdown closes every live connection.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.disconnect(c)
	}
	h.logger.Info("hub shutdown complete")
}
