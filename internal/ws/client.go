// SPDX-FileCopyrightText: 2026 chat contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package ws

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/samirertt/chat/internal/constants"
)

var ErrTransportClosed = errors.New("transport closed")

// Client is one live websocket connection: a read pump feeding the hub's
// dispatch table and a write pump draining the send queue.
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn

	send   chan ServerEvent
	closed atomic.Bool

	logger *slog.Logger
}

func newClient(id string, hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		id:     id,
		hub:    hub,
		conn:   conn,
		send:   make(chan ServerEvent, constants.DeliveryQueueSize),
		logger: slog.With("component", "ws_client", "conn_id", id),
	}
}

func (c *Client) ID() string {
	return c.id
}

// Deliver queues an event for the write pump. Safe to call after the
// connection is gone; it fails with ErrTransportClosed instead of
// panicking or blocking.
func (c *Client) Deliver(evt ServerEvent) error {
	if c.closed.Load() {
		return ErrTransportClosed
	}
	select {
	case c.send <- evt:
		return nil
	default:
		c.logger.Warn("send queue full, dropping event")
		return nil
	}
}

func (c *Client) readPump() {
	defer c.hub.disconnect(c)

	c.conn.SetReadLimit(constants.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(constants.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(constants.PongTimeout))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("read error", "error", err)
			}
			return
		}

		var evt ClientEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			c.logger.Warn("dropping unparseable event", "error", err)
			continue
		}

		c.hub.dispatch(c, evt)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(constants.PingInterval)
	defer func() {
		ticker.Stop()
		c.hub.disconnect(c)
	}()

	for {
		select {
		case evt, ok := <-c.send:
			if !ok {
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(constants.WriteTimeout))
			if err := c.conn.WriteJSON(evt); err != nil {
				c.logger.Debug("write error", "error", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(constants.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
