// SPDX-FileCopyrightText: 2026 chat contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirertt/chat/internal/registry"
	"github.com/samirertt/chat/internal/relay"
	"github.com/samirertt/chat/internal/rooms"
)

type translatorFunc func(ctx context.Context, text, sourceLang, targetLang string) (string, error)

func (f translatorFunc) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	return f(ctx, text, sourceLang, targetLang)
}

type testEnv struct {
	srv      *httptest.Server
	hub      *Hub
	registry *registry.Registry
	rooms    *rooms.Directory
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	reg := registry.New("en")
	dir := rooms.NewDirectory()
	rel := relay.New(reg, dir, translatorFunc(func(ctx context.Context, text, src, dst string) (string, error) {
		return "[" + dst + "]" + text, nil
	}), nil)
	hub := NewHub(reg, dir, rel)
	rel.SetSender(hub)

	ctx, cancel := context.WithCancel(context.Background())
	go rel.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	t.Cleanup(func() {
		srv.Close()
		hub.Shutdown()
		cancel()
	})

	return &testEnv{srv: srv, hub: hub, registry: reg, rooms: dir}
}

func (e *testEnv) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(e.srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn, timeout time.Duration) (ServerEvent, bool) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(timeout))
	var evt ServerEvent
	if err := conn.ReadJSON(&evt); err != nil {
		return ServerEvent{}, false
	}
	return evt, true
}

func TestMessageRelayEndToEnd(t *testing.T) {
	env := newTestEnv(t)

	alice := env.dial(t)
	bob := env.dial(t)

	require.NoError(t, alice.WriteJSON(ClientEvent{Event: EventJoinRoom, RoomID: "lobby"}))
	require.NoError(t, alice.WriteJSON(ClientEvent{Event: EventSetLanguage, LangID: "fr"}))
	require.NoError(t, bob.WriteJSON(ClientEvent{Event: EventJoinRoom, RoomID: "lobby"}))

	// Wait for both joins and the language change to land server-side.
	require.Eventually(t, func() bool {
		members := env.rooms.MembersOf("lobby")
		if len(members) != 2 {
			return false
		}
		for _, id := range members {
			if env.registry.LanguageOf(id) == "fr" {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, bob.WriteJSON(ClientEvent{
		Event:    EventSendMessage,
		RoomID:   "lobby",
		Username: "bob",
		Text:     "hello",
	}))

	evt, ok := readEvent(t, alice, 2*time.Second)
	require.True(t, ok, "alice must receive the relayed message")
	assert.Equal(t, EventMessage, evt.Event)
	assert.Equal(t, "bob", evt.Username)
	assert.Equal(t, "hello", evt.Text)
	assert.Equal(t, "[fr]hello", evt.TranslatedText)
	assert.False(t, evt.TranslationFailed)

	// The sender gets no echo back through this path.
	_, ok = readEvent(t, bob, 200*time.Millisecond)
	assert.False(t, ok)
}

func TestDisconnectCleansUpRooms(t *testing.T) {
	env := newTestEnv(t)

	alice := env.dial(t)
	bob := env.dial(t)

	require.NoError(t, alice.WriteJSON(ClientEvent{Event: EventJoinRoom, RoomID: "lobby"}))
	require.NoError(t, bob.WriteJSON(ClientEvent{Event: EventJoinRoom, RoomID: "lobby"}))

	require.Eventually(t, func() bool {
		return len(env.rooms.MembersOf("lobby")) == 2
	}, 2*time.Second, 10*time.Millisecond)

	alice.Close()

	require.Eventually(t, func() bool {
		return len(env.rooms.MembersOf("lobby")) == 1
	}, 2*time.Second, 10*time.Millisecond, "disconnect must remove the connection from its rooms")
}

// A write-side error can tear a connection down while the read pump is
// still processing a join_room. The join must not leave the dead
// connection behind in the room's member set.
func TestJoinDuringTeardownLeavesNoGhostMember(t *testing.T) {
	env := newTestEnv(t)

	env.dial(t)

	var c *Client
	require.Eventually(t, func() bool {
		env.hub.mu.Lock()
		defer env.hub.mu.Unlock()
		for _, cl := range env.hub.clients {
			c = cl
			return true
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)

	env.hub.disconnect(c)
	env.hub.handleJoinRoom(c, ClientEvent{Event: EventJoinRoom, RoomID: "lobby"})

	assert.False(t, env.registry.Known(c.id))
	assert.Empty(t, env.rooms.MembersOf("lobby"),
		"nothing would ever remove a membership recorded after teardown")
}

func TestLeaveRoomStopsDelivery(t *testing.T) {
	env := newTestEnv(t)

	alice := env.dial(t)
	bob := env.dial(t)

	require.NoError(t, alice.WriteJSON(ClientEvent{Event: EventJoinRoom, RoomID: "lobby"}))
	require.NoError(t, bob.WriteJSON(ClientEvent{Event: EventJoinRoom, RoomID: "lobby"}))
	require.Eventually(t, func() bool {
		return len(env.rooms.MembersOf("lobby")) == 2
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, alice.WriteJSON(ClientEvent{Event: EventLeaveRoom, RoomID: "lobby"}))
	require.Eventually(t, func() bool {
		return len(env.rooms.MembersOf("lobby")) == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, bob.WriteJSON(ClientEvent{
		Event:    EventSendMessage,
		RoomID:   "lobby",
		Username: "bob",
		Text:     "anyone here?",
	}))

	_, ok := readEvent(t, alice, 200*time.Millisecond)
	assert.False(t, ok, "no delivery after leaving the room")
}
