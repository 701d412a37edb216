// SPDX-FileCopyrightText: 2026 chat contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package relay

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirertt/chat/internal/registry"
	"github.com/samirertt/chat/internal/rooms"
	"github.com/samirertt/chat/internal/translate"
)

type translatorFunc func(ctx context.Context, text, sourceLang, targetLang string) (string, error)

func (f translatorFunc) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	return f(ctx, text, sourceLang, targetLang)
}

type captureSender struct {
	mu     sync.Mutex
	byConn map[string][]OutboundMessage
}

func newCaptureSender() *captureSender {
	return &captureSender{byConn: make(map[string][]OutboundMessage)}
}

func (s *captureSender) Send(connID string, msg OutboundMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byConn[connID] = append(s.byConn[connID], msg)
	return nil
}

func (s *captureSender) deliveries(connID string) []OutboundMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]OutboundMessage, len(s.byConn[connID]))
	copy(out, s.byConn[connID])
	return out
}

func (s *captureSender) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, msgs := range s.byConn {
		n += len(msgs)
	}
	return n
}

type fixture struct {
	relay    *Relay
	sender   *captureSender
	registry *registry.Registry
	rooms    *rooms.Directory
}

func newFixture(t *testing.T, tr translate.Translator) *fixture {
	t.Helper()

	reg := registry.New("en")
	dir := rooms.NewDirectory()
	sender := newCaptureSender()

	r := New(reg, dir, tr, sender)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go r.Run(ctx)

	return &fixture{relay: r, sender: sender, registry: reg, rooms: dir}
}

func (f *fixture) connect(connID string, roomID string) {
	f.registry.Register(connID)
	f.relay.AddConnection(connID)
	f.rooms.Join(roomID, connID)
	f.registry.TrackJoin(connID, roomID)
}

func (f *fixture) disconnect(connID string) {
	f.relay.RemoveConnection(connID)
	for _, roomID := range f.registry.Unregister(connID) {
		f.rooms.Leave(roomID, connID)
	}
}

func echoTranslator() translate.Translator {
	return translatorFunc(func(ctx context.Context, text, src, dst string) (string, error) {
		return "[" + dst + "]" + text, nil
	})
}

func TestFanOutTranslatesPerRecipient(t *testing.T) {
	f := newFixture(t, echoTranslator())

	f.connect("sender", "lobby")
	f.connect("alice", "lobby")
	f.connect("bob", "lobby")
	f.registry.SetLanguage("alice", "fr")

	f.relay.Enqueue(ChatMessage{
		RoomID:         "lobby",
		SenderConnID:   "sender",
		SenderUsername: "sam",
		Text:           "hello",
	})

	require.Eventually(t, func() bool { return f.sender.total() == 2 },
		time.Second, 5*time.Millisecond)

	alice := f.sender.deliveries("alice")
	require.Len(t, alice, 1)
	assert.Equal(t, "sam", alice[0].Username)
	assert.Equal(t, "hello", alice[0].Text)
	assert.Equal(t, "[fr]hello", alice[0].TranslatedText)
	assert.False(t, alice[0].TranslationFailed)

	bob := f.sender.deliveries("bob")
	require.Len(t, bob, 1)
	assert.Equal(t, "hello", bob[0].Text)
	assert.Equal(t, "hello", bob[0].TranslatedText, "default-language recipient gets the original unchanged")

	assert.Empty(t, f.sender.deliveries("sender"), "no self-echo")
}

func TestTranslationTimeoutDegradesToOriginal(t *testing.T) {
	blocking := translatorFunc(func(ctx context.Context, text, src, dst string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	gateway := translate.NewGateway(blocking, 4, 50*time.Millisecond)
	f := newFixture(t, gateway)

	f.connect("sender", "lobby")
	f.connect("alice", "lobby")
	f.registry.SetLanguage("alice", "fr")

	f.relay.Enqueue(ChatMessage{
		RoomID:         "lobby",
		SenderConnID:   "sender",
		SenderUsername: "sam",
		Text:           "hello",
	})

	require.Eventually(t, func() bool { return f.sender.total() == 1 },
		time.Second, 5*time.Millisecond, "delivery must not block on a dead translator")

	alice := f.sender.deliveries("alice")
	require.Len(t, alice, 1)
	assert.Equal(t, "hello", alice[0].TranslatedText)
	assert.True(t, alice[0].TranslationFailed)
}

func TestPerRecipientOrderPreservedUnderLatencyVariance(t *testing.T) {
	// M1's translation takes far longer than M2's; order must hold anyway.
	slow := translatorFunc(func(ctx context.Context, text, src, dst string) (string, error) {
		if text == "M1" {
			time.Sleep(150 * time.Millisecond)
		}
		return "[" + dst + "]" + text, nil
	})
	f := newFixture(t, slow)

	f.connect("sender", "lobby")
	f.connect("alice", "lobby")
	f.registry.SetLanguage("alice", "fr")

	f.relay.Enqueue(ChatMessage{RoomID: "lobby", SenderConnID: "sender", SenderUsername: "sam", Text: "M1"})
	f.relay.Enqueue(ChatMessage{RoomID: "lobby", SenderConnID: "sender", SenderUsername: "sam", Text: "M2"})

	require.Eventually(t, func() bool { return len(f.sender.deliveries("alice")) == 2 },
		time.Second, 5*time.Millisecond)

	alice := f.sender.deliveries("alice")
	assert.Equal(t, "M1", alice[0].Text)
	assert.Equal(t, "M2", alice[1].Text)
}

func TestBroadcastToLargeRoom(t *testing.T) {
	f := newFixture(t, echoTranslator())

	f.connect("sender", "big")
	for i := 0; i < 999; i++ {
		f.connect(fmt.Sprintf("conn-%d", i), "big")
	}

	f.relay.Enqueue(ChatMessage{RoomID: "big", SenderConnID: "sender", SenderUsername: "sam", Text: "hi all"})

	require.Eventually(t, func() bool { return f.sender.total() == 999 },
		5*time.Second, 10*time.Millisecond)

	for i := 0; i < 999; i++ {
		msgs := f.sender.deliveries(fmt.Sprintf("conn-%d", i))
		require.Len(t, msgs, 1, "conn-%d must get exactly one delivery", i)
	}
	assert.Empty(t, f.sender.deliveries("sender"))
}

func TestDisconnectDuringInFlightTranslation(t *testing.T) {
	started := make(chan struct{}, 1)
	blocking := translatorFunc(func(ctx context.Context, text, src, dst string) (string, error) {
		started <- struct{}{}
		time.Sleep(150 * time.Millisecond)
		return "[" + dst + "]" + text, nil
	})
	f := newFixture(t, blocking)

	f.connect("sender", "lobby")
	f.connect("alice", "lobby")
	f.registry.SetLanguage("alice", "fr")

	f.relay.Enqueue(ChatMessage{RoomID: "lobby", SenderConnID: "sender", SenderUsername: "sam", Text: "hello"})

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("translation never started")
	}
	f.disconnect("alice")

	time.Sleep(300 * time.Millisecond)
	assert.Empty(t, f.sender.deliveries("alice"), "no delivery after disconnect is observed")
}

func TestMalformedEventsAreDropped(t *testing.T) {
	f := newFixture(t, echoTranslator())

	f.connect("sender", "lobby")
	f.connect("alice", "lobby")

	f.relay.Enqueue(ChatMessage{RoomID: "", SenderConnID: "sender", SenderUsername: "sam", Text: "x"})
	f.relay.Enqueue(ChatMessage{RoomID: "lobby", SenderConnID: "sender", SenderUsername: "", Text: "x"})
	f.relay.Enqueue(ChatMessage{RoomID: "lobby", SenderConnID: "sender", SenderUsername: "sam", Text: ""})

	// The loop keeps serving after dropped events.
	f.relay.Enqueue(ChatMessage{RoomID: "lobby", SenderConnID: "sender", SenderUsername: "sam", Text: "ok"})

	require.Eventually(t, func() bool { return f.sender.total() == 1 },
		time.Second, 5*time.Millisecond)
	require.Len(t, f.sender.deliveries("alice"), 1)
	assert.Equal(t, "ok", f.sender.deliveries("alice")[0].Text)
}
