// SPDX-FileCopyrightText: 2026 chat contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package relay fans every inbound chat message out to the other members
// of its room, translated into each recipient's preferred language.
//
// Ordering: the relay loop consumes inbound messages one at a time and
// reserves a delivery slot in each recipient's queue before the
// translation is dispatched. A per-recipient worker completes slots
// strictly in reservation order, so translation latency variance can
// never reorder messages for a given recipient.
package relay

import (
	"context"
	"log/slog"
	"sync"

	"github.com/samirertt/chat/internal/constants"
	"github.com/samirertt/chat/internal/registry"
	"github.com/samirertt/chat/internal/rooms"
	"github.com/samirertt/chat/internal/translate"
)

type ChatMessage struct {
	RoomID         string
	SenderConnID   string
	SenderUsername string
	Text           string
}

type OutboundMessage struct {
	Username          string
	Text              string
	TranslatedText    string
	TranslationFailed bool
}

// Sender delivers one tailored message to one connection's transport.
// Errors mean the connection is gone; the relay drops the message.
type Sender interface {
	Send(connID string, msg OutboundMessage) error
}

type pending struct {
	ready chan struct{}
	msg   OutboundMessage
}

type deliveryQueue struct {
	ch     chan *pending
	cancel context.CancelFunc
}

type Relay struct {
	registry *registry.Registry
	rooms    *rooms.Directory
	gateway  translate.Translator
	sender   Sender

	mu     sync.Mutex
	queues map[string]*deliveryQueue

	in     chan ChatMessage
	logger *slog.Logger
}

func New(reg *registry.Registry, dir *rooms.Directory, gateway translate.Translator, sender Sender) *Relay {
	return &Relay{
		registry: reg,
		rooms:    dir,
		gateway:  gateway,
		sender:   sender,
		queues:   make(map[string]*deliveryQueue),
		in:       make(chan ChatMessage, constants.InboundQueueSize),
		logger:   slog.With("component", "relay"),
	}
}

// SetSender wires the transport in after construction; the hub and the
// relay reference each other. Must be called before any connection is
// added.
func (r *Relay) SetSender(s Sender) {
	r.sender = s
}

// Run consumes inbound messages until ctx is cancelled. Must run exactly
// once; the single loop is what gives the ordering guarantee.
func (r *Relay) Run(ctx context.Context) {
	r.logger.Debug("relay loop started")
	defer r.logger.Debug("relay loop stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-r.in:
			r.dispatch(msg)
		}
	}
}

// Enqueue validates and hands an inbound chat event to the relay loop.
// Malformed events are dropped with a warning, never retried.
func (r *Relay) Enqueue(msg ChatMessage) {
	if msg.RoomID == "" || msg.SenderUsername == "" || msg.Text == "" {
		r.logger.Warn("dropping malformed chat event",
			"room_id", msg.RoomID,
			"sender", msg.SenderUsername,
			"has_text", msg.Text != "",
		)
		return
	}

	select {
	case r.in <- msg:
	default:
		r.logger.Warn("inbound queue full, dropping message", "room_id", msg.RoomID)
	}
}

// AddConnection creates the recipient's delivery queue and starts its
// worker. Called by the lifecycle manager on connect.
func (r *Relay) AddConnection(connID string) {
	ctx, cancel := context.WithCancel(context.Background())
	q := &deliveryQueue{
		ch:     make(chan *pending, constants.DeliveryQueueSize),
		cancel: cancel,
	}

	r.mu.Lock()
	if old, ok := r.queues[connID]; ok {
		old.cancel()
	}
	r.queues[connID] = q
	r.mu.Unlock()

	go r.deliverLoop(ctx, connID, q)
}

// RemoveConnection tears the queue down. Translations still in flight for
// this connection complete but their results are discarded.
func (r *Relay) RemoveConnection(connID string) {
	r.mu.Lock()
	q, ok := r.queues[connID]
	if ok {
		delete(r.queues, connID)
	}
	r.mu.Unlock()

	if ok {
		q.cancel()
	}
}

func (r *Relay) dispatch(msg ChatMessage) {
	recipients := r.rooms.MembersOf(msg.RoomID)
	defaultLang := r.registry.DefaultLanguage()

	for _, connID := range recipients {
		if connID == msg.SenderConnID {
			continue
		}

		lang := r.registry.LanguageOf(connID)
		p := &pending{ready: make(chan struct{})}

		if !r.reserve(connID, p) {
			continue
		}

		if lang == defaultLang {
			// No network call for default-language recipients.
			p.msg = OutboundMessage{
				Username:       msg.SenderUsername,
				Text:           msg.Text,
				TranslatedText: msg.Text,
			}
			close(p.ready)
			continue
		}

		go r.translateInto(p, msg, lang)
	}
}

// reserve claims the next in-order slot in connID's queue. Returns false
// if the connection is gone or its queue is saturated (best-effort drop).
func (r *Relay) reserve(connID string, p *pending) bool {
	r.mu.Lock()
	q, ok := r.queues[connID]
	r.mu.Unlock()
	if !ok {
		return false
	}

	select {
	case q.ch <- p:
		return true
	default:
		r.logger.Warn("delivery queue full, dropping message", "conn_id", connID)
		return false
	}
}

func (r *Relay) translateInto(p *pending, msg ChatMessage, targetLang string) {
	defer close(p.ready)

	translated, err := r.gateway.Translate(context.Background(), msg.Text, "", targetLang)
	if err != nil {
		r.logger.Warn("translation degraded to original text",
			"error", err,
			"target_lang", targetLang,
			"room_id", msg.RoomID,
		)
		p.msg = OutboundMessage{
			Username:          msg.SenderUsername,
			Text:              msg.Text,
			TranslatedText:    msg.Text,
			TranslationFailed: true,
		}
		return
	}

	p.msg = OutboundMessage{
		Username:       msg.SenderUsername,
		Text:           msg.Text,
		TranslatedText: translated,
	}
}

func (r *Relay) deliverLoop(ctx context.Context, connID string, q *deliveryQueue) {
	for {
		select {
		case <-ctx.Done():
			return
		case p := <-q.ch:
			select {
			case <-ctx.Done():
				return
			case <-p.ready:
			}
			if err := r.sender.Send(connID, p.msg); err != nil {
				r.logger.Debug("delivery failed, connection gone", "conn_id", connID, "error", err)
			}
		}
	}
}
