// SPDX-FileCopyrightText: 2026 chat contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package registry tracks live connections, their joined rooms and their
// preferred language. All state is owned here; callers never see the
// internal session structs.
package registry

import (
	"log/slog"
	"sync"
)

type session struct {
	language string
	rooms    map[string]struct{}
}

type Registry struct {
	mu          sync.Mutex
	sessions    map[string]*session
	defaultLang string
	logger      *slog.Logger
}

func New(defaultLang string) *Registry {
	return &Registry{
		sessions:    make(map[string]*session),
		defaultLang: defaultLang,
		logger:      slog.With("component", "registry"),
	}
}

func (r *Registry) DefaultLanguage() string {
	return r.defaultLang
}

// Register inserts a connection with the default language. Registering an
// existing id resets it.
func (r *Registry) Register(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[connID] = &session{
		language: r.defaultLang,
		rooms:    make(map[string]struct{}),
	}
	r.logger.Debug("registered connection", "conn_id", connID)
}

// SetLanguage updates a connection's preferred language. Unknown
// connections are a logged no-op.
func (r *Registry) SetLanguage(connID, lang string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[connID]
	if !ok {
		r.logger.Warn("set language for unknown connection", "conn_id", connID, "lang", lang)
		return
	}
	s.language = lang
	r.logger.Debug("language set", "conn_id", connID, "lang", lang)
}

// LanguageOf never fails: unknown connections get the default language.
func (r *Registry) LanguageOf(connID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[connID]
	if !ok || s.language == "" {
		return r.defaultLang
	}
	return s.language
}

// TrackJoin records room membership on the connection side. The room
// directory holds the inverse mapping. Returns false when the connection
// is no longer registered; the caller must undo its directory insert, or
// the membership would outlive the connection.
func (r *Registry) TrackJoin(connID, roomID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[connID]
	if !ok {
		r.logger.Warn("track join for unknown connection", "conn_id", connID, "room_id", roomID)
		return false
	}
	s.rooms[roomID] = struct{}{}
	return true
}

func (r *Registry) TrackLeave(connID, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[connID]; ok {
		delete(s.rooms, roomID)
	}
}

// Unregister removes the connection and returns the rooms it was in so the
// caller can clean up the room directory.
func (r *Registry) Unregister(connID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[connID]
	if !ok {
		return nil
	}
	delete(r.sessions, connID)

	rooms := make([]string, 0, len(s.rooms))
	for roomID := range s.rooms {
		rooms = append(rooms, roomID)
	}
	r.logger.Debug("unregistered connection", "conn_id", connID, "rooms", len(rooms))
	return rooms
}

func (r *Registry) Known(connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[connID]
	return ok
}
