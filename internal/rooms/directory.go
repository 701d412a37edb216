// SPDX-FileCopyrightText: 2026 chat contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package rooms maps room ids to member connection ids. Rooms are created
// implicitly on first join and pruned when their last member leaves, so
// sustained churn of transient room ids cannot grow memory without bound.
package rooms

import (
	"log/slog"
	"sync"
)

type Directory struct {
	mu     sync.Mutex
	rooms  map[string]map[string]struct{}
	logger *slog.Logger
}

func NewDirectory() *Directory {
	return &Directory{
		rooms:  make(map[string]map[string]struct{}),
		logger: slog.With("component", "rooms"),
	}
}

// Join adds connID to the room, creating it if absent. Idempotent.
func (d *Directory) Join(roomID, connID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	members, ok := d.rooms[roomID]
	if !ok {
		members = make(map[string]struct{})
		d.rooms[roomID] = members
		d.logger.Debug("room created", "room_id", roomID)
	}
	members[connID] = struct{}{}
}

// Leave removes connID from the room. Empty rooms are pruned.
func (d *Directory) Leave(roomID, connID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	members, ok := d.rooms[roomID]
	if !ok {
		return
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(d.rooms, roomID)
		d.logger.Debug("room pruned", "room_id", roomID)
	}
}

// MembersOf returns a copy of the room's member set. Unknown rooms yield an
// empty slice, never an error.
func (d *Directory) MembersOf(roomID string) []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	members := d.rooms[roomID]
	out := make([]string, 0, len(members))
	for connID := range members {
		out = append(out, connID)
	}
	return out
}

func (d *Directory) RoomCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.rooms)
}
