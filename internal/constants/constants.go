// SPDX-FileCopyrightText: 2026 chat contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package constants

import "time"

const (
	// Per-connection outbound queue depth. Deliveries beyond this are
	// dropped rather than blocking the relay loop.
	DeliveryQueueSize = 256

	InboundQueueSize = 1024

	WriteTimeout     = 10 * time.Second
	PongTimeout      = 60 * time.Second
	PingInterval     = 50 * time.Second
	MaxMessageSize   = 16 * 1024
	HTTPTimeout      = 30 * time.Second
	SynthesisTimeout = 30 * time.Second
	TokenLifetime    = 24 * time.Hour
)
