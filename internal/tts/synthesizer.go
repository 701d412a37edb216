// SPDX-FileCopyrightText: 2026 chat contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package tts

import (
	"context"
	"errors"
)

var ErrUnavailable = errors.New("speech synthesis unavailable")

// Synthesizer is the external text-to-speech capability.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voiceID string) ([]byte, error)
}

// Known voice ids, matching the voices the web client offers.
const (
	VoiceRachel = "21m00Tcm4TlvDq8ikWAM"
	VoiceShaun  = "mTSvIrm2hmcnOvb21nW2"
	VoiceAntoni = "ErXwobaYiN019PkySvjV"
	VoiceChris  = "iP95p4xoKVk53GoZ742B"
)

// VoiceForGender maps the client's gender selector to a voice id.
func VoiceForGender(gender string) string {
	if gender == "F" {
		return VoiceRachel
	}
	return VoiceChris
}
