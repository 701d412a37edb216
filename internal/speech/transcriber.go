// SPDX-FileCopyrightText: 2026 chat contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"context"
	"errors"
)

var (
	// ErrNoSpeech means the service processed the audio but found nothing
	// to transcribe.
	ErrNoSpeech = errors.New("no speech detected")

	ErrUnavailable = errors.New("speech service unavailable")
)

// Transcriber is the external speech-to-text capability.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, langHint string) (string, error)
}
