// SPDX-FileCopyrightText: 2026 chat contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package translate

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable marks a translation that failed or timed out; callers
	// degrade to the original text.
	ErrUnavailable = errors.New("translation unavailable")
)

// Translator is the external translation capability. Implementations must
// be safe for concurrent use.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}
