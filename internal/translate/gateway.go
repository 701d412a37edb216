// SPDX-FileCopyrightText: 2026 chat contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package translate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
)

// Gateway fronts the remote translator with a per-call timeout, a bound on
// concurrent upstream calls and deduplication of identical in-flight
// requests. No lock is held across the network call and no result is
// cached beyond the lifetime of the in-flight call.
type Gateway struct {
	upstream Translator
	sem      *semaphore.Weighted
	group    singleflight.Group
	timeout  time.Duration
	logger   *slog.Logger
}

func NewGateway(upstream Translator, maxConcurrent int, timeout time.Duration) *Gateway {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Gateway{
		upstream: upstream,
		sem:      semaphore.NewWeighted(int64(maxConcurrent)),
		timeout:  timeout,
		logger:   slog.With("component", "translate_gateway"),
	}
}

// Translate returns the translated text or an error wrapping
// ErrUnavailable. The call never takes longer than the configured timeout
// plus scheduling noise; there is no automatic retry.
func (g *Gateway) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	key := targetLang + "\x00" + sourceLang + "\x00" + text

	ch := g.group.DoChan(key, func() (any, error) {
		// Independent of any single caller's context: other callers may
		// still be waiting on this flight after the first one leaves.
		callCtx, cancel := context.WithTimeout(context.Background(), g.timeout)
		defer cancel()

		if err := g.sem.Acquire(callCtx, 1); err != nil {
			return nil, fmt.Errorf("%w: waiting for translation slot: %v", ErrUnavailable, err)
		}
		defer g.sem.Release(1)

		out, err := g.upstream.Translate(callCtx, text, sourceLang, targetLang)
		if err != nil {
			g.logger.Warn("translation failed",
				"error", err,
				"source_lang", sourceLang,
				"target_lang", targetLang,
			)
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return out, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
	}
}
