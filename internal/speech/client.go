// SPDX-FileCopyrightText: 2026 chat contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/samirertt/chat/internal/constants"
)

// Client wraps a remote speech recognition HTTP API: raw audio in,
// recognized text out.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: constants.HTTPTimeout,
		},
		logger: slog.With("component", "speech_client"),
	}
}

type recognizeResponse struct {
	Text string `json:"text"`
}

func (c *Client) Transcribe(ctx context.Context, audio []byte, langHint string) (string, error) {
	endpoint := c.baseURL + "/recognize"
	if langHint != "" {
		endpoint += "?language=" + url.QueryEscape(langHint)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(audio))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading response: %v", ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 500:
		c.logger.Warn("speech request failed", "status", resp.StatusCode, "body", string(body))
		return "", fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	default:
		return "", fmt.Errorf("speech request failed with status %d", resp.StatusCode)
	}

	var parsed recognizeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("parsing response: %w", err)
	}
	if parsed.Text == "" {
		return "", ErrNoSpeech
	}

	return parsed.Text, nil
}
