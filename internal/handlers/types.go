// SPDX-FileCopyrightText: 2026 chat contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package handlers

type SignupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Gender   string `json:"gender,omitempty"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

type TranslateTextRequest struct {
	Text       string `json:"text"`
	TargetLang string `json:"targetLang,omitempty"`
	SourceLang string `json:"sourceLang,omitempty"`
}

type TranslationResponse struct {
	Text           string `json:"text"`
	TranslatedText string `json:"translated_text"`
}

type SpeechRequest struct {
	Text    string `json:"text"`
	VoiceID string `json:"voiceId,omitempty"`
	Gender  string `json:"gender,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type StatusResponse struct {
	Status string `json:"status"`
}
