// SPDX-FileCopyrightText: 2026 chat contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/samirertt/chat/internal/auth"
	"github.com/samirertt/chat/internal/config"
	"github.com/samirertt/chat/internal/speech"
	"github.com/samirertt/chat/internal/store"
	"github.com/samirertt/chat/internal/translate"
	"github.com/samirertt/chat/internal/tts"
	"github.com/samirertt/chat/internal/ws"
)

const maxAudioUpload = 16 << 20 // 16 MiB

type Handler struct {
	Config      *config.Config
	Users       *store.Users
	Messages    *store.Messages
	Transcriber speech.Transcriber
	Translator  translate.Translator
	Synthesizer tts.Synthesizer
	Tokens      *auth.Tokens
	Hub         *ws.Hub
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

func (h *Handler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if req.Username == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "username and password are required"})
		return
	}

	if err := h.Users.CreateUser(req.Username, req.Password, req.Gender); err != nil {
		if errors.Is(err, store.ErrDuplicateUser) {
			writeJSON(w, http.StatusConflict, ErrorResponse{Error: "username already taken"})
			return
		}
		slog.Error("signup failed", "error", err, "username", req.Username)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "could not create user"})
		return
	}

	writeJSON(w, http.StatusCreated, MessageResponse{Message: "user created"})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if !h.Users.VerifyCredentials(req.Username, req.Password) {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
		return
	}

	token, err := h.Tokens.Issue(req.Username)
	if err != nil {
		slog.Error("token issue failed", "error", err, "username", req.Username)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "could not issue token"})
		return
	}

	writeJSON(w, http.StatusOK, TokenResponse{Token: token})
}

// Transcribe accepts an audio upload, recognizes it and returns both the
// recognized text and its translation into the requested language.
func (h *Handler) Transcribe(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxAudioUpload); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid multipart form"})
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "missing audio file"})
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(io.LimitReader(file, maxAudioUpload))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "could not read audio file"})
		return
	}

	langHint := r.FormValue("language")
	targetLang := r.FormValue("target")
	if targetLang == "" {
		targetLang = h.Config.DefaultLanguage
	}

	text, err := h.Transcriber.Transcribe(r.Context(), audio, langHint)
	if err != nil {
		if errors.Is(err, speech.ErrNoSpeech) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "could not process audio file"})
			return
		}
		slog.Error("transcription failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "speech recognition unavailable"})
		return
	}

	h.respondTranslated(w, r, text, langHint, targetLang)
}

// TranslateText translates submitted text into the requested language.
func (h *Handler) TranslateText(w http.ResponseWriter, r *http.Request) {
	var req TranslateTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if req.Text == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "text is required"})
		return
	}

	targetLang := req.TargetLang
	if targetLang == "" {
		targetLang = h.Config.DefaultLanguage
	}

	h.respondTranslated(w, r, req.Text, req.SourceLang, targetLang)
}

func (h *Handler) respondTranslated(w http.ResponseWriter, r *http.Request, text, sourceLang, targetLang string) {
	translated, err := h.Translator.Translate(r.Context(), text, sourceLang, targetLang)
	if err != nil {
		slog.Error("translation failed", "error", err, "target_lang", targetLang)
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "translation unavailable"})
		return
	}

	// The log is best-effort; the caller still gets their result.
	if err := h.Messages.Append(text, translated); err != nil {
		slog.Warn("failed to append to conversation log", "error", err)
	}

	writeJSON(w, http.StatusOK, TranslationResponse{Text: text, TranslatedText: translated})
}

// Speech synthesizes text into audio and streams the raw bytes back.
func (h *Handler) Speech(w http.ResponseWriter, r *http.Request) {
	var req SpeechRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if req.Text == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "text is required"})
		return
	}

	voiceID := req.VoiceID
	if voiceID == "" {
		voiceID = tts.VoiceForGender(req.Gender)
	}

	audio, err := h.Synthesizer.Synthesize(r.Context(), req.Text, voiceID)
	if err != nil {
		slog.Error("synthesis failed", "error", err, "voice_id", voiceID)
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "speech synthesis unavailable"})
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(audio); err != nil {
		slog.Debug("failed to stream audio", "error", err)
	}
}

func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.Messages.Reset(); err != nil {
		slog.Error("conversation reset failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "could not reset conversation"})
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "conversation reset"})
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /heartbeat", h.Heartbeat)
	mux.HandleFunc("GET /ws", h.Hub.HandleWS)

	mux.HandleFunc("POST /api/v1/signup", h.Signup)
	mux.HandleFunc("POST /api/v1/login", h.Login)
	mux.HandleFunc("POST /api/v1/transcribe", h.Transcribe)
	mux.HandleFunc("POST /api/v1/translate", h.TranslateText)
	mux.HandleFunc("POST /api/v1/speech", h.Speech)
	mux.HandleFunc("POST /api/v1/reset", h.Reset)
}
