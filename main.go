// SPDX-FileCopyrightText: 2026 chat contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samirertt/chat/internal/auth"
	"github.com/samirertt/chat/internal/config"
	"github.com/samirertt/chat/internal/handlers"
	"github.com/samirertt/chat/internal/registry"
	"github.com/samirertt/chat/internal/relay"
	"github.com/samirertt/chat/internal/rooms"
	"github.com/samirertt/chat/internal/speech"
	"github.com/samirertt/chat/internal/store"
	"github.com/samirertt/chat/internal/translate"
	"github.com/samirertt/chat/internal/tts"
	"github.com/samirertt/chat/internal/ws"
)

func main() {
	logLevel := slog.LevelInfo
	if os.Getenv("CHAT_LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.Info("starting chat relay",
		"port", cfg.Port,
		"default_language", cfg.DefaultLanguage,
		"relay_concurrency", cfg.RelayConcurrency,
	)

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}

	gateway := translate.NewGateway(
		translate.NewClient(cfg.TranslateURL, cfg.TranslateAPIKey),
		cfg.RelayConcurrency,
		cfg.TranslateTimeout,
	)

	reg := registry.New(cfg.DefaultLanguage)
	dir := rooms.NewDirectory()

	rel := relay.New(reg, dir, gateway, nil)
	hub := ws.NewHub(reg, dir, rel)
	rel.SetSender(hub)

	relayCtx, relayCancel := context.WithCancel(context.Background())
	defer relayCancel()
	go rel.Run(relayCtx)

	h := &handlers.Handler{
		Config:      cfg,
		Users:       store.NewUsers(db),
		Messages:    store.NewMessages(db),
		Transcriber: speech.NewClient(cfg.SpeechURL, cfg.SpeechAPIKey),
		Translator:  gateway,
		Synthesizer: tts.NewClient(cfg.TTSURL, cfg.TTSAPIKey),
		Tokens:      auth.NewTokens(cfg.JWTSecret),
		Hub:         hub,
	}

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	skipAuth := map[string]bool{
		"/heartbeat":     true,
		"/ws":            true,
		"/api/v1/signup": true,
		"/api/v1/login":  true,
	}
	authedHandler := auth.Middleware(h.Tokens, skipAuth, mux)

	srv := &http.Server{
		Handler:      authedHandler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	addr := ":" + cfg.Port
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		slog.Error("failed to listen", "addr", addr, "error", err)
		os.Exit(1)
	}
	slog.Info("HTTP server listening", "addr", addr)

	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	hub.Shutdown()
	relayCancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
}
