// SPDX-FileCopyrightText: 2026 chat contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port            string
	DefaultLanguage string

	TranslateURL    string
	TranslateAPIKey string
	SpeechURL       string
	SpeechAPIKey    string
	TTSURL          string
	TTSAPIKey       string

	DBPath    string
	JWTSecret string

	TranslateTimeout time.Duration
	RelayConcurrency int
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:            os.Getenv("CHAT_PORT"),
		DefaultLanguage: os.Getenv("CHAT_DEFAULT_LANGUAGE"),
		TranslateURL:    os.Getenv("CHAT_TRANSLATE_URL"),
		TranslateAPIKey: os.Getenv("CHAT_TRANSLATE_API_KEY"),
		SpeechURL:       os.Getenv("CHAT_SPEECH_URL"),
		SpeechAPIKey:    os.Getenv("CHAT_SPEECH_API_KEY"),
		TTSURL:          os.Getenv("CHAT_TTS_URL"),
		TTSAPIKey:       os.Getenv("ELEVEN_LABS_API_KEY"),
		DBPath:          os.Getenv("CHAT_DB_PATH"),
		JWTSecret:       os.Getenv("CHAT_JWT_SECRET"),
	}

	if cfg.TranslateURL == "" {
		return nil, fmt.Errorf("CHAT_TRANSLATE_URL environment variable is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("CHAT_JWT_SECRET environment variable is required")
	}
	if cfg.Port == "" {
		cfg.Port = "8000"
	}
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = "en"
	}
	if cfg.TTSURL == "" {
		cfg.TTSURL = "https://api.elevenlabs.io/v1/text-to-speech"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "chat.db"
	}

	timeout, err := durationEnv("CHAT_TRANSLATE_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.TranslateTimeout = timeout

	cfg.RelayConcurrency = 8
	if v := os.Getenv("CHAT_RELAY_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid CHAT_RELAY_CONCURRENCY: %q", v)
		}
		cfg.RelayConcurrency = n
	}

	return cfg, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return d, nil
}
