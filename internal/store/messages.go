// SPDX-FileCopyrightText: 2026 chat contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Message is one transcribe/translate round-trip kept in the conversation
// log until the client resets it.
type Message struct {
	ID             uint `gorm:"primaryKey"`
	Text           string
	TranslatedText string
	CreatedAt      time.Time
}

type Messages struct {
	db *gorm.DB
}

func NewMessages(db *gorm.DB) *Messages {
	return &Messages{db: db}
}

func (m *Messages) Append(text, translatedText string) error {
	err := m.db.Create(&Message{Text: text, TranslatedText: translatedText}).Error
	if err != nil {
		return fmt.Errorf("appending message: %w", err)
	}
	return nil
}

func (m *Messages) Reset() error {
	if err := m.db.Exec("DELETE FROM messages").Error; err != nil {
		return fmt.Errorf("resetting messages: %w", err)
	}
	return nil
}

func (m *Messages) All() ([]Message, error) {
	var out []Message
	if err := m.db.Order("id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	return out, nil
}
