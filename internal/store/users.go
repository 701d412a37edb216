// SPDX-FileCopyrightText: 2026 chat contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var ErrDuplicateUser = errors.New("username already taken")

type User struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Gender       string
	CreatedAt    time.Time
}

type Users struct {
	db *gorm.DB
}

func NewUsers(db *gorm.DB) *Users {
	return &Users{db: db}
}

func (u *Users) CreateUser(username, password, gender string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	err = u.db.Create(&User{
		Username:     username,
		PasswordHash: string(hash),
		Gender:       gender,
	}).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %s", ErrDuplicateUser, username)
		}
		return fmt.Errorf("creating user: %w", err)
	}
	return nil
}

func (u *Users) VerifyCredentials(username, password string) bool {
	var user User
	err := u.db.Where("username = ?", username).Take(&user).Error
	if err != nil {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}
