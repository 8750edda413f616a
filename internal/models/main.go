// Package models defines the core data structures for platform accounts.
package models

import "time"

// Account represents a platform user registered through the Telegram bot.
type Account struct {
	// ID is the internal account identifier.
	ID int64 `json:"user_id"`
	// TelegramID is the Telegram user identifier the account is bound to.
	TelegramID int64 `json:"telegram_id"`
	// Username is the Telegram username at registration time.
	Username string `json:"username,omitempty"`
	// FirstName is the user's first name.
	FirstName string `json:"first_name,omitempty"`
	// LastName is the user's last name.
	LastName string `json:"last_name,omitempty"`
	// IsAdmin marks accounts allowed to manage quizzes.
	IsAdmin bool `json:"is_admin"`
	// CreatedAt is when the account was first registered.
	CreatedAt time.Time `json:"-"`
}
