// Package repository provides persistence implementations for account lookups.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Flaymie/oprosy/internal/models"
)

// ErrAccountNotFound is returned when no account matches the Telegram id.
var ErrAccountNotFound = errors.New("account not found")

// PostgresAccountRepository implements account persistence using a
// PostgreSQL database.
type PostgresAccountRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresAccountRepository creates a new PostgresAccountRepository with
// the given database connection. db must be a valid *sql.DB connected to a
// PostgreSQL instance.
func NewPostgresAccountRepository(db *sql.DB) *PostgresAccountRepository {
	return &PostgresAccountRepository{DB: db}
}

// ByTelegramID fetches the account bound to the given Telegram user id.
// Returns ErrAccountNotFound if no such account exists.
func (r *PostgresAccountRepository) ByTelegramID(ctx context.Context, telegramID int64) (*models.Account, error) {
	var a models.Account
	var username, firstName, lastName sql.NullString
	err := r.DB.QueryRowContext(
		ctx,
		`SELECT id, telegram_id, username, first_name, last_name, is_admin, created_at
		   FROM users WHERE telegram_id = $1`,
		telegramID,
	).Scan(&a.ID, &a.TelegramID, &username, &firstName, &lastName, &a.IsAdmin, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	a.Username = username.String
	a.FirstName = firstName.String
	a.LastName = lastName.String
	return &a, nil
}

// UpdateProfile refreshes the display fields of an existing account from a
// freshly verified identity. Rows for unknown Telegram ids are not created
// here; registration happens through the bot.
func (r *PostgresAccountRepository) UpdateProfile(ctx context.Context, telegramID int64, username, firstName, lastName string) error {
	_, err := r.DB.ExecContext(
		ctx,
		`UPDATE users SET username = $2, first_name = $3, last_name = $4 WHERE telegram_id = $1`,
		telegramID, username, firstName, lastName,
	)
	return err
}
