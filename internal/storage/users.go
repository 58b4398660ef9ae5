// Package storage provides the durable record store for the marketplace.
// All listing status changes go through conditional updates whose predicate
// includes the current status; callers never write a status based on a value
// they read earlier.
package storage

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/groupmarket/groupbot/internal/model"
)

// UserRepository persists seller profiles.
type UserRepository interface {
	Upsert(ctx context.Context, telegramID int64, username, firstName string) error
	FindByTelegramID(ctx context.Context, telegramID int64) (*model.UserProfile, error)
}

type userRepo struct {
	db *sqlx.DB
}

// NewUserRepository builds a Postgres-backed UserRepository.
func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Upsert(ctx context.Context, telegramID int64, username, firstName string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (telegram_id, username, first_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (telegram_id) DO UPDATE SET
			username = EXCLUDED.username,
			first_name = EXCLUDED.first_name,
			updated_at = NOW()
	`, telegramID, username, firstName)
	return err
}

func (r *userRepo) FindByTelegramID(ctx context.Context, telegramID int64) (*model.UserProfile, error) {
	var user model.UserProfile
	err := r.db.GetContext(ctx, &user, `
		SELECT * FROM users WHERE telegram_id = $1
	`, telegramID)
	return handleNotFound(&user, err)
}
