package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
)

func (r *userRepository) Create(ctx context.Context, user *model.User) (*model.User, error) {
	created := *user
	err := r.storage.pool.QueryRow(ctx,
		`INSERT INTO users (email, password_hash, first_name, last_name) VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
		user.Email, user.PasswordHash, user.FirstName, user.LastName,
	).Scan(&created.ID, &created.CreatedAt)
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return nil, domainErrors.ErrAlreadyExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &created, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.get(ctx, `SELECT id, email, password_hash, first_name, last_name, created_at FROM users WHERE email = $1`, email)
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return r.get(ctx, `SELECT id, email, password_hash, first_name, last_name, created_at FROM users WHERE id = $1`, id)
}

func (r *userRepository) get(ctx context.Context, query string, arg any) (*model.User, error) {
	var user model.User
	err := r.storage.pool.QueryRow(ctx, query, arg).
		Scan(&user.ID, &user.Email, &user.PasswordHash, &user.FirstName, &user.LastName, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &user, nil
}
