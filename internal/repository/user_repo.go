package repository

import (
	"context"
	"errors"
	"fmt"

	"humanizer/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository interface {
	// Upsert inserts the user or refreshes name/avatar of the row sharing its
	// email, and returns the stored row. The stored ID wins over u.ID.
	Upsert(ctx context.Context, u *model.User) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

type userRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) UserRepository {
	return &userRepo{pool: pool}
}

func (r *userRepo) Upsert(ctx context.Context, u *model.User) (*model.User, error) {
	const q = `
		INSERT INTO users (id, email, name, avatar_url)
		VALUES ($1, lower($2), $3, $4)
		ON CONFLICT (email) DO UPDATE
		SET name = COALESCE(NULLIF(EXCLUDED.name, ''), users.name),
		    avatar_url = COALESCE(NULLIF(EXCLUDED.avatar_url, ''), users.avatar_url),
		    updated_at = NOW()
		RETURNING id, email, name, avatar_url, role, created_at, updated_at
	`
	var out model.User
	err := r.pool.QueryRow(ctx, q, u.ID, u.Email, u.Name, u.AvatarURL).Scan(
		&out.ID, &out.Email, &out.Name, &out.AvatarURL, &out.Role, &out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("upserting user %s: %w", u.Email, err)
	}
	return &out, nil
}

func (r *userRepo) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	const q = `SELECT id, email, name, avatar_url, role, created_at, updated_at FROM users WHERE id = $1`
	var u model.User
	err := r.pool.QueryRow(ctx, q, id).Scan(&u.ID, &u.Email, &u.Name, &u.AvatarURL, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching user %s: %w", id, err)
	}
	return &u, nil
}
