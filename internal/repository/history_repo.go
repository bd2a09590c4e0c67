package repository

import (
	"context"
	"errors"
	"fmt"

	"humanizer/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type HistoryRepository interface {
	Create(ctx context.Context, h *model.History) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.History, error)
	CountByUser(ctx context.Context, userID string) (int, error)
	GetByID(ctx context.Context, id string) (*model.History, error)
	Delete(ctx context.Context, id string) error
}

type historyRepo struct {
	pool *pgxpool.Pool
}

func NewHistoryRepo(pool *pgxpool.Pool) HistoryRepository {
	return &historyRepo{pool: pool}
}

// Create inserts h and fills in its generated ID and timestamp.
func (r *historyRepo) Create(ctx context.Context, h *model.History) error {
	const q = `
		INSERT INTO history (user_id, original_text, humanized_text, words_count, style)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	if err := r.pool.QueryRow(ctx, q, h.UserID, h.OriginalText, h.HumanizedText, h.WordsCount, h.Style).Scan(&h.ID, &h.CreatedAt); err != nil {
		return fmt.Errorf("inserting history for user %s: %w", h.UserID, err)
	}
	return nil
}

// ListByUser returns the user's entries newest first. A limit of zero or less
// returns every entry.
func (r *historyRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.History, error) {
	q := `
		SELECT id::text, user_id, original_text, humanized_text, words_count, style, created_at
		FROM history
		WHERE user_id = $1
		ORDER BY created_at DESC
		OFFSET $2
	`
	args := []any{userID, offset}
	if limit > 0 {
		q += ` LIMIT $3`
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("listing history for user %s: %w", userID, err)
	}
	defer rows.Close()

	entries := []model.History{}
	for rows.Next() {
		var h model.History
		if err := rows.Scan(&h.ID, &h.UserID, &h.OriginalText, &h.HumanizedText, &h.WordsCount, &h.Style, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		entries = append(entries, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history rows: %w", err)
	}
	return entries, nil
}

func (r *historyRepo) CountByUser(ctx context.Context, userID string) (int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM history WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return 0, fmt.Errorf("counting history for user %s: %w", userID, err)
	}
	return total, nil
}

func (r *historyRepo) GetByID(ctx context.Context, id string) (*model.History, error) {
	const q = `
		SELECT id::text, user_id, original_text, humanized_text, words_count, style, created_at
		FROM history
		WHERE id::text = $1
	`
	var h model.History
	err := r.pool.QueryRow(ctx, q, id).Scan(&h.ID, &h.UserID, &h.OriginalText, &h.HumanizedText, &h.WordsCount, &h.Style, &h.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching history %s: %w", id, err)
	}
	return &h, nil
}

func (r *historyRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM history WHERE id::text = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting history %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
