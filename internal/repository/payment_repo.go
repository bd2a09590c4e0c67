package repository

import (
	"context"
	"errors"
	"fmt"

	"humanizer/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Credit describes what a verified payment grants. Exactly one of Plan or
// ExtraWords is expected to be set.
type Credit struct {
	Plan       *model.PlanUpdate
	ExtraWords int
}

type PaymentRepository interface {
	CreatePending(ctx context.Context, t *model.PaymentTransaction) error
	GetByReference(ctx context.Context, reference string) (*model.PaymentTransaction, error)
	// Settle marks the reference successful and applies the credit to the
	// owner's profile in one transaction. It returns false without touching
	// the profile when the reference was already settled.
	Settle(ctx context.Context, t *model.PaymentTransaction, credit Credit) (bool, error)
}

type paymentRepo struct {
	pool *pgxpool.Pool
}

func NewPaymentRepo(pool *pgxpool.Pool) PaymentRepository {
	return &paymentRepo{pool: pool}
}

func (r *paymentRepo) CreatePending(ctx context.Context, t *model.PaymentTransaction) error {
	const q = `
		INSERT INTO payment_transactions (reference, user_id, kind, item_key, amount, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	if err := r.pool.QueryRow(ctx, q, t.Reference, t.UserID, t.Kind, t.ItemKey, t.Amount, model.PaymentPending).Scan(&t.CreatedAt); err != nil {
		return fmt.Errorf("recording pending payment %s: %w", t.Reference, err)
	}
	t.Status = model.PaymentPending
	return nil
}

func (r *paymentRepo) GetByReference(ctx context.Context, reference string) (*model.PaymentTransaction, error) {
	const q = `
		SELECT reference, user_id, kind, item_key, amount, status, created_at, verified_at
		FROM payment_transactions
		WHERE reference = $1
	`
	var t model.PaymentTransaction
	err := r.pool.QueryRow(ctx, q, reference).Scan(&t.Reference, &t.UserID, &t.Kind, &t.ItemKey, &t.Amount, &t.Status, &t.CreatedAt, &t.VerifiedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching payment %s: %w", reference, err)
	}
	return &t, nil
}

func (r *paymentRepo) Settle(ctx context.Context, t *model.PaymentTransaction, credit Credit) (bool, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, fmt.Errorf("starting transaction for payment %s: %w", t.Reference, err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	const settleQ = `
		INSERT INTO payment_transactions (reference, user_id, kind, item_key, amount, status, verified_at)
		VALUES ($1, $2, $3, $4, $5, 'success', NOW())
		ON CONFLICT (reference) DO UPDATE
		SET status = 'success', verified_at = NOW()
		WHERE payment_transactions.status <> 'success'
		RETURNING reference
	`
	var ref string
	err = tx.QueryRow(ctx, settleQ, t.Reference, t.UserID, t.Kind, t.ItemKey, t.Amount).Scan(&ref)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("settling payment %s: %w", t.Reference, err)
	}

	if credit.Plan != nil {
		if err := applyPlan(ctx, tx, t.UserID, *credit.Plan); err != nil {
			return false, err
		}
	}
	if credit.ExtraWords > 0 {
		if err := ensureProfile(ctx, tx, t.UserID, ""); err != nil {
			return false, err
		}
		if err := addExtraWords(ctx, tx, t.UserID, credit.ExtraWords); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("committing payment %s: %w", t.Reference, err)
	}
	return true, nil
}
