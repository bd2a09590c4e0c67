package repository

import (
	"context"
	"errors"
	"fmt"

	"humanizer/internal/ledger"
	"humanizer/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a row the caller depends on does not exist.
var ErrNotFound = errors.New("not found")

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const profileColumns = `
	p.user_id, p.full_name, p.preferred_style, p.marketing_emails,
	p.words_balance, p.extra_words_balance, p.words_limit, p.words_per_request,
	p.plan, p.status, p.billing_period,
	p.paystack_customer_code, p.paystack_subscription_code, p.paystack_authorization_code,
	p.paystack_plan_code, p.paystack_email_token,
	p.subscription_canceled, p.subscription_paused, p.created_at, p.updated_at`

func scanProfile(row pgx.Row) (*model.Profile, error) {
	var p model.Profile
	err := row.Scan(
		&p.UserID, &p.FullName, &p.PreferredStyle, &p.MarketingEmails,
		&p.WordsBalance, &p.ExtraWordsBalance, &p.WordsLimit, &p.WordsPerRequest,
		&p.Plan, &p.Status, &p.BillingPeriod,
		&p.PaystackCustomerCode, &p.PaystackSubscriptionCode, &p.PaystackAuthorizationCode,
		&p.PaystackPlanCode, &p.PaystackEmailToken,
		&p.SubscriptionCanceled, &p.SubscriptionPaused, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID string) (*model.Profile, error)
	// EnsureDefault creates the default profile if none exists. Concurrent
	// callers are resolved by the primary key on user_id.
	EnsureDefault(ctx context.Context, userID, fullName string) error
	UpdatePreferences(ctx context.Context, userID string, patch model.ProfilePatch) (*model.Profile, error)

	// DebitWords locks the profile row, applies ledger.Debit with the stored
	// per-request cap and persists the result in the same transaction.
	// Quota failures are returned as *ledger.QuotaError with balances unchanged.
	DebitWords(ctx context.Context, userID string, words int, unlimited bool) (ledger.Balance, error)

	// FindByProcessorRef resolves a webhook target, preferring subscription
	// code, then customer code, then email. Returns nil, nil when nothing matches.
	FindByProcessorRef(ctx context.Context, subscriptionCode, customerCode, email string) (*model.Profile, error)
	ApplyPlan(ctx context.Context, userID string, upd model.PlanUpdate) error
	SetStatus(ctx context.Context, userID, status string) error
	MarkCanceled(ctx context.Context, userID, status string) error
	AddExtraWords(ctx context.Context, userID string, words int) error
	ResetBalance(ctx context.Context, userID string) error
}

type profileRepo struct {
	pool *pgxpool.Pool
}

func NewProfileRepo(pool *pgxpool.Pool) ProfileRepository {
	return &profileRepo{pool: pool}
}

func (r *profileRepo) GetByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	q := `SELECT ` + profileColumns + ` FROM profiles p WHERE p.user_id = $1`
	p, err := scanProfile(r.pool.QueryRow(ctx, q, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching profile for user %s: %w", userID, err)
	}
	return p, nil
}

func (r *profileRepo) EnsureDefault(ctx context.Context, userID, fullName string) error {
	return ensureProfile(ctx, r.pool, userID, fullName)
}

func ensureProfile(ctx context.Context, q querier, userID, fullName string) error {
	const insertQ = `
		INSERT INTO profiles (user_id, full_name, preferred_style, words_balance, extra_words_balance,
		                      words_limit, words_per_request, plan, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id) DO NOTHING
	`
	_, err := q.Exec(ctx, insertQ, userID, fullName, model.DefaultStyle,
		model.DefaultWordsBalance, model.DefaultExtraWords, model.DefaultWordsLimit,
		model.DefaultWordsPerRequest, model.DefaultPlan, model.StatusActive)
	if err != nil {
		return fmt.Errorf("creating default profile for user %s: %w", userID, err)
	}
	return nil
}

func (r *profileRepo) UpdatePreferences(ctx context.Context, userID string, patch model.ProfilePatch) (*model.Profile, error) {
	q := `
		UPDATE profiles p
		SET full_name = COALESCE($2, p.full_name),
		    preferred_style = COALESCE($3, p.preferred_style),
		    marketing_emails = COALESCE($4, p.marketing_emails),
		    updated_at = NOW()
		WHERE p.user_id = $1
		RETURNING ` + profileColumns
	p, err := scanProfile(r.pool.QueryRow(ctx, q, userID, patch.FullName, patch.PreferredStyle, patch.MarketingEmails))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("updating profile for user %s: %w", userID, err)
	}
	return p, nil
}

func (r *profileRepo) DebitWords(ctx context.Context, userID string, words int, unlimited bool) (ledger.Balance, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return ledger.Balance{}, fmt.Errorf("starting transaction for debit: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	const lockQ = `
		SELECT words_balance, extra_words_balance, words_per_request
		FROM profiles
		WHERE user_id = $1
		FOR UPDATE
	`
	var current ledger.Balance
	var perRequestCap int
	if err := tx.QueryRow(ctx, lockQ, userID).Scan(&current.Words, &current.ExtraWords, &perRequestCap); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ledger.Balance{}, ErrNotFound
		}
		return ledger.Balance{}, fmt.Errorf("locking profile for user %s: %w", userID, err)
	}

	next, err := ledger.Debit(current, words, perRequestCap, unlimited)
	if err != nil {
		return current, err
	}
	if next == current {
		return current, nil
	}

	const updateQ = `
		UPDATE profiles
		SET words_balance = $2, extra_words_balance = $3, updated_at = NOW()
		WHERE user_id = $1
	`
	if _, err := tx.Exec(ctx, updateQ, userID, next.Words, next.ExtraWords); err != nil {
		return current, fmt.Errorf("debiting %d words for user %s: %w", words, userID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return current, fmt.Errorf("committing debit for user %s: %w", userID, err)
	}
	return next, nil
}

func (r *profileRepo) FindByProcessorRef(ctx context.Context, subscriptionCode, customerCode, email string) (*model.Profile, error) {
	q := `
		SELECT ` + profileColumns + `
		FROM profiles p
		JOIN users u ON u.id = p.user_id
		WHERE ($1 <> '' AND p.paystack_subscription_code = $1)
		   OR ($2 <> '' AND p.paystack_customer_code = $2)
		   OR ($3 <> '' AND u.email = lower($3))
		ORDER BY CASE
		    WHEN $1 <> '' AND p.paystack_subscription_code = $1 THEN 0
		    WHEN $2 <> '' AND p.paystack_customer_code = $2 THEN 1
		    ELSE 2
		END
		LIMIT 1
	`
	p, err := scanProfile(r.pool.QueryRow(ctx, q, subscriptionCode, customerCode, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("finding profile by processor ref: %w", err)
	}
	return p, nil
}

func (r *profileRepo) ApplyPlan(ctx context.Context, userID string, upd model.PlanUpdate) error {
	return applyPlan(ctx, r.pool, userID, upd)
}

func applyPlan(ctx context.Context, q querier, userID string, upd model.PlanUpdate) error {
	if err := ensureProfile(ctx, q, userID, ""); err != nil {
		return err
	}
	const updateQ = `
		UPDATE profiles
		SET plan = $2,
		    paystack_plan_code = COALESCE(NULLIF($3, ''), paystack_plan_code),
		    billing_period = $4,
		    words_limit = $5,
		    words_per_request = $6,
		    words_balance = CASE WHEN $7::boolean THEN $5 ELSE words_balance END,
		    status = COALESCE(NULLIF($8, ''), status),
		    paystack_customer_code = COALESCE(NULLIF($9, ''), paystack_customer_code),
		    paystack_subscription_code = COALESCE(NULLIF($10, ''), paystack_subscription_code),
		    paystack_authorization_code = COALESCE(NULLIF($11, ''), paystack_authorization_code),
		    paystack_email_token = COALESCE(NULLIF($12, ''), paystack_email_token),
		    subscription_canceled = FALSE,
		    updated_at = NOW()
		WHERE user_id = $1
	`
	_, err := q.Exec(ctx, updateQ, userID, upd.Plan, upd.PlanCode, upd.BillingPeriod,
		upd.WordsLimit, upd.WordsPerRequest, upd.ResetBalance, upd.Status,
		upd.CustomerCode, upd.SubscriptionCode, upd.AuthorizationCode, upd.EmailToken)
	if err != nil {
		return fmt.Errorf("applying plan %s for user %s: %w", upd.Plan, userID, err)
	}
	return nil
}

func (r *profileRepo) SetStatus(ctx context.Context, userID, status string) error {
	const q = `UPDATE profiles SET status = $2, updated_at = NOW() WHERE user_id = $1`
	if _, err := r.pool.Exec(ctx, q, userID, status); err != nil {
		return fmt.Errorf("setting status %s for user %s: %w", status, userID, err)
	}
	return nil
}

func (r *profileRepo) MarkCanceled(ctx context.Context, userID, status string) error {
	const q = `
		UPDATE profiles
		SET status = $2, subscription_canceled = TRUE, updated_at = NOW()
		WHERE user_id = $1
	`
	if _, err := r.pool.Exec(ctx, q, userID, status); err != nil {
		return fmt.Errorf("marking subscription canceled for user %s: %w", userID, err)
	}
	return nil
}

func (r *profileRepo) AddExtraWords(ctx context.Context, userID string, words int) error {
	return addExtraWords(ctx, r.pool, userID, words)
}

func addExtraWords(ctx context.Context, q querier, userID string, words int) error {
	const updateQ = `
		UPDATE profiles
		SET extra_words_balance = extra_words_balance + $2, updated_at = NOW()
		WHERE user_id = $1
	`
	tag, err := q.Exec(ctx, updateQ, userID, words)
	if err != nil {
		return fmt.Errorf("adding %d extra words for user %s: %w", words, userID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *profileRepo) ResetBalance(ctx context.Context, userID string) error {
	const q = `
		UPDATE profiles
		SET words_balance = $2, extra_words_balance = $3, updated_at = NOW()
		WHERE user_id = $1
	`
	tag, err := r.pool.Exec(ctx, q, userID, model.DefaultWordsBalance, model.DefaultExtraWords)
	if err != nil {
		return fmt.Errorf("resetting balance for user %s: %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
