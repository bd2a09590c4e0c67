package model

import (
	"time"

	"humanizer/internal/ledger"
)

// Defaults applied when a profile is created lazily.
const (
	DefaultWordsBalance    = 500
	DefaultExtraWords      = 0
	DefaultWordsLimit      = 500
	DefaultWordsPerRequest = 500
	DefaultPlan            = "free"
	DefaultStyle           = "standard"
)

// Subscription statuses written by billing flows.
const (
	StatusActive      = "active"
	StatusAttention   = "attention"
	StatusNonRenewing = "non-renewing"
	StatusCancelled   = "cancelled"
)

const (
	BillingMonthly = "monthly"
	BillingAnnual  = "annually"
)

// Profile holds a user's word quota, preferences and Paystack linkage.
type Profile struct {
	UserID            string `db:"user_id" json:"user_id"`
	FullName          string `db:"full_name" json:"full_name"`
	PreferredStyle    string `db:"preferred_style" json:"preferred_style"`
	MarketingEmails   bool   `db:"marketing_emails" json:"marketing_emails"`
	WordsBalance      int    `db:"words_balance" json:"words_balance"`
	ExtraWordsBalance int    `db:"extra_words_balance" json:"extra_words_balance"`
	WordsLimit        int    `db:"words_limit" json:"words_limit"`
	WordsPerRequest   int    `db:"words_per_request" json:"words_per_request"`

	Plan          string `db:"plan" json:"plan"`
	Status        string `db:"status" json:"status"`
	BillingPeriod string `db:"billing_period" json:"billing_period"`

	PaystackCustomerCode      *string `db:"paystack_customer_code" json:"paystack_customer_code,omitempty"`
	PaystackSubscriptionCode  *string `db:"paystack_subscription_code" json:"paystack_subscription_code,omitempty"`
	PaystackAuthorizationCode *string `db:"paystack_authorization_code" json:"-"`
	PaystackPlanCode          *string `db:"paystack_plan_code" json:"paystack_plan_code,omitempty"`
	PaystackEmailToken        *string `db:"paystack_email_token" json:"-"`
	SubscriptionCanceled      bool    `db:"subscription_canceled" json:"subscription_canceled"`
	SubscriptionPaused        bool    `db:"subscription_paused" json:"subscription_paused"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

func (p *Profile) Balance() ledger.Balance {
	return ledger.Balance{Words: p.WordsBalance, ExtraWords: p.ExtraWordsBalance}
}

// ProfilePatch carries the user-editable profile fields. Nil means unchanged.
type ProfilePatch struct {
	FullName        *string
	PreferredStyle  *string
	MarketingEmails *bool
}

// PlanUpdate is applied to a profile when a subscription is created or paid.
// Empty processor codes leave the stored value untouched.
type PlanUpdate struct {
	Plan            string
	PlanCode        string
	BillingPeriod   string
	WordsLimit      int
	WordsPerRequest int
	Status          string

	CustomerCode      string
	SubscriptionCode  string
	AuthorizationCode string
	EmailToken        string

	// ResetBalance sets words_balance to WordsLimit.
	ResetBalance bool
}
