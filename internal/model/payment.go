package model

import "time"

const (
	PaymentKindPlan  = "plan"
	PaymentKindTopUp = "topup"

	PaymentPending = "pending"
	PaymentSuccess = "success"
)

// PaymentTransaction records a Paystack reference so it is credited once.
type PaymentTransaction struct {
	Reference  string     `db:"reference" json:"reference"`
	UserID     string     `db:"user_id" json:"user_id"`
	Kind       string     `db:"kind" json:"kind"`
	ItemKey    string     `db:"item_key" json:"item_key"`
	Amount     int64      `db:"amount" json:"amount"`
	Status     string     `db:"status" json:"status"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	VerifiedAt *time.Time `db:"verified_at" json:"verified_at,omitempty"`
}
