package dto

import "time"

// ProfileUpdateDTO lists the only fields a user may change. Anything else in
// the request body is ignored.
type ProfileUpdateDTO struct {
	FullName        *string `json:"full_name,omitempty" validate:"omitempty,max=120"`
	PreferredStyle  *string `json:"preferred_style,omitempty" validate:"omitempty,min=1"`
	MarketingEmails *bool   `json:"marketing_emails,omitempty"`
}

type ProfileResponseDTO struct {
	UserID            string    `json:"user_id"`
	FullName          string    `json:"full_name"`
	PreferredStyle    string    `json:"preferred_style"`
	MarketingEmails   bool      `json:"marketing_emails"`
	WordsBalance      int       `json:"words_balance"`
	ExtraWordsBalance int       `json:"extra_words_balance"`
	WordsLimit        int       `json:"words_limit"`
	WordsPerRequest   int       `json:"words_per_request"`
	Plan              string    `json:"plan"`
	Status            string    `json:"status"`
	BillingPeriod     string    `json:"billing_period"`
	Subscribed        bool      `json:"subscribed"`
	Canceled          bool      `json:"subscription_canceled"`
	Paused            bool      `json:"subscription_paused"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type GrantWordsRequestDTO struct {
	Words int `json:"words" validate:"required,gt=0,lte=1000000"`
}
