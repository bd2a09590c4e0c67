package dto

// PaystackInitializeRequestDTO starts a checkout for either a plan or a
// top-up pack, never both.
type PaystackInitializeRequestDTO struct {
	Plan          string `json:"plan,omitempty" validate:"required_without=Pack,excluded_with=Pack"`
	BillingPeriod string `json:"billing_period,omitempty" validate:"omitempty,oneof=monthly annually"`
	Pack          string `json:"pack,omitempty" validate:"required_without=Plan"`
}

type PaystackInitializeResponseDTO struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type PaystackVerifyResponseDTO struct {
	Reference string             `json:"reference"`
	Kind      string             `json:"kind"`
	Credited  bool               `json:"credited"`
	Profile   ProfileResponseDTO `json:"profile"`
}

type ManageSubscriptionResponseDTO struct {
	Link string `json:"link"`
}
