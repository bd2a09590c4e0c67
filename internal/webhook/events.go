// Package webhook verifies and reconciles Paystack webhook deliveries.
package webhook

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Event is one of the Paystack events this service understands. The set is
// closed: only types in this package implement it.
type Event interface {
	Type() string
	event()
}

// Customer identifies the payer on every event.
type Customer struct {
	Code  string
	Email string
}

type SubscriptionCreated struct {
	Customer
	SubscriptionCode  string
	EmailToken        string
	PlanCode          string
	AuthorizationCode string
	Status            string
}

type ChargeSucceeded struct {
	Customer
	Reference         string
	PlanCode          string
	AuthorizationCode string
}

type InvoicePaymentFailed struct {
	Customer
	SubscriptionCode string
	PlanCode         string
}

type InvoiceUpdated struct {
	Customer
	SubscriptionCode string
	Paid             bool
	Status           string
}

type SubscriptionDisabled struct {
	Customer
	SubscriptionCode string
	PlanCode         string
	Status           string
}

type SubscriptionNotRenewing struct {
	Customer
	SubscriptionCode string
}

// Unhandled wraps any event type the reconciler ignores.
type Unhandled struct {
	Name string
}

func (SubscriptionCreated) Type() string     { return "subscription.create" }
func (ChargeSucceeded) Type() string         { return "charge.success" }
func (InvoicePaymentFailed) Type() string    { return "invoice.payment_failed" }
func (InvoiceUpdated) Type() string          { return "invoice.update" }
func (SubscriptionDisabled) Type() string    { return "subscription.disable" }
func (SubscriptionNotRenewing) Type() string { return "subscription.not_renew" }
func (u Unhandled) Type() string             { return u.Name }

func (SubscriptionCreated) event()     {}
func (ChargeSucceeded) event()         {}
func (InvoicePaymentFailed) event()    {}
func (InvoiceUpdated) event()          {}
func (SubscriptionDisabled) event()    {}
func (SubscriptionNotRenewing) event() {}
func (Unhandled) event()               {}

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type payload struct {
	Reference        string          `json:"reference"`
	Status           string          `json:"status"`
	Paid             bool            `json:"paid"`
	SubscriptionCode string          `json:"subscription_code"`
	EmailToken       string          `json:"email_token"`
	Plan             json.RawMessage `json:"plan"`
	Customer         struct {
		CustomerCode string `json:"customer_code"`
		Email        string `json:"email"`
	} `json:"customer"`
	Authorization struct {
		AuthorizationCode string `json:"authorization_code"`
	} `json:"authorization"`
	Subscription json.RawMessage `json:"subscription"`
}

func (p payload) customer() Customer {
	return Customer{Code: p.Customer.CustomerCode, Email: p.Customer.Email}
}

// planCode accepts a plan object, a bare plan code string, or an empty value.
func (p payload) planCode() string {
	return codeField(p.Plan, "plan_code")
}

// subscriptionCode prefers the top-level field and falls back to the nested
// subscription object carried by invoice events.
func (p payload) subscriptionCode() string {
	if p.SubscriptionCode != "" {
		return p.SubscriptionCode
	}
	return codeField(p.Subscription, "subscription_code")
}

func codeField(raw json.RawMessage, field string) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return ""
		}
		var s string
		if err := json.Unmarshal(obj[field], &s); err == nil {
			return s
		}
	}
	return ""
}

// Parse decodes a raw webhook body into a typed Event. Unknown event names
// become Unhandled rather than an error.
func Parse(raw []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode webhook envelope: %w", err)
	}
	if env.Event == "" {
		return nil, fmt.Errorf("webhook envelope has no event name")
	}

	var p payload
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, fmt.Errorf("decode %s data: %w", env.Event, err)
		}
	}

	switch env.Event {
	case "subscription.create":
		return SubscriptionCreated{
			Customer:          p.customer(),
			SubscriptionCode:  p.subscriptionCode(),
			EmailToken:        p.EmailToken,
			PlanCode:          p.planCode(),
			AuthorizationCode: p.Authorization.AuthorizationCode,
			Status:            p.Status,
		}, nil
	case "charge.success":
		return ChargeSucceeded{
			Customer:          p.customer(),
			Reference:         p.Reference,
			PlanCode:          p.planCode(),
			AuthorizationCode: p.Authorization.AuthorizationCode,
		}, nil
	case "invoice.payment_failed":
		return InvoicePaymentFailed{
			Customer:         p.customer(),
			SubscriptionCode: p.subscriptionCode(),
			PlanCode:         p.planCode(),
		}, nil
	case "invoice.update":
		return InvoiceUpdated{
			Customer:         p.customer(),
			SubscriptionCode: p.subscriptionCode(),
			Paid:             p.Paid,
			Status:           p.Status,
		}, nil
	case "subscription.disable":
		return SubscriptionDisabled{
			Customer:         p.customer(),
			SubscriptionCode: p.subscriptionCode(),
			PlanCode:         p.planCode(),
			Status:           p.Status,
		}, nil
	case "subscription.not_renew":
		return SubscriptionNotRenewing{
			Customer:         p.customer(),
			SubscriptionCode: p.subscriptionCode(),
		}, nil
	}
	return Unhandled{Name: env.Event}, nil
}
