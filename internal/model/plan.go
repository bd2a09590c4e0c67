package model

import "fmt"

// Plan is a paid subscription tier. Amounts are in kobo.
type Plan struct {
	Key             string `json:"key"`
	Name            string `json:"name"`
	Code            string `json:"code"`
	BillingPeriod   string `json:"billing_period"`
	WordsLimit      int    `json:"words_limit"`
	WordsPerRequest int    `json:"words_per_request"`
	Amount          int64  `json:"amount"`
}

// Update returns the profile change that puts a subscriber on p.
func (p Plan) Update(status string, resetBalance bool) PlanUpdate {
	return PlanUpdate{
		Plan:            p.Key,
		PlanCode:        p.Code,
		BillingPeriod:   p.BillingPeriod,
		WordsLimit:      p.WordsLimit,
		WordsPerRequest: p.WordsPerRequest,
		Status:          status,
		ResetBalance:    resetBalance,
	}
}

// TopUpPack is a one-off purchase credited to extra_words_balance.
type TopUpPack struct {
	Key    string `json:"key"`
	Name   string `json:"name"`
	Words  int    `json:"words"`
	Amount int64  `json:"amount"`
}

type tier struct {
	key, name       string
	wordsLimit      int
	wordsPerRequest int
	monthlyAmount   int64
}

var tiers = []tier{
	{key: "basic", name: "Basic", wordsLimit: 10000, wordsPerRequest: 1000, monthlyAmount: 500000},
	{key: "pro", name: "Pro", wordsLimit: 30000, wordsPerRequest: 2500, monthlyAmount: 1200000},
	{key: "ultra", name: "Ultra", wordsLimit: 100000, wordsPerRequest: 5000, monthlyAmount: 3000000},
}

var topUpPacks = []TopUpPack{
	{Key: "words_5k", Name: "5,000 extra words", Words: 5000, Amount: 300000},
	{Key: "words_20k", Name: "20,000 extra words", Words: 20000, Amount: 1000000},
}

// PlanCatalog maps Paystack plan codes onto local plan configuration.
type PlanCatalog struct {
	plans []Plan
	packs []TopUpPack
}

// PlanCodeKey is the key under which a tier's Paystack plan code is supplied
// to NewPlanCatalog, e.g. "pro_monthly".
func PlanCodeKey(tierKey, period string) string {
	if period == BillingAnnual {
		return tierKey + "_annual"
	}
	return tierKey + "_monthly"
}

// NewPlanCatalog builds monthly and annual variants of every tier. Annual
// plans carry twelve months of words and are billed at ten months.
func NewPlanCatalog(codes map[string]string) *PlanCatalog {
	c := &PlanCatalog{packs: topUpPacks}
	for _, t := range tiers {
		c.plans = append(c.plans,
			Plan{
				Key:             t.key,
				Name:            t.name,
				Code:            codes[PlanCodeKey(t.key, BillingMonthly)],
				BillingPeriod:   BillingMonthly,
				WordsLimit:      t.wordsLimit,
				WordsPerRequest: t.wordsPerRequest,
				Amount:          t.monthlyAmount,
			},
			Plan{
				Key:             t.key,
				Name:            fmt.Sprintf("%s (annual)", t.name),
				Code:            codes[PlanCodeKey(t.key, BillingAnnual)],
				BillingPeriod:   BillingAnnual,
				WordsLimit:      t.wordsLimit * 12,
				WordsPerRequest: t.wordsPerRequest,
				Amount:          t.monthlyAmount * 10,
			},
		)
	}
	return c
}

func (c *PlanCatalog) Plans() []Plan {
	return c.plans
}

func (c *PlanCatalog) Packs() []TopUpPack {
	return c.packs
}

// ByCode finds the plan configured with the given Paystack plan code.
func (c *PlanCatalog) ByCode(code string) (Plan, bool) {
	if code == "" {
		return Plan{}, false
	}
	for _, p := range c.plans {
		if p.Code == code {
			return p, true
		}
	}
	return Plan{}, false
}

func (c *PlanCatalog) ByKey(key, period string) (Plan, bool) {
	if period == "" {
		period = BillingMonthly
	}
	for _, p := range c.plans {
		if p.Key == key && p.BillingPeriod == period {
			return p, true
		}
	}
	return Plan{}, false
}

func (c *PlanCatalog) Pack(key string) (TopUpPack, bool) {
	for _, p := range c.packs {
		if p.Key == key {
			return p, true
		}
	}
	return TopUpPack{}, false
}
