package model

import "testing"

func TestPlanCatalogLookup(t *testing.T) {
	c := NewPlanCatalog(map[string]string{
		"pro_monthly":  "PLN_pro_m",
		"pro_annual":   "PLN_pro_y",
		"basic_annual": "PLN_basic_y",
	})

	p, ok := c.ByCode("PLN_pro_m")
	if !ok {
		t.Fatal("expected monthly pro plan")
	}
	if p.Key != "pro" || p.BillingPeriod != BillingMonthly || p.WordsLimit != 30000 {
		t.Fatalf("unexpected plan %+v", p)
	}

	annual, ok := c.ByCode("PLN_pro_y")
	if !ok {
		t.Fatal("expected annual pro plan")
	}
	if annual.WordsLimit != p.WordsLimit*12 {
		t.Fatalf("expected annual words %d, got %d", p.WordsLimit*12, annual.WordsLimit)
	}

	if _, ok := c.ByCode(""); ok {
		t.Fatal("empty code must not match unconfigured plans")
	}
	if _, ok := c.ByCode("PLN_unknown"); ok {
		t.Fatal("unknown code must not match")
	}

	byKey, ok := c.ByKey("basic", BillingAnnual)
	if !ok || byKey.Code != "PLN_basic_y" {
		t.Fatalf("ByKey returned %+v, %t", byKey, ok)
	}
	if def, ok := c.ByKey("ultra", ""); !ok || def.BillingPeriod != BillingMonthly {
		t.Fatalf("expected monthly default, got %+v", def)
	}
}

func TestPlanUpdate(t *testing.T) {
	p := Plan{Key: "basic", Code: "PLN_b", BillingPeriod: BillingMonthly, WordsLimit: 10000, WordsPerRequest: 1000}
	u := p.Update(StatusActive, true)
	if u.Plan != "basic" || u.PlanCode != "PLN_b" || u.WordsLimit != 10000 || u.WordsPerRequest != 1000 {
		t.Fatalf("unexpected update %+v", u)
	}
	if !u.ResetBalance || u.Status != StatusActive {
		t.Fatalf("unexpected flags %+v", u)
	}
}

func TestPackLookup(t *testing.T) {
	c := NewPlanCatalog(nil)
	pack, ok := c.Pack("words_5k")
	if !ok || pack.Words != 5000 {
		t.Fatalf("unexpected pack %+v, %t", pack, ok)
	}
	if _, ok := c.Pack("nope"); ok {
		t.Fatal("unexpected pack match")
	}
}

func TestUnlimitedRoles(t *testing.T) {
	for role, want := range map[string]bool{RoleAdmin: true, RoleTester: true, RoleUser: false, "": false} {
		u := &User{Role: role}
		if got := u.HasUnlimitedAccess(); got != want {
			t.Errorf("role %q: expected %t, got %t", role, want, got)
		}
	}
}
