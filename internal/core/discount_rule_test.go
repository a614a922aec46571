package core_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"orderflow/internal/core"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestDiscountRule_IsApplicable(t *testing.T) {
	base := core.DiscountRule{
		ID:              1,
		Active:          true,
		MinAmount:       dec("500"),
		MaxAmount:       decPtr("1000"),
		DiscountPercent: dec("5"),
		ValidFrom:       "2026-01-01",
		ValidTo:         strPtr("2026-12-31"),
	}

	tests := []struct {
		name    string
		mutate  func(*core.DiscountRule)
		amount  string
		groupID *int
		asOf    string
		want    bool
	}{
		{name: "inside band", amount: "800", asOf: "2026-06-15", want: true},
		{name: "at minimum", amount: "500", asOf: "2026-06-15", want: true},
		{name: "at maximum", amount: "1000", asOf: "2026-06-15", want: true},
		{name: "below minimum", amount: "499.99", asOf: "2026-06-15", want: false},
		{name: "above maximum", amount: "1000.01", asOf: "2026-06-15", want: false},
		{
			name:   "no maximum is open-ended",
			mutate: func(r *core.DiscountRule) { r.MaxAmount = nil },
			amount: "1000000", asOf: "2026-06-15", want: true,
		},
		{
			name:   "inactive rule never applies",
			mutate: func(r *core.DiscountRule) { r.Active = false },
			amount: "800", asOf: "2026-06-15", want: false,
		},
		{name: "before validity window", amount: "800", asOf: "2025-12-31", want: false},
		{name: "on valid_from", amount: "800", asOf: "2026-01-01", want: true},
		{name: "on valid_to", amount: "800", asOf: "2026-12-31", want: true},
		{name: "after validity window", amount: "800", asOf: "2027-01-01", want: false},
		{
			name:   "open-ended valid_to",
			mutate: func(r *core.DiscountRule) { r.ValidTo = nil },
			amount: "800", asOf: "2030-01-01", want: true,
		},
		{
			name:   "group rule, matching customer group",
			mutate: func(r *core.DiscountRule) { r.CustomerGroupID = intPtr(7) },
			amount: "800", groupID: intPtr(7), asOf: "2026-06-15", want: true,
		},
		{
			name:   "group rule, different customer group",
			mutate: func(r *core.DiscountRule) { r.CustomerGroupID = intPtr(7) },
			amount: "800", groupID: intPtr(8), asOf: "2026-06-15", want: false,
		},
		{
			name:   "group rule, customer without group",
			mutate: func(r *core.DiscountRule) { r.CustomerGroupID = intPtr(7) },
			amount: "800", groupID: nil, asOf: "2026-06-15", want: true,
		},
		{name: "ungrouped rule, grouped customer", amount: "800", groupID: intPtr(7), asOf: "2026-06-15", want: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rule := base
			if tc.mutate != nil {
				tc.mutate(&rule)
			}
			got := rule.IsApplicable(dec(tc.amount), tc.groupID, tc.asOf)
			if got != tc.want {
				t.Errorf("IsApplicable(%s, %v, %s) = %v, want %v", tc.amount, tc.groupID, tc.asOf, got, tc.want)
			}
		})
	}
}

func TestDiscountRule_CalculateDiscount(t *testing.T) {
	rule := core.DiscountRule{DiscountPercent: dec("7.5")}
	got := rule.CalculateDiscount(dec("800"))
	if !got.Equal(dec("60")) {
		t.Errorf("CalculateDiscount(800) = %s, want 60", got)
	}

	// Rounds to cents.
	rule = core.DiscountRule{DiscountPercent: dec("3")}
	got = rule.CalculateDiscount(dec("333.33"))
	if !got.Equal(dec("10.00")) {
		t.Errorf("CalculateDiscount(333.33) = %s, want 10.00", got)
	}
}

func TestSelectBestRule(t *testing.T) {
	asOf := "2026-06-15"

	ruleA := core.DiscountRule{
		ID: 1, Active: true, MinAmount: dec("500"), MaxAmount: decPtr("1000"),
		DiscountPercent: dec("5"), ValidFrom: "2026-01-01",
	}
	ruleB := core.DiscountRule{
		ID: 2, Active: true, MinAmount: dec("700"),
		DiscountPercent: dec("8"), ValidFrom: "2026-01-01",
	}

	t.Run("largest discount wins", func(t *testing.T) {
		// 800 is covered by both; B yields 64 vs A's 40.
		best := core.SelectBestRule([]core.DiscountRule{ruleA, ruleB}, dec("800"), nil, asOf)
		if best == nil || best.ID != 2 {
			t.Fatalf("expected rule 2, got %+v", best)
		}
	})

	t.Run("order-independent outcome", func(t *testing.T) {
		best := core.SelectBestRule([]core.DiscountRule{ruleB, ruleA}, dec("800"), nil, asOf)
		if best == nil || best.ID != 2 {
			t.Fatalf("expected rule 2, got %+v", best)
		}
	})

	t.Run("tie resolves to lowest id", func(t *testing.T) {
		twin := ruleA
		twin.ID = 9
		twin.MaxAmount = nil
		tied := ruleA
		tied.ID = 3
		tied.MaxAmount = nil
		// Same percent, same applicability: IDs 3 and 9 tie, 3 wins
		// regardless of the order the rules arrive in.
		best := core.SelectBestRule([]core.DiscountRule{tied, twin}, dec("800"), nil, asOf)
		if best == nil || best.ID != 3 {
			t.Fatalf("expected rule 3 on tie, got %+v", best)
		}
		best = core.SelectBestRule([]core.DiscountRule{twin, tied}, dec("800"), nil, asOf)
		if best == nil || best.ID != 3 {
			t.Fatalf("expected rule 3 on tie with reversed input, got %+v", best)
		}
	})

	t.Run("no applicable rule", func(t *testing.T) {
		best := core.SelectBestRule([]core.DiscountRule{ruleA, ruleB}, dec("100"), nil, asOf)
		if best != nil {
			t.Fatalf("expected nil, got %+v", best)
		}
	})

	t.Run("empty rule set", func(t *testing.T) {
		if best := core.SelectBestRule(nil, dec("800"), nil, asOf); best != nil {
			t.Fatalf("expected nil, got %+v", best)
		}
	})
}
