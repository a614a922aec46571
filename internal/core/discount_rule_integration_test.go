package core_test

import (
	"context"
	"testing"

	"orderflow/internal/core"
)

func TestDiscountRule_SequencePersists(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	rules := core.NewDiscountRuleService(pool)
	ctx := context.Background()

	in := core.DiscountRuleInput{
		CompanyID: 1, Name: "Spring promo", Active: true,
		MinAmount: dec("100"), DiscountPercent: dec("5"),
		Sequence: 20, ValidFrom: "2026-01-01",
	}
	rule, err := rules.Create(ctx, in)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if rule.Sequence != 20 {
		t.Errorf("Expected sequence 20, got %d", rule.Sequence)
	}

	in.Sequence = 30
	if _, err := rules.Update(ctx, rule.ID, in); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	rule, err = rules.Get(ctx, rule.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if rule.Sequence != 30 {
		t.Errorf("Expected sequence 30, got %d", rule.Sequence)
	}
}

func TestDiscountRule_SelectionIgnoresSequence(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	rules := core.NewDiscountRuleService(pool)
	ctx := context.Background()

	// The earlier sequence carries the smaller discount; selection goes
	// by discount size alone.
	if _, err := rules.Create(ctx, core.DiscountRuleInput{
		CompanyID: 1, Name: "Small", Active: true,
		MinAmount: dec("100"), DiscountPercent: dec("2"),
		Sequence: 10, ValidFrom: "2026-01-01",
	}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	big, err := rules.Create(ctx, core.DiscountRuleInput{
		CompanyID: 1, Name: "Big", Active: true,
		MinAmount: dec("100"), DiscountPercent: dec("8"),
		Sequence: 99, ValidFrom: "2026-01-01",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	best, err := rules.FindApplicableRule(ctx, 1, dec("500"), nil, "2026-06-15")
	if err != nil {
		t.Fatalf("FindApplicableRule failed: %v", err)
	}
	if best == nil || best.ID != big.ID {
		t.Fatalf("Expected rule %d regardless of sequence, got %+v", big.ID, best)
	}
}
