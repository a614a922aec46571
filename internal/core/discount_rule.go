package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// DiscountRule grants a percentage discount to sales orders whose total
// falls inside the rule's amount band, optionally scoped to a customer
// group and a validity window.
type DiscountRule struct {
	ID              int              `json:"id"`
	CompanyID       int              `json:"company_id"`
	Name            string           `json:"name"`
	MinAmount       decimal.Decimal  `json:"min_amount"`
	MaxAmount       *decimal.Decimal `json:"max_amount,omitempty"`
	DiscountPercent decimal.Decimal  `json:"discount_percent"`
	CustomerGroupID *int             `json:"customer_group_id,omitempty"`
	Sequence        int              `json:"sequence"` // display ordering; selection goes by discount size
	ValidFrom       string           `json:"valid_from"`         // YYYY-MM-DD
	ValidTo         *string          `json:"valid_to,omitempty"` // YYYY-MM-DD
	Active          bool             `json:"active"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

type DiscountRuleInput struct {
	CompanyID       int              `json:"company_id" validate:"required"`
	Name            string           `json:"name" validate:"required"`
	MinAmount       decimal.Decimal  `json:"min_amount" validate:"gte=0"`
	MaxAmount       *decimal.Decimal `json:"max_amount,omitempty"`
	DiscountPercent decimal.Decimal  `json:"discount_percent" validate:"gte=0,lte=100"`
	CustomerGroupID *int             `json:"customer_group_id,omitempty"`
	Sequence        int              `json:"sequence" validate:"gte=0"`
	ValidFrom       string           `json:"valid_from" validate:"required,datetime=2006-01-02"`
	ValidTo         *string          `json:"valid_to,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Active          bool             `json:"active"`
}

// IsApplicable reports whether the rule covers an order with the given
// total, customer group, and date. Group scoping only disqualifies when
// both the rule and the order carry a group and they differ.
func (r DiscountRule) IsApplicable(amount decimal.Decimal, customerGroupID *int, asOf string) bool {
	if !r.Active {
		return false
	}
	if amount.LessThan(r.MinAmount) {
		return false
	}
	if r.MaxAmount != nil && amount.GreaterThan(*r.MaxAmount) {
		return false
	}
	if r.CustomerGroupID != nil && customerGroupID != nil && *r.CustomerGroupID != *customerGroupID {
		return false
	}
	// Dates are YYYY-MM-DD, so string comparison is chronological.
	if asOf < r.ValidFrom {
		return false
	}
	if r.ValidTo != nil && asOf > *r.ValidTo {
		return false
	}
	return true
}

// CalculateDiscount returns the discount amount the rule yields on the
// given order total, rounded to 2 decimal places.
func (r DiscountRule) CalculateDiscount(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(r.DiscountPercent).Div(decimal.NewFromInt(100)).Round(2)
}

// SelectBestRule picks the applicable rule yielding the largest discount.
// Ties resolve to the rule with the lowest ID regardless of input order.
// Returns nil when no rule applies.
func SelectBestRule(rules []DiscountRule, amount decimal.Decimal, customerGroupID *int, asOf string) *DiscountRule {
	var best *DiscountRule
	var bestDiscount decimal.Decimal

	for i := range rules {
		r := rules[i]
		if !r.IsApplicable(amount, customerGroupID, asOf) {
			continue
		}
		d := r.CalculateDiscount(amount)
		switch {
		case best == nil || d.GreaterThan(bestDiscount):
			best = &rules[i]
			bestDiscount = d
		case d.Equal(bestDiscount) && r.ID < best.ID:
			best = &rules[i]
		}
	}
	return best
}
