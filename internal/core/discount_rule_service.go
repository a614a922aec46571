package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// DiscountRuleService manages the discount rule catalog and resolves the
// best rule for a given order.
type DiscountRuleService struct {
	pool *pgxpool.Pool
}

func NewDiscountRuleService(pool *pgxpool.Pool) *DiscountRuleService {
	return &DiscountRuleService{pool: pool}
}

const discountRuleColumns = `
	id, company_id, name, min_amount, max_amount, discount_percent,
	customer_group_id, sequence, valid_from::text, valid_to::text, active, created_at, updated_at`

func scanDiscountRule(row pgx.Row) (*DiscountRule, error) {
	r := &DiscountRule{}
	err := row.Scan(
		&r.ID, &r.CompanyID, &r.Name, &r.MinAmount, &r.MaxAmount, &r.DiscountPercent,
		&r.CustomerGroupID, &r.Sequence, &r.ValidFrom, &r.ValidTo, &r.Active, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *DiscountRuleService) Create(ctx context.Context, in DiscountRuleInput) (*DiscountRule, error) {
	if err := checkStruct(in); err != nil {
		return nil, err
	}

	rule, err := scanDiscountRule(s.pool.QueryRow(ctx, `
		INSERT INTO discount_rules (company_id, name, min_amount, max_amount, discount_percent, customer_group_id, sequence, valid_from, valid_to, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING`+discountRuleColumns,
		in.CompanyID, in.Name, in.MinAmount, in.MaxAmount, in.DiscountPercent,
		in.CustomerGroupID, in.Sequence, in.ValidFrom, in.ValidTo, in.Active,
	))
	if err != nil {
		return nil, fmt.Errorf("insert discount rule: %w", err)
	}
	return rule, nil
}

func (s *DiscountRuleService) Update(ctx context.Context, ruleID int, in DiscountRuleInput) (*DiscountRule, error) {
	if err := checkStruct(in); err != nil {
		return nil, err
	}

	rule, err := scanDiscountRule(s.pool.QueryRow(ctx, `
		UPDATE discount_rules
		SET name = $2, min_amount = $3, max_amount = $4, discount_percent = $5,
		    customer_group_id = $6, sequence = $7, valid_from = $8, valid_to = $9, active = $10, updated_at = NOW()
		WHERE id = $1
		RETURNING`+discountRuleColumns,
		ruleID, in.Name, in.MinAmount, in.MaxAmount, in.DiscountPercent,
		in.CustomerGroupID, in.Sequence, in.ValidFrom, in.ValidTo, in.Active,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundErrorf("discount rule %d not found", ruleID)
		}
		return nil, fmt.Errorf("update discount rule %d: %w", ruleID, err)
	}
	return rule, nil
}

func (s *DiscountRuleService) Get(ctx context.Context, ruleID int) (*DiscountRule, error) {
	rule, err := scanDiscountRule(s.pool.QueryRow(ctx,
		"SELECT"+discountRuleColumns+" FROM discount_rules WHERE id = $1", ruleID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundErrorf("discount rule %d not found", ruleID)
		}
		return nil, fmt.Errorf("fetch discount rule %d: %w", ruleID, err)
	}
	return rule, nil
}

// List returns all rules for a company, active and inactive, in ID order.
func (s *DiscountRuleService) List(ctx context.Context, companyID int) ([]DiscountRule, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT"+discountRuleColumns+" FROM discount_rules WHERE company_id = $1 ORDER BY id", companyID)
	if err != nil {
		return nil, fmt.Errorf("list discount rules: %w", err)
	}
	defer rows.Close()

	var rules []DiscountRule
	for rows.Next() {
		var r DiscountRule
		if err := rows.Scan(
			&r.ID, &r.CompanyID, &r.Name, &r.MinAmount, &r.MaxAmount, &r.DiscountPercent,
			&r.CustomerGroupID, &r.Sequence, &r.ValidFrom, &r.ValidTo, &r.Active, &r.CreatedAt, &r.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan discount rule: %w", err)
		}
		rules = append(rules, r)
	}
	return rules, nil
}

// Deactivate soft-deletes a rule. Historical orders keep their applied
// rule reference, so rows are never removed.
func (s *DiscountRuleService) Deactivate(ctx context.Context, ruleID int) error {
	tag, err := s.pool.Exec(ctx,
		"UPDATE discount_rules SET active = false, updated_at = NOW() WHERE id = $1", ruleID)
	if err != nil {
		return fmt.Errorf("deactivate discount rule %d: %w", ruleID, err)
	}
	if tag.RowsAffected() == 0 {
		return notFoundErrorf("discount rule %d not found", ruleID)
	}
	return nil
}

// FindApplicableRule loads the company's active rules and picks the one
// yielding the largest discount for the given order parameters. Returns
// nil when no rule applies.
func (s *DiscountRuleService) FindApplicableRule(ctx context.Context, companyID int, amount decimal.Decimal, customerGroupID *int, asOf string) (*DiscountRule, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT"+discountRuleColumns+" FROM discount_rules WHERE company_id = $1 AND active = true ORDER BY id", companyID)
	if err != nil {
		return nil, fmt.Errorf("load active discount rules: %w", err)
	}
	defer rows.Close()

	var rules []DiscountRule
	for rows.Next() {
		var r DiscountRule
		if err := rows.Scan(
			&r.ID, &r.CompanyID, &r.Name, &r.MinAmount, &r.MaxAmount, &r.DiscountPercent,
			&r.CustomerGroupID, &r.Sequence, &r.ValidFrom, &r.ValidTo, &r.Active, &r.CreatedAt, &r.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan discount rule: %w", err)
		}
		rules = append(rules, r)
	}

	return SelectBestRule(rules, amount, customerGroupID, asOf), nil
}
