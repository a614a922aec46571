package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ApprovalLevel is the tier of sign-off a purchase order needs, derived
// from its total and the active approval configuration.
type ApprovalLevel string

const (
	ApprovalAuto   ApprovalLevel = "auto"
	ApprovalLevel1 ApprovalLevel = "level1"
	ApprovalLevel2 ApprovalLevel = "level2"
)

// ApprovalConfig holds the monetary thresholds that drive purchase order
// routing. At most one configuration per company is active at a time.
type ApprovalConfig struct {
	ID                 int             `json:"id"`
	CompanyID          int             `json:"company_id"`
	AutoApproveLimit   decimal.Decimal `json:"auto_approve_limit"`
	Level1ApproveLimit decimal.Decimal `json:"level1_approve_limit"`
	Active             bool            `json:"active"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

type ApprovalConfigInput struct {
	CompanyID          int             `json:"company_id" validate:"required"`
	AutoApproveLimit   decimal.Decimal `json:"auto_approve_limit" validate:"gte=0"`
	Level1ApproveLimit decimal.Decimal `json:"level1_approve_limit" validate:"gte=0"`
}

// Default thresholds applied when a company has no configuration yet.
var (
	defaultAutoApproveLimit   = decimal.NewFromInt(5000)
	defaultLevel1ApproveLimit = decimal.NewFromInt(20000)
)

// LevelFor derives the approval tier for an order total. Totals up to the
// auto limit need no approval, totals up to the level-1 limit need one
// approver, and anything above needs both tiers.
func LevelFor(amount decimal.Decimal, cfg ApprovalConfig) ApprovalLevel {
	switch {
	case amount.LessThanOrEqual(cfg.AutoApproveLimit):
		return ApprovalAuto
	case amount.LessThanOrEqual(cfg.Level1ApproveLimit):
		return ApprovalLevel1
	default:
		return ApprovalLevel2
	}
}

// ApprovalConfigService manages the per-company approval thresholds.
type ApprovalConfigService struct {
	pool *pgxpool.Pool
}

func NewApprovalConfigService(pool *pgxpool.Pool) *ApprovalConfigService {
	return &ApprovalConfigService{pool: pool}
}

// Find returns the active configuration for a company, or a NotFoundError
// when none exists.
func (s *ApprovalConfigService) Find(ctx context.Context, companyID int) (*ApprovalConfig, error) {
	return findApprovalConfig(ctx, s.pool, companyID)
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func findApprovalConfig(ctx context.Context, q querier, companyID int) (*ApprovalConfig, error) {
	cfg := &ApprovalConfig{}
	err := q.QueryRow(ctx, `
		SELECT id, company_id, auto_approve_limit, level1_approve_limit, active, created_at, updated_at
		FROM approval_configs
		WHERE company_id = $1 AND active = true`,
		companyID,
	).Scan(&cfg.ID, &cfg.CompanyID, &cfg.AutoApproveLimit, &cfg.Level1ApproveLimit, &cfg.Active, &cfg.CreatedAt, &cfg.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundErrorf("no active approval configuration for company %d", companyID)
		}
		return nil, fmt.Errorf("fetch approval configuration: %w", err)
	}
	return cfg, nil
}

// Ensure returns the active configuration for a company, creating one with
// the default thresholds when none exists yet.
func (s *ApprovalConfigService) Ensure(ctx context.Context, companyID int) (*ApprovalConfig, error) {
	cfg, err := s.Find(ctx, companyID)
	if err == nil {
		return cfg, nil
	}
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		return nil, err
	}

	return s.Save(ctx, ApprovalConfigInput{
		CompanyID:          companyID,
		AutoApproveLimit:   defaultAutoApproveLimit,
		Level1ApproveLimit: defaultLevel1ApproveLimit,
	})
}

// Save activates a new configuration for the company, deactivating any
// previous one, and re-derives the required approval level of every
// purchase order still before the approval gate.
func (s *ApprovalConfigService) Save(ctx context.Context, in ApprovalConfigInput) (*ApprovalConfig, error) {
	if err := checkStruct(in); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		"UPDATE approval_configs SET active = false, updated_at = NOW() WHERE company_id = $1 AND active = true",
		in.CompanyID,
	); err != nil {
		return nil, fmt.Errorf("deactivate previous approval configuration: %w", err)
	}

	cfg := &ApprovalConfig{}
	err = tx.QueryRow(ctx, `
		INSERT INTO approval_configs (company_id, auto_approve_limit, level1_approve_limit, active)
		VALUES ($1, $2, $3, true)
		RETURNING id, company_id, auto_approve_limit, level1_approve_limit, active, created_at, updated_at`,
		in.CompanyID, in.AutoApproveLimit, in.Level1ApproveLimit,
	).Scan(&cfg.ID, &cfg.CompanyID, &cfg.AutoApproveLimit, &cfg.Level1ApproveLimit, &cfg.Active, &cfg.CreatedAt, &cfg.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert approval configuration: %w", err)
	}

	// Orders already approved or confirmed keep the level they were routed
	// under; only orders still before the gate are re-derived.
	if _, err := tx.Exec(ctx, `
		UPDATE purchase_orders
		SET approval_level_required = CASE
			WHEN amount_total <= $2 THEN 'auto'
			WHEN amount_total <= $3 THEN 'level1'
			ELSE 'level2'
		END,
		updated_at = NOW()
		WHERE company_id = $1 AND state IN ('draft', 'sent', 'to_approve')`,
		in.CompanyID, cfg.AutoApproveLimit, cfg.Level1ApproveLimit,
	); err != nil {
		return nil, fmt.Errorf("re-derive purchase order approval levels: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit approval configuration: %w", err)
	}
	return cfg, nil
}
