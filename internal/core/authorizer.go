package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Capability names a grantable approval permission.
type Capability string

const (
	CapabilityLevel1Approver Capability = "level1_approver"
	CapabilityLevel2Approver Capability = "level2_approver"
)

// Authorizer answers capability checks for approval actions. It abstracts
// the host platform's role/group membership store.
type Authorizer interface {
	HasCapability(ctx context.Context, userID int, cap Capability) (bool, error)
}

type pgAuthorizer struct {
	pool *pgxpool.Pool
}

// NewAuthorizer constructs an Authorizer backed by the user_capabilities table.
func NewAuthorizer(pool *pgxpool.Pool) Authorizer {
	return &pgAuthorizer{pool: pool}
}

func (a *pgAuthorizer) HasCapability(ctx context.Context, userID int, cap Capability) (bool, error) {
	var granted bool
	err := a.pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1
			FROM user_capabilities uc
			JOIN users u ON u.id = uc.user_id
			WHERE uc.user_id = $1 AND uc.capability = $2 AND u.is_active = true
		)`, userID, string(cap),
	).Scan(&granted)
	if err != nil {
		return false, fmt.Errorf("capability check for user %d: %w", userID, err)
	}
	return granted, nil
}
