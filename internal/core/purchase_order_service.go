package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// PurchaseOrderService runs the purchase order lifecycle, including the
// threshold-based approval routing.
type PurchaseOrderService struct {
	pool       *pgxpool.Pool
	configs    *ApprovalConfigService
	authorizer Authorizer
	notifier   Notifier
	sequences  SequenceService
	log        zerolog.Logger
}

func NewPurchaseOrderService(pool *pgxpool.Pool, configs *ApprovalConfigService, authorizer Authorizer, notifier Notifier, sequences SequenceService, log zerolog.Logger) *PurchaseOrderService {
	return &PurchaseOrderService{
		pool:       pool,
		configs:    configs,
		authorizer: authorizer,
		notifier:   notifier,
		sequences:  sequences,
		log:        log,
	}
}

const purchaseOrderColumns = `
	id, company_id, po_number, supplier_name, state, order_date::text, amount_total,
	approval_level_required, level1_approver_id, level1_approval_date,
	level2_approver_id, level2_approval_date, created_at, updated_at`

func scanPurchaseOrder(row pgx.Row) (*PurchaseOrder, error) {
	po := &PurchaseOrder{}
	err := row.Scan(
		&po.ID, &po.CompanyID, &po.PONumber, &po.SupplierName, &po.State, &po.OrderDate, &po.AmountTotal,
		&po.ApprovalLevelRequired, &po.Level1ApproverID, &po.Level1ApprovalDate,
		&po.Level2ApproverID, &po.Level2ApprovalDate, &po.CreatedAt, &po.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return po, nil
}

// Create opens a draft purchase order. The required approval level is
// derived immediately from the line totals so list views can show the
// routing before confirmation.
func (s *PurchaseOrderService) Create(ctx context.Context, in PurchaseOrderInput) (*PurchaseOrder, error) {
	if err := checkStruct(in); err != nil {
		return nil, err
	}

	cfg, err := s.configs.Ensure(ctx, in.CompanyID)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, line := range in.Lines {
		total = total.Add(line.Quantity.Mul(line.UnitCost).Round(2))
	}
	level := LevelFor(total, *cfg)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	po, err := scanPurchaseOrder(tx.QueryRow(ctx, `
		INSERT INTO purchase_orders (company_id, supplier_name, state, order_date, amount_total, approval_level_required)
		VALUES ($1, $2, 'draft', $3, $4, $5)
		RETURNING`+purchaseOrderColumns,
		in.CompanyID, in.SupplierName, in.OrderDate, total, string(level),
	))
	if err != nil {
		return nil, fmt.Errorf("insert purchase order: %w", err)
	}

	for i, line := range in.Lines {
		lineTotal := line.Quantity.Mul(line.UnitCost).Round(2)
		var id int
		err := tx.QueryRow(ctx, `
			INSERT INTO purchase_order_lines (order_id, line_number, description, quantity, unit_cost, line_total)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			po.ID, i+1, line.Description, line.Quantity, line.UnitCost, lineTotal,
		).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("insert purchase order line %d: %w", i+1, err)
		}
		po.Lines = append(po.Lines, PurchaseOrderLine{
			ID: id, OrderID: po.ID, LineNumber: i + 1,
			Description: line.Description, Quantity: line.Quantity,
			UnitCost: line.UnitCost, LineTotal: lineTotal,
		})
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit purchase order: %w", err)
	}
	return po, nil
}

// UpdateLines replaces the line set of a draft or sent order and
// re-derives the total and required approval level.
func (s *PurchaseOrderService) UpdateLines(ctx context.Context, orderID int, lines []PurchaseOrderLineInput) (*PurchaseOrder, error) {
	if len(lines) == 0 {
		return nil, validationErrorf("purchase order must have at least one line")
	}
	for i, line := range lines {
		if err := checkStruct(line); err != nil {
			return nil, validationErrorf("line %d: %v", i+1, err)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	po, err := lockPurchaseOrder(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if po.State != POStateDraft && po.State != POStateSent {
		return nil, stateErrorf("cannot edit lines of purchase order in state %s", po.State)
	}

	cfg, err := findApprovalConfig(ctx, tx, po.CompanyID)
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, "DELETE FROM purchase_order_lines WHERE order_id = $1", orderID); err != nil {
		return nil, fmt.Errorf("clear purchase order lines: %w", err)
	}

	total := decimal.Zero
	for i, line := range lines {
		lineTotal := line.Quantity.Mul(line.UnitCost).Round(2)
		total = total.Add(lineTotal)
		if _, err := tx.Exec(ctx, `
			INSERT INTO purchase_order_lines (order_id, line_number, description, quantity, unit_cost, line_total)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			orderID, i+1, line.Description, line.Quantity, line.UnitCost, lineTotal,
		); err != nil {
			return nil, fmt.Errorf("insert purchase order line %d: %w", i+1, err)
		}
	}

	level := LevelFor(total, *cfg)
	po, err = scanPurchaseOrder(tx.QueryRow(ctx, `
		UPDATE purchase_orders
		SET amount_total = $2, approval_level_required = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING`+purchaseOrderColumns,
		orderID, total, string(level),
	))
	if err != nil {
		return nil, fmt.Errorf("update purchase order %d: %w", orderID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit purchase order update: %w", err)
	}
	return s.withLines(ctx, po)
}

// Send marks a draft order as sent to the supplier.
func (s *PurchaseOrderService) Send(ctx context.Context, orderID int) (*PurchaseOrder, error) {
	return s.transition(ctx, orderID, func(po *PurchaseOrder) error {
		if po.State != POStateDraft {
			return stateErrorf("cannot send purchase order in state %s", po.State)
		}
		po.State = POStateSent
		return nil
	})
}

// Confirm moves a draft or sent order past the approval gate. Orders at
// or under the auto-approve limit are confirmed immediately; everything
// else parks in 'to_approve' and notifies the required approver tier.
func (s *PurchaseOrderService) Confirm(ctx context.Context, orderID int) (*PurchaseOrder, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	po, err := lockPurchaseOrder(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if po.State != POStateDraft && po.State != POStateSent {
		return nil, stateErrorf("cannot confirm purchase order in state %s", po.State)
	}

	// The routing decision is re-derived at confirmation time so that a
	// threshold change between draft and confirm is always honored.
	cfg, err := findApprovalConfig(ctx, tx, po.CompanyID)
	if err != nil {
		return nil, err
	}
	level := LevelFor(po.AmountTotal, *cfg)

	var templateKey string
	switch level {
	case ApprovalAuto:
		po, err = s.confirmTx(ctx, tx, po)
		if err != nil {
			return nil, err
		}
		templateKey = "auto_approved"
	default:
		po, err = scanPurchaseOrder(tx.QueryRow(ctx, `
			UPDATE purchase_orders
			SET state = 'to_approve', approval_level_required = $2, updated_at = NOW()
			WHERE id = $1
			RETURNING`+purchaseOrderColumns,
			po.ID, string(level),
		))
		if err != nil {
			return nil, fmt.Errorf("move purchase order %d to approval: %w", orderID, err)
		}
		templateKey = "level1_required"
		if level == ApprovalLevel2 {
			templateKey = "level2_required"
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit purchase order confirmation: %w", err)
	}

	notifyBestEffort(ctx, s.log, s.notifier, templateKey, poRef(po))
	return po, nil
}

// ApproveLevel1 records a first-tier approval. The caller must hold the
// level1_approver capability. Orders that only needed Level 1 are
// confirmed; orders needing Level 2 park in 'approved_level1'.
func (s *PurchaseOrderService) ApproveLevel1(ctx context.Context, orderID, approverID int) (*PurchaseOrder, error) {
	ok, err := s.authorizer.HasCapability(ctx, approverID, CapabilityLevel1Approver)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, authorizationErrorf("user %d is not a Level 1 approver", approverID)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	po, err := lockPurchaseOrder(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if po.State != POStateToApprove {
		return nil, stateErrorf("cannot approve purchase order in state %s at Level 1", po.State)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE purchase_orders
		SET level1_approver_id = $2, level1_approval_date = NOW(), updated_at = NOW()
		WHERE id = $1`,
		po.ID, approverID,
	); err != nil {
		return nil, fmt.Errorf("record level 1 approval: %w", err)
	}

	var templateKey string
	if po.ApprovalLevelRequired == ApprovalLevel2 {
		po, err = scanPurchaseOrder(tx.QueryRow(ctx, `
			UPDATE purchase_orders SET state = 'approved_level1', updated_at = NOW()
			WHERE id = $1
			RETURNING`+purchaseOrderColumns,
			po.ID,
		))
		if err != nil {
			return nil, fmt.Errorf("advance purchase order %d: %w", orderID, err)
		}
		templateKey = "level1_approved_pending_level2"
	} else {
		po, err = s.confirmTx(ctx, tx, po)
		if err != nil {
			return nil, err
		}
		templateKey = "level1_approved_final"
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit level 1 approval: %w", err)
	}

	notifyBestEffort(ctx, s.log, s.notifier, templateKey, poRef(po))
	return po, nil
}

// ApproveLevel2 records a second-tier approval and confirms the order.
// A Level 2 approver may also approve directly from 'to_approve',
// covering both tiers in one action.
func (s *PurchaseOrderService) ApproveLevel2(ctx context.Context, orderID, approverID int) (*PurchaseOrder, error) {
	ok, err := s.authorizer.HasCapability(ctx, approverID, CapabilityLevel2Approver)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, authorizationErrorf("user %d is not a Level 2 approver", approverID)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	po, err := lockPurchaseOrder(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if po.State != POStateToApprove && po.State != POStateApprovedLevel1 {
		return nil, stateErrorf("cannot approve purchase order in state %s at Level 2", po.State)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE purchase_orders
		SET level2_approver_id = $2, level2_approval_date = NOW(), updated_at = NOW()
		WHERE id = $1`,
		po.ID, approverID,
	); err != nil {
		return nil, fmt.Errorf("record level 2 approval: %w", err)
	}

	po, err = s.confirmTx(ctx, tx, po)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit level 2 approval: %w", err)
	}

	notifyBestEffort(ctx, s.log, s.notifier, "level2_approved_final", poRef(po))
	return po, nil
}

// Reject returns an order awaiting approval to draft and clears any
// approval already recorded, so a later resubmission starts clean.
func (s *PurchaseOrderService) Reject(ctx context.Context, orderID int) (*PurchaseOrder, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	po, err := lockPurchaseOrder(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if po.State != POStateToApprove && po.State != POStateApprovedLevel1 {
		return nil, stateErrorf("cannot reject purchase order in state %s", po.State)
	}

	po, err = scanPurchaseOrder(tx.QueryRow(ctx, `
		UPDATE purchase_orders
		SET state = 'draft',
		    level1_approver_id = NULL, level1_approval_date = NULL,
		    level2_approver_id = NULL, level2_approval_date = NULL,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING`+purchaseOrderColumns,
		po.ID,
	))
	if err != nil {
		return nil, fmt.Errorf("reject purchase order %d: %w", orderID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit rejection: %w", err)
	}

	notifyBestEffort(ctx, s.log, s.notifier, "rejected", poRef(po))
	return po, nil
}

// Cancel aborts an order that has not been confirmed yet.
func (s *PurchaseOrderService) Cancel(ctx context.Context, orderID int) (*PurchaseOrder, error) {
	return s.transition(ctx, orderID, func(po *PurchaseOrder) error {
		switch po.State {
		case POStateDraft, POStateSent, POStateToApprove, POStateApprovedLevel1:
			po.State = POStateCancel
			return nil
		default:
			return stateErrorf("cannot cancel purchase order in state %s", po.State)
		}
	})
}

// ConfirmBatch confirms each order independently. One failing order
// never blocks the rest; its error is reported in the result row.
func (s *PurchaseOrderService) ConfirmBatch(ctx context.Context, orderIDs []int) []BatchResult {
	results := make([]BatchResult, 0, len(orderIDs))
	for _, id := range orderIDs {
		po, err := s.Confirm(ctx, id)
		if err != nil {
			results = append(results, BatchResult{OrderID: id, Err: err.Error()})
			continue
		}
		results = append(results, BatchResult{OrderID: id, State: po.State})
	}
	return results
}

func (s *PurchaseOrderService) Get(ctx context.Context, orderID int) (*PurchaseOrder, error) {
	po, err := scanPurchaseOrder(s.pool.QueryRow(ctx,
		"SELECT"+purchaseOrderColumns+" FROM purchase_orders WHERE id = $1", orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundErrorf("purchase order %d not found", orderID)
		}
		return nil, fmt.Errorf("fetch purchase order %d: %w", orderID, err)
	}
	return s.withLines(ctx, po)
}

// List returns a company's purchase orders, optionally filtered by state.
func (s *PurchaseOrderService) List(ctx context.Context, companyID int, state string) ([]PurchaseOrder, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT`+purchaseOrderColumns+`
		FROM purchase_orders
		WHERE company_id = $1 AND ($2 = '' OR state = $2)
		ORDER BY id DESC`,
		companyID, state,
	)
	if err != nil {
		return nil, fmt.Errorf("list purchase orders: %w", err)
	}
	defer rows.Close()

	var orders []PurchaseOrder
	for rows.Next() {
		var po PurchaseOrder
		if err := rows.Scan(
			&po.ID, &po.CompanyID, &po.PONumber, &po.SupplierName, &po.State, &po.OrderDate, &po.AmountTotal,
			&po.ApprovalLevelRequired, &po.Level1ApproverID, &po.Level1ApprovalDate,
			&po.Level2ApproverID, &po.Level2ApprovalDate, &po.CreatedAt, &po.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan purchase order: %w", err)
		}
		orders = append(orders, po)
	}
	return orders, nil
}

// confirmTx finalizes an order inside the caller's transaction: assigns
// the gapless PO number and moves it to 'purchase'.
func (s *PurchaseOrderService) confirmTx(ctx context.Context, tx pgx.Tx, po *PurchaseOrder) (*PurchaseOrder, error) {
	year := orderYear(po.OrderDate)
	number, err := s.sequences.NextNumberTx(ctx, tx, po.CompanyID, "PO", year)
	if err != nil {
		return nil, err
	}

	confirmed, err := scanPurchaseOrder(tx.QueryRow(ctx, `
		UPDATE purchase_orders SET state = 'purchase', po_number = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING`+purchaseOrderColumns,
		po.ID, number,
	))
	if err != nil {
		return nil, fmt.Errorf("confirm purchase order %d: %w", po.ID, err)
	}
	return confirmed, nil
}

// transition applies a simple state change under a row lock.
func (s *PurchaseOrderService) transition(ctx context.Context, orderID int, apply func(*PurchaseOrder) error) (*PurchaseOrder, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	po, err := lockPurchaseOrder(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if err := apply(po); err != nil {
		return nil, err
	}

	po, err = scanPurchaseOrder(tx.QueryRow(ctx, `
		UPDATE purchase_orders SET state = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING`+purchaseOrderColumns,
		orderID, string(po.State),
	))
	if err != nil {
		return nil, fmt.Errorf("update purchase order %d: %w", orderID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit purchase order transition: %w", err)
	}
	return po, nil
}

func (s *PurchaseOrderService) withLines(ctx context.Context, po *PurchaseOrder) (*PurchaseOrder, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, order_id, line_number, description, quantity, unit_cost, line_total
		FROM purchase_order_lines
		WHERE order_id = $1
		ORDER BY line_number`,
		po.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("fetch purchase order lines: %w", err)
	}
	defer rows.Close()

	po.Lines = nil
	for rows.Next() {
		var line PurchaseOrderLine
		if err := rows.Scan(&line.ID, &line.OrderID, &line.LineNumber, &line.Description, &line.Quantity, &line.UnitCost, &line.LineTotal); err != nil {
			return nil, fmt.Errorf("scan purchase order line: %w", err)
		}
		po.Lines = append(po.Lines, line)
	}
	return po, nil
}

func lockPurchaseOrder(ctx context.Context, tx pgx.Tx, orderID int) (*PurchaseOrder, error) {
	po, err := scanPurchaseOrder(tx.QueryRow(ctx,
		"SELECT"+purchaseOrderColumns+" FROM purchase_orders WHERE id = $1 FOR UPDATE", orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundErrorf("purchase order %d not found", orderID)
		}
		return nil, fmt.Errorf("lock purchase order %d: %w", orderID, err)
	}
	return po, nil
}

// poRef is the identifier used in notifications: the PO number once
// assigned, otherwise the internal ID.
func poRef(po *PurchaseOrder) string {
	if po.PONumber != nil && *po.PONumber != "" {
		return *po.PONumber
	}
	return fmt.Sprintf("PO#%d", po.ID)
}

func orderYear(orderDate string) int {
	if t, err := time.Parse("2006-01-02", orderDate); err == nil {
		return t.Year()
	}
	return time.Now().Year()
}
