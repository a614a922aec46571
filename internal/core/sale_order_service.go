package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// discountProductCode is the reserved catalog code of the synthetic
// product that carries discount lines.
const discountProductCode = "DISCOUNT"

// SaleOrderService runs the sales order lifecycle: discount rule
// application on every edit, and advance payment posting at confirmation.
type SaleOrderService struct {
	pool      *pgxpool.Pool
	rules     *DiscountRuleService
	advances  *AdvancePaymentService
	sequences SequenceService
	log       zerolog.Logger
}

func NewSaleOrderService(pool *pgxpool.Pool, rules *DiscountRuleService, advances *AdvancePaymentService, sequences SequenceService, log zerolog.Logger) *SaleOrderService {
	return &SaleOrderService{
		pool:      pool,
		rules:     rules,
		advances:  advances,
		sequences: sequences,
		log:       log,
	}
}

const saleOrderColumns = `
	id, company_id, order_number, customer_id, state, order_date::text, amount_total,
	applied_discount_rule_id, applied_discount_amount, advance_payment,
	advance_payment_state, advance_journal_entry_id, created_at, updated_at, confirmed_at`

func scanSaleOrder(row pgx.Row) (*SaleOrder, error) {
	so := &SaleOrder{}
	err := row.Scan(
		&so.ID, &so.CompanyID, &so.OrderNumber, &so.CustomerID, &so.State, &so.OrderDate, &so.AmountTotal,
		&so.AppliedDiscountRuleID, &so.AppliedDiscountAmount, &so.AdvancePayment,
		&so.AdvancePaymentState, &so.AdvanceJournalEntryID, &so.CreatedAt, &so.UpdatedAt, &so.ConfirmedAt,
	)
	if err != nil {
		return nil, err
	}
	return so, nil
}

// Create opens a draft sales order and immediately runs the discount
// rules against it.
func (s *SaleOrderService) Create(ctx context.Context, in SaleOrderInput) (*SaleOrder, error) {
	if err := checkStruct(in); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var customerID int
	err = tx.QueryRow(ctx,
		"SELECT id FROM customers WHERE company_id = $1 AND code = $2",
		in.CompanyID, in.CustomerCode,
	).Scan(&customerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundErrorf("customer %q not found for company %d", in.CustomerCode, in.CompanyID)
		}
		return nil, fmt.Errorf("resolve customer %q: %w", in.CustomerCode, err)
	}

	advanceState := AdvanceNone
	if in.AdvancePayment.IsPositive() {
		advanceState = AdvancePending
	}

	so, err := scanSaleOrder(tx.QueryRow(ctx, `
		INSERT INTO sales_orders (company_id, customer_id, state, order_date, advance_payment, advance_payment_state)
		VALUES ($1, $2, 'draft', $3, $4, $5)
		RETURNING`+saleOrderColumns,
		in.CompanyID, customerID, in.OrderDate, in.AdvancePayment, string(advanceState),
	))
	if err != nil {
		return nil, fmt.Errorf("insert sales order: %w", err)
	}

	if err := s.insertLinesTx(ctx, tx, so, in.Lines); err != nil {
		return nil, err
	}
	if err := s.applyDiscountRulesTx(ctx, tx, so.ID); err != nil {
		return nil, err
	}

	// The declared advance can only be checked once the total is known.
	so, err = scanSaleOrder(tx.QueryRow(ctx,
		"SELECT"+saleOrderColumns+" FROM sales_orders WHERE id = $1", so.ID))
	if err != nil {
		return nil, fmt.Errorf("reload sales order: %w", err)
	}
	if so.AdvancePayment.GreaterThan(so.AmountTotal) {
		return nil, validationErrorf("advance payment %s exceeds order total %s", so.AdvancePayment, so.AmountTotal)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit sales order: %w", err)
	}
	return s.Get(ctx, so.ID)
}

// UpdateLines replaces the product lines of a draft or sent order and
// re-runs the discount rules. Discount lines are regenerated, never
// carried over.
func (s *SaleOrderService) UpdateLines(ctx context.Context, orderID int, lines []SaleOrderLineInput) (*SaleOrder, error) {
	if len(lines) == 0 {
		return nil, validationErrorf("sales order must have at least one line")
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

	so, err := lockSaleOrder(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if so.State != SOStateDraft && so.State != SOStateSent {
		return nil, stateErrorf("cannot edit lines of sales order in state %s", so.State)
	}

	if _, err := tx.Exec(ctx, "DELETE FROM sales_order_lines WHERE order_id = $1", orderID); err != nil {
		return nil, fmt.Errorf("clear sales order lines: %w", err)
	}
	if err := s.insertLinesTx(ctx, tx, so, lines); err != nil {
		return nil, err
	}
	if err := s.applyDiscountRulesTx(ctx, tx, orderID); err != nil {
		return nil, err
	}

	// The new total may have dropped below a previously declared advance.
	so, err = scanSaleOrder(tx.QueryRow(ctx,
		"SELECT"+saleOrderColumns+" FROM sales_orders WHERE id = $1", orderID))
	if err != nil {
		return nil, fmt.Errorf("reload sales order %d: %w", orderID, err)
	}
	if so.AdvancePayment.GreaterThan(so.AmountTotal) {
		return nil, validationErrorf("advance payment %s exceeds order total %s", so.AdvancePayment, so.AmountTotal)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit sales order update: %w", err)
	}
	return s.Get(ctx, orderID)
}

// SetAdvancePayment declares the advance amount the customer will pay.
// The amount is only posted to the ledger at confirmation.
func (s *SaleOrderService) SetAdvancePayment(ctx context.Context, orderID int, amount decimal.Decimal) (*SaleOrder, error) {
	if amount.IsNegative() {
		return nil, validationErrorf("advance payment cannot be negative")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	so, err := lockSaleOrder(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if so.State != SOStateDraft && so.State != SOStateSent {
		return nil, stateErrorf("cannot set advance payment on sales order in state %s", so.State)
	}
	if amount.GreaterThan(so.AmountTotal) {
		return nil, validationErrorf("advance payment %s exceeds order total %s", amount, so.AmountTotal)
	}

	state := AdvanceNone
	if amount.IsPositive() {
		state = AdvancePending
	}
	so, err = scanSaleOrder(tx.QueryRow(ctx, `
		UPDATE sales_orders
		SET advance_payment = $2, advance_payment_state = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING`+saleOrderColumns,
		orderID, amount, string(state),
	))
	if err != nil {
		return nil, fmt.Errorf("set advance payment on sales order %d: %w", orderID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit advance payment: %w", err)
	}
	return so, nil
}

// Send marks a draft order as sent to the customer.
func (s *SaleOrderService) Send(ctx context.Context, orderID int) (*SaleOrder, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	so, err := lockSaleOrder(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if so.State != SOStateDraft {
		return nil, stateErrorf("cannot send sales order in state %s", so.State)
	}

	so, err = scanSaleOrder(tx.QueryRow(ctx, `
		UPDATE sales_orders SET state = 'sent', updated_at = NOW()
		WHERE id = $1
		RETURNING`+saleOrderColumns,
		orderID,
	))
	if err != nil {
		return nil, fmt.Errorf("send sales order %d: %w", orderID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit sales order send: %w", err)
	}
	return so, nil
}

// Confirm moves a draft or sent order to 'sale', assigns the gapless
// order number, and posts the advance payment entry in the same
// transaction so the order never confirms without its ledger record.
func (s *SaleOrderService) Confirm(ctx context.Context, orderID int) (*SaleOrder, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	so, err := lockSaleOrder(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if so.State != SOStateDraft && so.State != SOStateSent {
		return nil, stateErrorf("cannot confirm sales order in state %s", so.State)
	}
	if so.AdvancePayment.GreaterThan(so.AmountTotal) {
		return nil, validationErrorf("advance payment %s exceeds order total %s", so.AdvancePayment, so.AmountTotal)
	}

	year := orderYear(so.OrderDate)
	number, err := s.sequences.NextNumberTx(ctx, tx, so.CompanyID, "SO", year)
	if err != nil {
		return nil, err
	}

	so, err = scanSaleOrder(tx.QueryRow(ctx, `
		UPDATE sales_orders
		SET state = 'sale', order_number = $2, confirmed_at = NOW(), updated_at = NOW()
		WHERE id = $1
		RETURNING`+saleOrderColumns,
		orderID, number,
	))
	if err != nil {
		return nil, fmt.Errorf("confirm sales order %d: %w", orderID, err)
	}

	if so.AdvancePayment.IsPositive() && so.AdvancePaymentState != AdvanceRecorded {
		entryID, err := s.advances.CreateAdvanceEntryTx(ctx, tx, so)
		if err != nil {
			return nil, err
		}
		so, err = scanSaleOrder(tx.QueryRow(ctx, `
			UPDATE sales_orders
			SET advance_payment_state = 'recorded', advance_journal_entry_id = $2, updated_at = NOW()
			WHERE id = $1
			RETURNING`+saleOrderColumns,
			orderID, entryID,
		))
		if err != nil {
			return nil, fmt.Errorf("link advance entry to sales order %d: %w", orderID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit sales order confirmation: %w", err)
	}
	return so, nil
}

// Cancel aborts an order before confirmation.
func (s *SaleOrderService) Cancel(ctx context.Context, orderID int) (*SaleOrder, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	so, err := lockSaleOrder(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if so.State != SOStateDraft && so.State != SOStateSent {
		return nil, stateErrorf("cannot cancel sales order in state %s", so.State)
	}

	so, err = scanSaleOrder(tx.QueryRow(ctx, `
		UPDATE sales_orders SET state = 'cancel', updated_at = NOW()
		WHERE id = $1
		RETURNING`+saleOrderColumns,
		orderID,
	))
	if err != nil {
		return nil, fmt.Errorf("cancel sales order %d: %w", orderID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit sales order cancellation: %w", err)
	}
	return so, nil
}

// ApplyDiscountRules re-evaluates the discount rules against the order
// in its own transaction. Orders past 'sent' are left untouched.
func (s *SaleOrderService) ApplyDiscountRules(ctx context.Context, orderID int) (*SaleOrder, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.applyDiscountRulesTx(ctx, tx, orderID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit discount application: %w", err)
	}
	return s.Get(ctx, orderID)
}

func (s *SaleOrderService) Get(ctx context.Context, orderID int) (*SaleOrder, error) {
	so, err := scanSaleOrder(s.pool.QueryRow(ctx,
		"SELECT"+saleOrderColumns+" FROM sales_orders WHERE id = $1", orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundErrorf("sales order %d not found", orderID)
		}
		return nil, fmt.Errorf("fetch sales order %d: %w", orderID, err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, order_id, line_number, product_id, description, quantity, unit_price, price_subtotal, is_discount_line
		FROM sales_order_lines
		WHERE order_id = $1
		ORDER BY line_number`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("fetch sales order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line SaleOrderLine
		if err := rows.Scan(&line.ID, &line.OrderID, &line.LineNumber, &line.ProductID, &line.Description, &line.Quantity, &line.UnitPrice, &line.PriceSubtotal, &line.IsDiscountLine); err != nil {
			return nil, fmt.Errorf("scan sales order line: %w", err)
		}
		so.Lines = append(so.Lines, line)
	}
	return so, nil
}

// List returns a company's sales orders, optionally filtered by state.
func (s *SaleOrderService) List(ctx context.Context, companyID int, state string) ([]SaleOrder, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT`+saleOrderColumns+`
		FROM sales_orders
		WHERE company_id = $1 AND ($2 = '' OR state = $2)
		ORDER BY id DESC`,
		companyID, state,
	)
	if err != nil {
		return nil, fmt.Errorf("list sales orders: %w", err)
	}
	defer rows.Close()

	var orders []SaleOrder
	for rows.Next() {
		var so SaleOrder
		if err := rows.Scan(
			&so.ID, &so.CompanyID, &so.OrderNumber, &so.CustomerID, &so.State, &so.OrderDate, &so.AmountTotal,
			&so.AppliedDiscountRuleID, &so.AppliedDiscountAmount, &so.AdvancePayment,
			&so.AdvancePaymentState, &so.AdvanceJournalEntryID, &so.CreatedAt, &so.UpdatedAt, &so.ConfirmedAt,
		); err != nil {
			return nil, fmt.Errorf("scan sales order: %w", err)
		}
		orders = append(orders, so)
	}
	return orders, nil
}

// insertLinesTx resolves products and appends regular (non-discount)
// lines to the order.
func (s *SaleOrderService) insertLinesTx(ctx context.Context, tx pgx.Tx, so *SaleOrder, lines []SaleOrderLineInput) error {
	for i, line := range lines {
		var productID int
		var productName string
		var listPrice decimal.Decimal
		err := tx.QueryRow(ctx,
			"SELECT id, name, unit_price FROM products WHERE company_id = $1 AND code = $2 AND is_active = true",
			so.CompanyID, line.ProductCode,
		).Scan(&productID, &productName, &listPrice)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return notFoundErrorf("line %d: product %q not found", i+1, line.ProductCode)
			}
			return fmt.Errorf("resolve product %q: %w", line.ProductCode, err)
		}

		unitPrice := listPrice
		if line.UnitPrice != nil {
			unitPrice = *line.UnitPrice
		}
		description := line.Description
		if description == "" {
			description = productName
		}
		subtotal := line.Quantity.Mul(unitPrice).Round(2)

		if _, err := tx.Exec(ctx, `
			INSERT INTO sales_order_lines (order_id, line_number, product_id, description, quantity, unit_price, price_subtotal, is_discount_line)
			VALUES ($1, $2, $3, $4, $5, $6, $7, false)`,
			so.ID, i+1, productID, description, line.Quantity, unitPrice, subtotal,
		); err != nil {
			return fmt.Errorf("insert sales order line %d: %w", i+1, err)
		}
	}
	return nil
}

// applyDiscountRulesTx runs the rule engine against an order inside the
// caller's transaction: strip previous discount lines, recompute the
// pre-discount total, pick the best rule, and materialize its discount
// as a negative line against the reserved discount product.
func (s *SaleOrderService) applyDiscountRulesTx(ctx context.Context, tx pgx.Tx, orderID int) error {
	so, err := lockSaleOrder(ctx, tx, orderID)
	if err != nil {
		return err
	}
	if so.State != SOStateDraft && so.State != SOStateSent {
		// Confirmed and cancelled orders keep their applied discount.
		return nil
	}

	if _, err := tx.Exec(ctx,
		"DELETE FROM sales_order_lines WHERE order_id = $1 AND is_discount_line = true", orderID,
	); err != nil {
		return fmt.Errorf("remove previous discount lines: %w", err)
	}

	var preDiscountTotal decimal.Decimal
	var maxLineNumber int
	err = tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(price_subtotal), 0), COALESCE(MAX(line_number), 0)
		FROM sales_order_lines
		WHERE order_id = $1`,
		orderID,
	).Scan(&preDiscountTotal, &maxLineNumber)
	if err != nil {
		return fmt.Errorf("sum sales order lines: %w", err)
	}

	var customerGroupID *int
	err = tx.QueryRow(ctx,
		"SELECT group_id FROM customers WHERE id = $1", so.CustomerID,
	).Scan(&customerGroupID)
	if err != nil {
		return fmt.Errorf("resolve customer group: %w", err)
	}

	var appliedRuleID *int
	discountAmount := decimal.Zero

	rule, err := s.rules.FindApplicableRule(ctx, so.CompanyID, preDiscountTotal, customerGroupID, so.OrderDate)
	if err != nil {
		return err
	}
	if rule != nil {
		d := rule.CalculateDiscount(preDiscountTotal)
		if d.IsPositive() {
			productID, err := s.ensureDiscountProductTx(ctx, tx, so.CompanyID)
			if err != nil {
				return err
			}
			label := fmt.Sprintf("Discount: %s (%s%%)", rule.Name, rule.DiscountPercent)
			if _, err := tx.Exec(ctx, `
				INSERT INTO sales_order_lines (order_id, line_number, product_id, description, quantity, unit_price, price_subtotal, is_discount_line)
				VALUES ($1, $2, $3, $4, 1, $5, $5, true)`,
				orderID, maxLineNumber+1, productID, label, d.Neg(),
			); err != nil {
				return fmt.Errorf("insert discount line: %w", err)
			}
			appliedRuleID = &rule.ID
			discountAmount = d
		}
	}

	if _, err := tx.Exec(ctx, `
		UPDATE sales_orders
		SET amount_total = $2, applied_discount_rule_id = $3, applied_discount_amount = $4, updated_at = NOW()
		WHERE id = $1`,
		orderID, preDiscountTotal.Sub(discountAmount), appliedRuleID, discountAmount,
	); err != nil {
		return fmt.Errorf("update sales order totals: %w", err)
	}
	return nil
}

// findDiscountProductTx resolves the reserved discount product, returning
// a NotFoundError when the company does not have one yet.
func (s *SaleOrderService) findDiscountProductTx(ctx context.Context, tx pgx.Tx, companyID int) (int, error) {
	var productID int
	err := tx.QueryRow(ctx,
		"SELECT id FROM products WHERE company_id = $1 AND code = $2",
		companyID, discountProductCode,
	).Scan(&productID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, notFoundErrorf("company %d has no product %s", companyID, discountProductCode)
		}
		return 0, fmt.Errorf("resolve discount product: %w", err)
	}
	return productID, nil
}

// ensureDiscountProductTx returns the reserved discount product,
// creating it on first use.
func (s *SaleOrderService) ensureDiscountProductTx(ctx context.Context, tx pgx.Tx, companyID int) (int, error) {
	productID, err := s.findDiscountProductTx(ctx, tx, companyID)
	if err == nil {
		return productID, nil
	}
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		return 0, err
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO products (company_id, code, name, unit_price, standard_cost, is_active)
		VALUES ($1, $2, 'Discount', 0, 0, true)
		RETURNING id`,
		companyID, discountProductCode,
	).Scan(&productID)
	if err != nil {
		return 0, fmt.Errorf("create discount product: %w", err)
	}
	return productID, nil
}

func lockSaleOrder(ctx context.Context, tx pgx.Tx, orderID int) (*SaleOrder, error) {
	so, err := scanSaleOrder(tx.QueryRow(ctx,
		"SELECT"+saleOrderColumns+" FROM sales_orders WHERE id = $1 FOR UPDATE", orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundErrorf("sales order %d not found", orderID)
		}
		return nil, fmt.Errorf("lock sales order %d: %w", orderID, err)
	}
	return so, nil
}
