package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Account that accumulates customer advances until they are applied to
// an invoice.
const (
	advanceLiabilityAccountCode = "2010"
	advanceLiabilityAccountName = "Advance Payments from Customers"
)

// AdvancePaymentService posts the journal entry that records a customer
// advance: debit the customer's receivable account, credit the advance
// liability account.
type AdvancePaymentService struct {
	pool   *pgxpool.Pool
	ledger *Ledger
}

func NewAdvancePaymentService(pool *pgxpool.Pool, ledger *Ledger) *AdvancePaymentService {
	return &AdvancePaymentService{pool: pool, ledger: ledger}
}

// CreateAdvanceEntry posts the advance entry for an already confirmed
// order whose advance has not been recorded yet, and links it. The
// normal path is posting at confirmation time; this covers orders whose
// advance was declared late.
func (s *AdvancePaymentService) CreateAdvanceEntry(ctx context.Context, orderID int) (*SaleOrder, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	so, err := lockSaleOrder(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if so.State != SOStateSale {
		return nil, stateErrorf("cannot record advance payment for sales order in state %s", so.State)
	}

	entryID, err := s.CreateAdvanceEntryTx(ctx, tx, so)
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

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit advance entry: %w", err)
	}
	return so, nil
}

// CreateAdvanceEntryTx posts the advance entry inside the caller's
// transaction and returns the entry ID. The caller is responsible for
// recording the link on the order.
func (s *AdvancePaymentService) CreateAdvanceEntryTx(ctx context.Context, tx pgx.Tx, so *SaleOrder) (int, error) {
	if so.AdvancePaymentState == AdvanceRecorded {
		return 0, stateErrorf("advance payment for sales order %d is already recorded", so.ID)
	}
	if !so.AdvancePayment.IsPositive() {
		return 0, validationErrorf("sales order %d has no advance payment to record", so.ID)
	}

	var customerName string
	var receivableCode *string
	err := tx.QueryRow(ctx,
		"SELECT name, receivable_account_code FROM customers WHERE id = $1", so.CustomerID,
	).Scan(&customerName, &receivableCode)
	if err != nil {
		return 0, fmt.Errorf("resolve customer %d: %w", so.CustomerID, err)
	}
	if receivableCode == nil || *receivableCode == "" {
		return 0, configurationErrorf("customer %s has no receivable account configured", customerName)
	}

	if err := s.ensureAdvanceAccountTx(ctx, tx, so.CompanyID); err != nil {
		return 0, err
	}

	journalID, err := s.resolveJournalTx(ctx, tx, so.CompanyID)
	if err != nil {
		return 0, err
	}

	ref := orderRefOf(so)
	narration := fmt.Sprintf("Advance payment for sales order %s", ref)
	entryID, err := s.ledger.PostEntryTx(ctx, tx, EntryInput{
		CompanyID:      so.CompanyID,
		JournalID:      journalID,
		EntryDate:      so.OrderDate,
		Narration:      narration,
		Reference:      ref,
		IdempotencyKey: fmt.Sprintf("advance-so-%d", so.ID),
		Lines: []EntryLine{
			{AccountCode: *receivableCode, Label: fmt.Sprintf("Advance from %s", customerName), Debit: so.AdvancePayment},
			{AccountCode: advanceLiabilityAccountCode, Label: narration, Credit: so.AdvancePayment},
		},
	})
	if err != nil {
		return 0, err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO order_notes (order_type, order_id, body)
		VALUES ('sale', $1, $2)`,
		so.ID, fmt.Sprintf("Advance payment of %s recorded (journal entry %d)", so.AdvancePayment, entryID),
	); err != nil {
		return 0, fmt.Errorf("record advance payment note: %w", err)
	}

	return entryID, nil
}

// findAdvanceAccountTx resolves the advance liability account, returning
// a NotFoundError when the company does not have one yet.
func (s *AdvancePaymentService) findAdvanceAccountTx(ctx context.Context, tx pgx.Tx, companyID int) (int, error) {
	var id int
	err := tx.QueryRow(ctx,
		"SELECT id FROM accounts WHERE company_id = $1 AND code = $2",
		companyID, advanceLiabilityAccountCode,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, notFoundErrorf("company %d has no account %s", companyID, advanceLiabilityAccountCode)
		}
		return 0, fmt.Errorf("resolve advance liability account: %w", err)
	}
	return id, nil
}

// ensureAdvanceAccountTx creates the advance liability account on first
// use so posting never fails on a missing 2010.
func (s *AdvancePaymentService) ensureAdvanceAccountTx(ctx context.Context, tx pgx.Tx, companyID int) error {
	_, err := s.findAdvanceAccountTx(ctx, tx, companyID)
	if err == nil {
		return nil
	}
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		return err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO accounts (company_id, code, name, type)
		VALUES ($1, $2, $3, 'liability')`,
		companyID, advanceLiabilityAccountCode, advanceLiabilityAccountName,
	); err != nil {
		return fmt.Errorf("create advance liability account: %w", err)
	}
	return nil
}

// resolveJournalTx prefers the general journal, falling back to any
// journal the company has.
func (s *AdvancePaymentService) resolveJournalTx(ctx context.Context, tx pgx.Tx, companyID int) (int, error) {
	var journalID int
	err := tx.QueryRow(ctx,
		"SELECT id FROM journals WHERE company_id = $1 AND type = 'general' ORDER BY id LIMIT 1", companyID,
	).Scan(&journalID)
	if err == nil {
		return journalID, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("resolve general journal: %w", err)
	}

	err = tx.QueryRow(ctx,
		"SELECT id FROM journals WHERE company_id = $1 ORDER BY id LIMIT 1", companyID,
	).Scan(&journalID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, configurationErrorf("company %d has no journal to post advance payments to", companyID)
		}
		return 0, fmt.Errorf("resolve fallback journal: %w", err)
	}
	return journalID, nil
}

func orderRefOf(so *SaleOrder) string {
	if so.OrderNumber != nil && *so.OrderNumber != "" {
		return *so.OrderNumber
	}
	return fmt.Sprintf("SO#%d", so.ID)
}
