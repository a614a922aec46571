package core_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"orderflow/internal/core"
)

func TestAdvancePayment_PostedOnConfirmation(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc := newSaleOrderService(pool)
	ledger := core.NewLedger(pool)
	ctx := context.Background()

	so, err := svc.Create(ctx, core.SaleOrderInput{
		CompanyID:      1,
		CustomerCode:   "ACME",
		OrderDate:      "2026-06-15",
		AdvancePayment: dec("300"),
		Lines:          []core.SaleOrderLineInput{{ProductCode: "WIDGET", Quantity: dec("8")}},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if so.AdvancePaymentState != core.AdvancePending {
		t.Fatalf("Expected advance state pending, got %s", so.AdvancePaymentState)
	}

	so, err = svc.Confirm(ctx, so.ID)
	if err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}
	if so.AdvancePaymentState != core.AdvanceRecorded {
		t.Errorf("Expected advance state recorded, got %s", so.AdvancePaymentState)
	}
	if so.AdvanceJournalEntryID == nil {
		t.Fatal("Expected advance journal entry to be linked")
	}

	entry, err := ledger.GetEntry(ctx, *so.AdvanceJournalEntryID)
	if err != nil {
		t.Fatalf("GetEntry failed: %v", err)
	}
	if entry.Status != core.EntryStatusPosted {
		t.Errorf("Expected posted entry, got %s", entry.Status)
	}

	debit, credit, err := ledger.EntryBalance(ctx, entry.ID)
	if err != nil {
		t.Fatalf("EntryBalance failed: %v", err)
	}
	if !debit.Equal(credit) || !debit.Equal(dec("300.00")) {
		t.Errorf("Expected balanced entry of 300.00, got debit %s credit %s", debit, credit)
	}

	// The liability side lands on the advance account, created on demand.
	var liabilityCredit string
	err = pool.QueryRow(ctx, `
		SELECT jl.credit::text
		FROM journal_lines jl
		JOIN accounts a ON a.id = jl.account_id
		WHERE jl.entry_id = $1 AND a.code = '2010'`,
		entry.ID,
	).Scan(&liabilityCredit)
	if err != nil {
		t.Fatalf("Expected a credit line on account 2010: %v", err)
	}

	// An audit note is left on the order.
	var notes int
	if err := pool.QueryRow(ctx,
		"SELECT count(*) FROM order_notes WHERE order_type = 'sale' AND order_id = $1", so.ID,
	).Scan(&notes); err != nil {
		t.Fatalf("Count notes failed: %v", err)
	}
	if notes == 0 {
		t.Error("Expected an audit note for the advance payment")
	}
}

func TestAdvancePayment_DoublePostGuard(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc := newSaleOrderService(pool)
	advances := core.NewAdvancePaymentService(pool, core.NewLedger(pool))
	ctx := context.Background()

	so, err := svc.Create(ctx, core.SaleOrderInput{
		CompanyID:      1,
		CustomerCode:   "ACME",
		OrderDate:      "2026-06-15",
		AdvancePayment: dec("300"),
		Lines:          []core.SaleOrderLineInput{{ProductCode: "WIDGET", Quantity: dec("8")}},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := svc.Confirm(ctx, so.ID); err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}

	_, err = advances.CreateAdvanceEntry(ctx, so.ID)
	var stateErr *core.StateError
	if !errors.As(err, &stateErr) {
		t.Errorf("Expected StateError on second posting, got %T: %v", err, err)
	}

	var entries int
	if err := pool.QueryRow(ctx,
		"SELECT count(*) FROM journal_entries WHERE idempotency_key = $1",
		fmt.Sprintf("advance-so-%d", so.ID),
	).Scan(&entries); err != nil {
		t.Fatalf("Count entries failed: %v", err)
	}
	if entries != 1 {
		t.Errorf("Expected exactly 1 advance entry, got %d", entries)
	}
}

func TestAdvancePayment_MissingReceivableAccount(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc := newSaleOrderService(pool)
	ctx := context.Background()

	so, err := svc.Create(ctx, core.SaleOrderInput{
		CompanyID:      1,
		CustomerCode:   "NOACC",
		OrderDate:      "2026-06-15",
		AdvancePayment: dec("50"),
		Lines:          []core.SaleOrderLineInput{{ProductCode: "WIDGET", Quantity: dec("8")}},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	_, err = svc.Confirm(ctx, so.ID)
	var cfgErr *core.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Expected ConfigurationError for missing receivable account, got %T: %v", err, err)
	}

	// The failed confirmation must leave the order untouched.
	so, err = svc.Get(ctx, so.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if so.State != core.SOStateDraft {
		t.Errorf("Expected order to stay in draft, got %s", so.State)
	}
	if so.AdvancePaymentState != core.AdvancePending {
		t.Errorf("Expected advance to stay pending, got %s", so.AdvancePaymentState)
	}
}

func TestAdvancePayment_ExceedsTotalRejectedAtCreation(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc := newSaleOrderService(pool)
	ctx := context.Background()

	// WIDGET at 100 x 1 totals 100, well below the declared advance.
	_, err := svc.Create(ctx, core.SaleOrderInput{
		CompanyID:      1,
		CustomerCode:   "ACME",
		OrderDate:      "2026-06-15",
		AdvancePayment: dec("5000"),
		Lines:          []core.SaleOrderLineInput{{ProductCode: "WIDGET", Quantity: dec("1")}},
	})
	var valErr *core.ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("Expected ValidationError for advance above total, got %T: %v", err, err)
	}

	// The rejected creation must not leave a partial order behind.
	var orders int
	if err := pool.QueryRow(ctx, "SELECT count(*) FROM sales_orders").Scan(&orders); err != nil {
		t.Fatalf("Count orders failed: %v", err)
	}
	if orders != 0 {
		t.Errorf("Expected no persisted orders, got %d", orders)
	}
}

func TestAdvancePayment_LiabilityAccountCreatedOnce(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc := newSaleOrderService(pool)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		so, err := svc.Create(ctx, core.SaleOrderInput{
			CompanyID:      1,
			CustomerCode:   "ACME",
			OrderDate:      "2026-06-15",
			AdvancePayment: dec("100"),
			Lines:          []core.SaleOrderLineInput{{ProductCode: "WIDGET", Quantity: dec("8")}},
		})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if _, err := svc.Confirm(ctx, so.ID); err != nil {
			t.Fatalf("Confirm failed: %v", err)
		}
	}

	var accounts int
	if err := pool.QueryRow(ctx,
		"SELECT count(*) FROM accounts WHERE company_id = 1 AND code = '2010'",
	).Scan(&accounts); err != nil {
		t.Fatalf("Count accounts failed: %v", err)
	}
	if accounts != 1 {
		t.Errorf("Expected the advance liability account to be created once, got %d rows", accounts)
	}
}

func TestAdvancePayment_ExceedsTotalRejected(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc := newSaleOrderService(pool)
	ctx := context.Background()

	so, err := svc.Create(ctx, core.SaleOrderInput{
		CompanyID:    1,
		CustomerCode: "ACME",
		OrderDate:    "2026-06-15",
		Lines:        []core.SaleOrderLineInput{{ProductCode: "WIDGET", Quantity: dec("1")}},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	_, err = svc.SetAdvancePayment(ctx, so.ID, dec("5000"))
	var valErr *core.ValidationError
	if !errors.As(err, &valErr) {
		t.Errorf("Expected ValidationError for advance above total, got %T: %v", err, err)
	}
}
