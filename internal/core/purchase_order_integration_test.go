package core_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"orderflow/internal/core"
)

func newPurchaseOrderService(pool *pgxpool.Pool) *core.PurchaseOrderService {
	log := zerolog.Nop()
	return core.NewPurchaseOrderService(
		pool,
		core.NewApprovalConfigService(pool),
		core.NewAuthorizer(pool),
		core.NewNotifier(pool, log),
		core.NewSequenceService(),
		log,
	)
}

func draftPO(t *testing.T, svc *core.PurchaseOrderService, unitCost string) *core.PurchaseOrder {
	t.Helper()
	po, err := svc.Create(context.Background(), core.PurchaseOrderInput{
		CompanyID:    1,
		SupplierName: "Steelworks GmbH",
		OrderDate:    "2026-03-10",
		Lines: []core.PurchaseOrderLineInput{
			{Description: "Steel plate", Quantity: dec("1"), UnitCost: dec(unitCost)},
		},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return po
}

func TestPurchaseOrder_AutoApproval(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc := newPurchaseOrderService(pool)
	ctx := context.Background()

	po := draftPO(t, svc, "4500")
	if po.ApprovalLevelRequired != core.ApprovalAuto {
		t.Fatalf("Expected auto level, got %s", po.ApprovalLevelRequired)
	}

	po, err := svc.Confirm(ctx, po.ID)
	if err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}
	if po.State != core.POStatePurchase {
		t.Errorf("Expected state purchase, got %s", po.State)
	}
	if po.PONumber == nil || *po.PONumber == "" {
		t.Error("Expected PO number to be assigned on confirmation")
	}
}

func TestPurchaseOrder_Level1Flow(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc := newPurchaseOrderService(pool)
	ctx := context.Background()

	// 15000 sits between the default limits of 5000 and 20000.
	po := draftPO(t, svc, "15000")
	if po.ApprovalLevelRequired != core.ApprovalLevel1 {
		t.Fatalf("Expected level1, got %s", po.ApprovalLevelRequired)
	}

	po, err := svc.Confirm(ctx, po.ID)
	if err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}
	if po.State != core.POStateToApprove {
		t.Fatalf("Expected state to_approve, got %s", po.State)
	}
	if po.PONumber != nil {
		t.Error("PO number must not be assigned before approval")
	}

	// Clerk (user 12) holds no approver capability.
	if _, err := svc.ApproveLevel1(ctx, po.ID, 12); err == nil {
		t.Fatal("Expected authorization error for non-approver, got nil")
	} else {
		var authErr *core.AuthorizationError
		if !errors.As(err, &authErr) {
			t.Errorf("Expected AuthorizationError, got %T: %v", err, err)
		}
	}

	po, err = svc.ApproveLevel1(ctx, po.ID, 10)
	if err != nil {
		t.Fatalf("ApproveLevel1 failed: %v", err)
	}
	if po.State != core.POStatePurchase {
		t.Errorf("Expected state purchase after level 1 approval, got %s", po.State)
	}
	if po.Level1ApproverID == nil || *po.Level1ApproverID != 10 {
		t.Errorf("Expected level1 approver 10, got %v", po.Level1ApproverID)
	}
	if po.Level1ApprovalDate == nil {
		t.Error("Expected level1 approval date to be recorded")
	}
	if po.PONumber == nil {
		t.Error("Expected PO number after final approval")
	}
}

func TestPurchaseOrder_Level2Flow(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc := newPurchaseOrderService(pool)
	ctx := context.Background()

	po := draftPO(t, svc, "25000")
	if po.ApprovalLevelRequired != core.ApprovalLevel2 {
		t.Fatalf("Expected level2, got %s", po.ApprovalLevelRequired)
	}

	po, err := svc.Confirm(ctx, po.ID)
	if err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}
	if po.State != core.POStateToApprove {
		t.Fatalf("Expected state to_approve, got %s", po.State)
	}

	po, err = svc.ApproveLevel1(ctx, po.ID, 10)
	if err != nil {
		t.Fatalf("ApproveLevel1 failed: %v", err)
	}
	if po.State != core.POStateApprovedLevel1 {
		t.Fatalf("Expected state approved_level1, got %s", po.State)
	}
	if po.PONumber != nil {
		t.Error("PO number must not be assigned before level 2 approval")
	}

	// User 10 is only a level 1 approver.
	if _, err := svc.ApproveLevel2(ctx, po.ID, 10); err == nil {
		t.Fatal("Expected authorization error for level 1 approver acting at level 2")
	}

	po, err = svc.ApproveLevel2(ctx, po.ID, 11)
	if err != nil {
		t.Fatalf("ApproveLevel2 failed: %v", err)
	}
	if po.State != core.POStatePurchase {
		t.Errorf("Expected state purchase after level 2 approval, got %s", po.State)
	}
	if po.Level2ApproverID == nil || *po.Level2ApproverID != 11 {
		t.Errorf("Expected level2 approver 11, got %v", po.Level2ApproverID)
	}
}

func TestPurchaseOrder_RejectClearsApprovals(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc := newPurchaseOrderService(pool)
	ctx := context.Background()

	po := draftPO(t, svc, "25000")
	if _, err := svc.Confirm(ctx, po.ID); err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}
	if _, err := svc.ApproveLevel1(ctx, po.ID, 10); err != nil {
		t.Fatalf("ApproveLevel1 failed: %v", err)
	}

	po, err := svc.Reject(ctx, po.ID)
	if err != nil {
		t.Fatalf("Reject failed: %v", err)
	}
	if po.State != core.POStateDraft {
		t.Errorf("Expected state draft after rejection, got %s", po.State)
	}
	if po.Level1ApproverID != nil || po.Level1ApprovalDate != nil {
		t.Error("Expected level 1 approval fields to be cleared on rejection")
	}
	if po.Level2ApproverID != nil || po.Level2ApprovalDate != nil {
		t.Error("Expected level 2 approval fields to be cleared on rejection")
	}
}

func TestPurchaseOrder_StateGuards(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc := newPurchaseOrderService(pool)
	ctx := context.Background()

	po := draftPO(t, svc, "4500")

	// Draft orders cannot be approved.
	_, err := svc.ApproveLevel1(ctx, po.ID, 10)
	var stateErr *core.StateError
	if !errors.As(err, &stateErr) {
		t.Errorf("Expected StateError approving a draft order, got %T: %v", err, err)
	}

	po, err = svc.Confirm(ctx, po.ID)
	if err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}

	// Confirmed orders cannot be confirmed again.
	if _, err := svc.Confirm(ctx, po.ID); !errors.As(err, &stateErr) {
		t.Errorf("Expected StateError on double confirm, got %T: %v", err, err)
	}
}

func TestPurchaseOrder_ConfirmBatchIsolation(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc := newPurchaseOrderService(pool)
	ctx := context.Background()

	ok1 := draftPO(t, svc, "1000")
	big := draftPO(t, svc, "15000")
	ok2 := draftPO(t, svc, "2000")

	// Cancel one so the batch contains a guaranteed failure.
	bad, err := svc.Cancel(ctx, draftPO(t, svc, "500").ID)
	if err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	results := svc.ConfirmBatch(ctx, []int{ok1.ID, bad.ID, big.ID, ok2.ID})
	if len(results) != 4 {
		t.Fatalf("Expected 4 results, got %d", len(results))
	}

	byID := make(map[int]core.BatchResult)
	for _, r := range results {
		byID[r.OrderID] = r
	}
	if byID[ok1.ID].State != core.POStatePurchase {
		t.Errorf("Order %d: expected purchase, got %s (%s)", ok1.ID, byID[ok1.ID].State, byID[ok1.ID].Err)
	}
	if byID[ok2.ID].State != core.POStatePurchase {
		t.Errorf("Order %d: expected purchase, got %s (%s)", ok2.ID, byID[ok2.ID].State, byID[ok2.ID].Err)
	}
	if byID[big.ID].State != core.POStateToApprove {
		t.Errorf("Order %d: expected to_approve, got %s (%s)", big.ID, byID[big.ID].State, byID[big.ID].Err)
	}
	if byID[bad.ID].Err == "" {
		t.Errorf("Order %d: expected a failure, got state %s", bad.ID, byID[bad.ID].State)
	}
}

func TestPurchaseOrder_ThresholdChangeReroutesPendingOrders(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc := newPurchaseOrderService(pool)
	configs := core.NewApprovalConfigService(pool)
	ctx := context.Background()

	po := draftPO(t, svc, "15000")
	if po.ApprovalLevelRequired != core.ApprovalLevel1 {
		t.Fatalf("Expected level1 under defaults, got %s", po.ApprovalLevelRequired)
	}

	// Raising the auto limit above the order total reroutes the pending draft.
	if _, err := configs.Save(ctx, core.ApprovalConfigInput{
		CompanyID:          1,
		AutoApproveLimit:   dec("16000"),
		Level1ApproveLimit: dec("30000"),
	}); err != nil {
		t.Fatalf("Save config failed: %v", err)
	}

	po, err := svc.Get(ctx, po.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if po.ApprovalLevelRequired != core.ApprovalAuto {
		t.Errorf("Expected rerouted level auto, got %s", po.ApprovalLevelRequired)
	}

	po, err = svc.Confirm(ctx, po.ID)
	if err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}
	if po.State != core.POStatePurchase {
		t.Errorf("Expected auto confirmation under new thresholds, got %s", po.State)
	}
}
