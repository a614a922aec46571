package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseOrderState is the lifecycle state of a purchase order. Orders
// above the auto-approve limit pass through the approval states before
// reaching 'purchase'.
type PurchaseOrderState string

const (
	POStateDraft          PurchaseOrderState = "draft"
	POStateSent           PurchaseOrderState = "sent"
	POStateToApprove      PurchaseOrderState = "to_approve"
	POStateApprovedLevel1 PurchaseOrderState = "approved_level1"
	POStateApprovedLevel2 PurchaseOrderState = "approved_level2"
	POStatePurchase       PurchaseOrderState = "purchase"
	POStateDone           PurchaseOrderState = "done"
	POStateCancel         PurchaseOrderState = "cancel"
)

// PurchaseOrder carries the approval routing fields alongside the order
// data. PONumber is assigned only when the order reaches 'purchase'.
type PurchaseOrder struct {
	ID                    int                 `json:"id"`
	CompanyID             int                 `json:"company_id"`
	PONumber              *string             `json:"po_number,omitempty"`
	SupplierName          string              `json:"supplier_name"`
	State                 PurchaseOrderState  `json:"state"`
	OrderDate             string              `json:"order_date"` // YYYY-MM-DD
	AmountTotal           decimal.Decimal     `json:"amount_total"`
	ApprovalLevelRequired ApprovalLevel       `json:"approval_level_required"`
	Level1ApproverID      *int                `json:"level1_approver_id,omitempty"`
	Level1ApprovalDate    *time.Time          `json:"level1_approval_date,omitempty"`
	Level2ApproverID      *int                `json:"level2_approver_id,omitempty"`
	Level2ApprovalDate    *time.Time          `json:"level2_approval_date,omitempty"`
	CreatedAt             time.Time           `json:"created_at"`
	UpdatedAt             time.Time           `json:"updated_at"`
	Lines                 []PurchaseOrderLine `json:"lines,omitempty"`
}

type PurchaseOrderLine struct {
	ID          int             `json:"id"`
	OrderID     int             `json:"order_id"`
	LineNumber  int             `json:"line_number"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

type PurchaseOrderLineInput struct {
	Description string          `json:"description" validate:"required"`
	Quantity    decimal.Decimal `json:"quantity" validate:"gt=0"`
	UnitCost    decimal.Decimal `json:"unit_cost" validate:"gte=0"`
}

type PurchaseOrderInput struct {
	CompanyID    int                      `json:"company_id" validate:"required"`
	SupplierName string                   `json:"supplier_name" validate:"required"`
	OrderDate    string                   `json:"order_date" validate:"required,datetime=2006-01-02"`
	Lines        []PurchaseOrderLineInput `json:"lines" validate:"min=1,dive"`
}

// BatchResult reports the outcome of one order in a batch confirmation.
// Failures carry the error message; the rest of the batch proceeds.
type BatchResult struct {
	OrderID int                `json:"order_id"`
	State   PurchaseOrderState `json:"state,omitempty"`
	Err     string             `json:"error,omitempty"`
}
