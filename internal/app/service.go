package app

import (
	"context"

	"orderflow/internal/core"
)

// ApplicationService is the single interface all adapters call. It
// decouples presentation from business logic. Implementations must
// contain no display logic of any kind.
type ApplicationService interface {
	// GetApprovalConfig returns the active approval thresholds for a
	// company, creating the defaults on first access.
	GetApprovalConfig(ctx context.Context, companyID int) (*core.ApprovalConfig, error)

	// SaveApprovalConfig activates new approval thresholds and reroutes
	// purchase orders still awaiting approval.
	SaveApprovalConfig(ctx context.Context, in core.ApprovalConfigInput) (*core.ApprovalConfig, error)

	// CreatePurchaseOrder opens a draft purchase order.
	CreatePurchaseOrder(ctx context.Context, in core.PurchaseOrderInput) (*core.PurchaseOrder, error)

	// GetPurchaseOrder returns a purchase order with its lines.
	GetPurchaseOrder(ctx context.Context, orderID int) (*core.PurchaseOrder, error)

	// ListPurchaseOrders returns a company's purchase orders, optionally
	// filtered by state.
	ListPurchaseOrders(ctx context.Context, companyID int, state string) ([]core.PurchaseOrder, error)

	// UpdatePurchaseOrderLines replaces the lines of a draft or sent order.
	UpdatePurchaseOrderLines(ctx context.Context, orderID int, lines []core.PurchaseOrderLineInput) (*core.PurchaseOrder, error)

	// SendPurchaseOrder marks a draft order as sent to the supplier.
	SendPurchaseOrder(ctx context.Context, orderID int) (*core.PurchaseOrder, error)

	// ConfirmPurchaseOrder moves an order past the approval gate:
	// auto-approval or routing to the required approver tier.
	ConfirmPurchaseOrder(ctx context.Context, orderID int) (*core.PurchaseOrder, error)

	// ConfirmPurchaseOrders confirms a batch, isolating failures per order.
	ConfirmPurchaseOrders(ctx context.Context, orderIDs []int) []core.BatchResult

	// ApprovePurchaseOrderLevel1 records a first-tier approval by approverID.
	ApprovePurchaseOrderLevel1(ctx context.Context, orderID, approverID int) (*core.PurchaseOrder, error)

	// ApprovePurchaseOrderLevel2 records a second-tier approval by approverID.
	ApprovePurchaseOrderLevel2(ctx context.Context, orderID, approverID int) (*core.PurchaseOrder, error)

	// RejectPurchaseOrder returns an order awaiting approval to draft.
	RejectPurchaseOrder(ctx context.Context, orderID int) (*core.PurchaseOrder, error)

	// CancelPurchaseOrder aborts an unconfirmed order.
	CancelPurchaseOrder(ctx context.Context, orderID int) (*core.PurchaseOrder, error)

	// CreateDiscountRule adds a rule to the catalog.
	CreateDiscountRule(ctx context.Context, in core.DiscountRuleInput) (*core.DiscountRule, error)

	// UpdateDiscountRule replaces a rule's definition.
	UpdateDiscountRule(ctx context.Context, ruleID int, in core.DiscountRuleInput) (*core.DiscountRule, error)

	// GetDiscountRule returns one rule.
	GetDiscountRule(ctx context.Context, ruleID int) (*core.DiscountRule, error)

	// ListDiscountRules returns all of a company's rules in ID order.
	ListDiscountRules(ctx context.Context, companyID int) ([]core.DiscountRule, error)

	// DeactivateDiscountRule soft-deletes a rule.
	DeactivateDiscountRule(ctx context.Context, ruleID int) error

	// CreateSaleOrder opens a draft sales order and applies discount rules.
	CreateSaleOrder(ctx context.Context, in core.SaleOrderInput) (*core.SaleOrder, error)

	// GetSaleOrder returns a sales order with its lines.
	GetSaleOrder(ctx context.Context, orderID int) (*core.SaleOrder, error)

	// ListSaleOrders returns a company's sales orders, optionally filtered
	// by state.
	ListSaleOrders(ctx context.Context, companyID int, state string) ([]core.SaleOrder, error)

	// UpdateSaleOrderLines replaces the product lines and re-applies
	// discount rules.
	UpdateSaleOrderLines(ctx context.Context, orderID int, lines []core.SaleOrderLineInput) (*core.SaleOrder, error)

	// SetAdvancePayment declares the advance amount for a draft or sent order.
	SetAdvancePayment(ctx context.Context, req SetAdvancePaymentRequest) (*core.SaleOrder, error)

	// SendSaleOrder marks a draft order as sent to the customer.
	SendSaleOrder(ctx context.Context, orderID int) (*core.SaleOrder, error)

	// ConfirmSaleOrder confirms the order, assigns its number, and posts
	// the advance payment entry when one is declared.
	ConfirmSaleOrder(ctx context.Context, orderID int) (*core.SaleOrder, error)

	// CancelSaleOrder aborts an unconfirmed order.
	CancelSaleOrder(ctx context.Context, orderID int) (*core.SaleOrder, error)

	// ApplySaleOrderDiscounts re-runs the discount rules against an order.
	ApplySaleOrderDiscounts(ctx context.Context, orderID int) (*core.SaleOrder, error)

	// RecordAdvancePayment posts the advance entry for a confirmed order
	// whose advance was declared after confirmation.
	RecordAdvancePayment(ctx context.Context, orderID int) (*core.SaleOrder, error)

	// GetJournalEntry returns a journal entry with its lines.
	GetJournalEntry(ctx context.Context, entryID int) (*core.JournalEntry, error)

	// BuildProfitabilityReport computes per-order revenue, cost, and margin
	// for the filter window.
	BuildProfitabilityReport(ctx context.Context, filter core.ReportFilter) (*core.ProfitabilityReport, error)
}
