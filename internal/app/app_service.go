package app

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"orderflow/internal/core"
)

type appService struct {
	configs        *core.ApprovalConfigService
	purchaseOrders *core.PurchaseOrderService
	rules          *core.DiscountRuleService
	saleOrders     *core.SaleOrderService
	advances       *core.AdvancePaymentService
	ledger         *core.Ledger
	reports        *core.ProfitabilityService
}

// NewAppService wires the core services over a shared pool and returns
// the facade.
func NewAppService(pool *pgxpool.Pool, log zerolog.Logger) ApplicationService {
	configs := core.NewApprovalConfigService(pool)
	authorizer := core.NewAuthorizer(pool)
	notifier := core.NewNotifier(pool, log)
	sequences := core.NewSequenceService()
	ledger := core.NewLedger(pool)
	rules := core.NewDiscountRuleService(pool)
	advances := core.NewAdvancePaymentService(pool, ledger)

	return &appService{
		configs:        configs,
		purchaseOrders: core.NewPurchaseOrderService(pool, configs, authorizer, notifier, sequences, log),
		rules:          rules,
		saleOrders:     core.NewSaleOrderService(pool, rules, advances, sequences, log),
		advances:       advances,
		ledger:         ledger,
		reports:        core.NewProfitabilityService(pool),
	}
}

// ── Approval configuration ────────────────────────────────────────────────────

func (s *appService) GetApprovalConfig(ctx context.Context, companyID int) (*core.ApprovalConfig, error) {
	return s.configs.Ensure(ctx, companyID)
}

func (s *appService) SaveApprovalConfig(ctx context.Context, in core.ApprovalConfigInput) (*core.ApprovalConfig, error) {
	return s.configs.Save(ctx, in)
}

// ── Purchase orders ───────────────────────────────────────────────────────────

func (s *appService) CreatePurchaseOrder(ctx context.Context, in core.PurchaseOrderInput) (*core.PurchaseOrder, error) {
	return s.purchaseOrders.Create(ctx, in)
}

func (s *appService) GetPurchaseOrder(ctx context.Context, orderID int) (*core.PurchaseOrder, error) {
	return s.purchaseOrders.Get(ctx, orderID)
}

func (s *appService) ListPurchaseOrders(ctx context.Context, companyID int, state string) ([]core.PurchaseOrder, error) {
	return s.purchaseOrders.List(ctx, companyID, state)
}

func (s *appService) UpdatePurchaseOrderLines(ctx context.Context, orderID int, lines []core.PurchaseOrderLineInput) (*core.PurchaseOrder, error) {
	return s.purchaseOrders.UpdateLines(ctx, orderID, lines)
}

func (s *appService) SendPurchaseOrder(ctx context.Context, orderID int) (*core.PurchaseOrder, error) {
	return s.purchaseOrders.Send(ctx, orderID)
}

func (s *appService) ConfirmPurchaseOrder(ctx context.Context, orderID int) (*core.PurchaseOrder, error) {
	return s.purchaseOrders.Confirm(ctx, orderID)
}

func (s *appService) ConfirmPurchaseOrders(ctx context.Context, orderIDs []int) []core.BatchResult {
	return s.purchaseOrders.ConfirmBatch(ctx, orderIDs)
}

func (s *appService) ApprovePurchaseOrderLevel1(ctx context.Context, orderID, approverID int) (*core.PurchaseOrder, error) {
	return s.purchaseOrders.ApproveLevel1(ctx, orderID, approverID)
}

func (s *appService) ApprovePurchaseOrderLevel2(ctx context.Context, orderID, approverID int) (*core.PurchaseOrder, error) {
	return s.purchaseOrders.ApproveLevel2(ctx, orderID, approverID)
}

func (s *appService) RejectPurchaseOrder(ctx context.Context, orderID int) (*core.PurchaseOrder, error) {
	return s.purchaseOrders.Reject(ctx, orderID)
}

func (s *appService) CancelPurchaseOrder(ctx context.Context, orderID int) (*core.PurchaseOrder, error) {
	return s.purchaseOrders.Cancel(ctx, orderID)
}

// ── Discount rules ────────────────────────────────────────────────────────────

func (s *appService) CreateDiscountRule(ctx context.Context, in core.DiscountRuleInput) (*core.DiscountRule, error) {
	return s.rules.Create(ctx, in)
}

func (s *appService) UpdateDiscountRule(ctx context.Context, ruleID int, in core.DiscountRuleInput) (*core.DiscountRule, error) {
	return s.rules.Update(ctx, ruleID, in)
}

func (s *appService) GetDiscountRule(ctx context.Context, ruleID int) (*core.DiscountRule, error) {
	return s.rules.Get(ctx, ruleID)
}

func (s *appService) ListDiscountRules(ctx context.Context, companyID int) ([]core.DiscountRule, error) {
	return s.rules.List(ctx, companyID)
}

func (s *appService) DeactivateDiscountRule(ctx context.Context, ruleID int) error {
	return s.rules.Deactivate(ctx, ruleID)
}

// ── Sales orders ──────────────────────────────────────────────────────────────

func (s *appService) CreateSaleOrder(ctx context.Context, in core.SaleOrderInput) (*core.SaleOrder, error) {
	return s.saleOrders.Create(ctx, in)
}

func (s *appService) GetSaleOrder(ctx context.Context, orderID int) (*core.SaleOrder, error) {
	return s.saleOrders.Get(ctx, orderID)
}

func (s *appService) ListSaleOrders(ctx context.Context, companyID int, state string) ([]core.SaleOrder, error) {
	return s.saleOrders.List(ctx, companyID, state)
}

func (s *appService) UpdateSaleOrderLines(ctx context.Context, orderID int, lines []core.SaleOrderLineInput) (*core.SaleOrder, error) {
	return s.saleOrders.UpdateLines(ctx, orderID, lines)
}

func (s *appService) SetAdvancePayment(ctx context.Context, req SetAdvancePaymentRequest) (*core.SaleOrder, error) {
	return s.saleOrders.SetAdvancePayment(ctx, req.OrderID, req.Amount)
}

func (s *appService) SendSaleOrder(ctx context.Context, orderID int) (*core.SaleOrder, error) {
	return s.saleOrders.Send(ctx, orderID)
}

func (s *appService) ConfirmSaleOrder(ctx context.Context, orderID int) (*core.SaleOrder, error) {
	return s.saleOrders.Confirm(ctx, orderID)
}

func (s *appService) CancelSaleOrder(ctx context.Context, orderID int) (*core.SaleOrder, error) {
	return s.saleOrders.Cancel(ctx, orderID)
}

func (s *appService) ApplySaleOrderDiscounts(ctx context.Context, orderID int) (*core.SaleOrder, error) {
	return s.saleOrders.ApplyDiscountRules(ctx, orderID)
}

func (s *appService) RecordAdvancePayment(ctx context.Context, orderID int) (*core.SaleOrder, error) {
	return s.advances.CreateAdvanceEntry(ctx, orderID)
}

// ── Ledger and reporting ──────────────────────────────────────────────────────

func (s *appService) GetJournalEntry(ctx context.Context, entryID int) (*core.JournalEntry, error) {
	return s.ledger.GetEntry(ctx, entryID)
}

func (s *appService) BuildProfitabilityReport(ctx context.Context, filter core.ReportFilter) (*core.ProfitabilityReport, error) {
	return s.reports.BuildReport(ctx, filter)
}
