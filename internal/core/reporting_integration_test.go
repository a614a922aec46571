package core_test

import (
	"context"
	"testing"

	"orderflow/internal/core"
)

func TestProfitability_BasicMargins(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc := newSaleOrderService(pool)
	reports := core.NewProfitabilityService(pool)
	ctx := context.Background()

	// 5 widgets at 100 (cost 60) = revenue 500, cost 300, margin 200 (40%).
	so, err := svc.Create(ctx, core.SaleOrderInput{
		CompanyID:    1,
		CustomerCode: "ACME",
		OrderDate:    "2026-06-15",
		Lines:        []core.SaleOrderLineInput{{ProductCode: "WIDGET", Quantity: dec("5")}},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := svc.Confirm(ctx, so.ID); err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}

	report, err := reports.BuildReport(ctx, core.ReportFilter{
		CompanyID: 1,
		DateFrom:  "2026-06-01",
		DateTo:    "2026-06-30",
	})
	if err != nil {
		t.Fatalf("BuildReport failed: %v", err)
	}
	if len(report.Orders) != 1 {
		t.Fatalf("Expected 1 order in report, got %d", len(report.Orders))
	}

	order := report.Orders[0]
	if !order.Revenue.Equal(dec("500.00")) {
		t.Errorf("Expected revenue 500.00, got %s", order.Revenue)
	}
	if !order.Cost.Equal(dec("300.00")) {
		t.Errorf("Expected cost 300.00, got %s", order.Cost)
	}
	if !order.Margin.Equal(dec("200.00")) {
		t.Errorf("Expected margin 200.00, got %s", order.Margin)
	}
	if !order.MarginPercent.Equal(dec("0.4")) {
		t.Errorf("Expected margin fraction 0.4, got %s", order.MarginPercent)
	}
	if !report.TotalMargin.Equal(dec("200.00")) {
		t.Errorf("Expected total margin 200.00, got %s", report.TotalMargin)
	}
}

func TestProfitability_DiscountReducesRevenueNotCost(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc := newSaleOrderService(pool)
	reports := core.NewProfitabilityService(pool)
	ctx := context.Background()

	seedRule(t, pool, core.DiscountRuleInput{
		CompanyID: 1, Name: "Ten percent", Active: true,
		MinAmount: dec("0"), DiscountPercent: dec("10"), ValidFrom: "2026-01-01",
	})

	// Pre-discount 800, discount 80: revenue 720, cost 480 (8 * 60).
	so, err := svc.Create(ctx, core.SaleOrderInput{
		CompanyID:    1,
		CustomerCode: "ACME",
		OrderDate:    "2026-06-15",
		Lines:        []core.SaleOrderLineInput{{ProductCode: "WIDGET", Quantity: dec("8")}},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := svc.Confirm(ctx, so.ID); err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}

	report, err := reports.BuildReport(ctx, core.ReportFilter{CompanyID: 1})
	if err != nil {
		t.Fatalf("BuildReport failed: %v", err)
	}
	if len(report.Orders) != 1 {
		t.Fatalf("Expected 1 order, got %d", len(report.Orders))
	}
	order := report.Orders[0]
	if !order.Revenue.Equal(dec("720.00")) {
		t.Errorf("Expected revenue 720.00, got %s", order.Revenue)
	}
	if !order.Cost.Equal(dec("480.00")) {
		t.Errorf("Expected cost 480.00 (discount line carries no cost), got %s", order.Cost)
	}
}

func TestProfitability_ZeroRevenueOrder(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc := newSaleOrderService(pool)
	reports := core.NewProfitabilityService(pool)
	ctx := context.Background()

	seedRule(t, pool, core.DiscountRuleInput{
		CompanyID: 1, Name: "Everything free", Active: true,
		MinAmount: dec("0"), DiscountPercent: dec("100"), ValidFrom: "2026-01-01",
	})

	so, err := svc.Create(ctx, core.SaleOrderInput{
		CompanyID:    1,
		CustomerCode: "ACME",
		OrderDate:    "2026-06-15",
		Lines:        []core.SaleOrderLineInput{{ProductCode: "WIDGET", Quantity: dec("2")}},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := svc.Confirm(ctx, so.ID); err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}

	report, err := reports.BuildReport(ctx, core.ReportFilter{CompanyID: 1})
	if err != nil {
		t.Fatalf("BuildReport failed: %v", err)
	}
	if len(report.Orders) != 1 {
		t.Fatalf("Expected 1 order, got %d", len(report.Orders))
	}
	order := report.Orders[0]
	if !order.Revenue.IsZero() {
		t.Errorf("Expected zero revenue, got %s", order.Revenue)
	}
	if !order.MarginPercent.IsZero() {
		t.Errorf("Expected zero margin percent for zero revenue, got %s", order.MarginPercent)
	}
}

func TestProfitability_Filters(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc := newSaleOrderService(pool)
	reports := core.NewProfitabilityService(pool)
	ctx := context.Background()

	hardware, err := svc.Create(ctx, core.SaleOrderInput{
		CompanyID:    1,
		CustomerCode: "ACME",
		OrderDate:    "2026-06-15",
		Lines:        []core.SaleOrderLineInput{{ProductCode: "WIDGET", Quantity: dec("2")}},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	services, err := svc.Create(ctx, core.SaleOrderInput{
		CompanyID:    1,
		CustomerCode: "NOACC",
		OrderDate:    "2026-06-20",
		Lines:        []core.SaleOrderLineInput{{ProductCode: "SUPPORT", Quantity: dec("3")}},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	cancelled, err := svc.Create(ctx, core.SaleOrderInput{
		CompanyID:    1,
		CustomerCode: "ACME",
		OrderDate:    "2026-06-25",
		Lines:        []core.SaleOrderLineInput{{ProductCode: "WIDGET", Quantity: dec("9")}},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := svc.Cancel(ctx, cancelled.ID); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	// Cancelled orders are excluded by default.
	report, err := reports.BuildReport(ctx, core.ReportFilter{CompanyID: 1})
	if err != nil {
		t.Fatalf("BuildReport failed: %v", err)
	}
	if len(report.Orders) != 2 {
		t.Fatalf("Expected 2 orders (cancelled excluded), got %d", len(report.Orders))
	}

	// Category filter narrows to the hardware order.
	report, err = reports.BuildReport(ctx, core.ReportFilter{CompanyID: 1, CategoryIDs: []int{1}})
	if err != nil {
		t.Fatalf("BuildReport failed: %v", err)
	}
	if len(report.Orders) != 1 || report.Orders[0].OrderID != hardware.ID {
		t.Fatalf("Expected only the hardware order, got %+v", report.Orders)
	}

	// Customer filter narrows to the services order.
	report, err = reports.BuildReport(ctx, core.ReportFilter{CompanyID: 1, CustomerIDs: []int{2}})
	if err != nil {
		t.Fatalf("BuildReport failed: %v", err)
	}
	if len(report.Orders) != 1 || report.Orders[0].OrderID != services.ID {
		t.Fatalf("Expected only the services order, got %+v", report.Orders)
	}

	// Explicit state filter includes the cancelled order.
	report, err = reports.BuildReport(ctx, core.ReportFilter{CompanyID: 1, States: []string{"cancel"}})
	if err != nil {
		t.Fatalf("BuildReport failed: %v", err)
	}
	if len(report.Orders) != 1 || report.Orders[0].OrderID != cancelled.ID {
		t.Fatalf("Expected only the cancelled order, got %+v", report.Orders)
	}
}
