package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ── Report types ──────────────────────────────────────────────────────────────

// ReportFilter bounds the profitability report. DateFrom/DateTo are
// inclusive YYYY-MM-DD dates. Empty CustomerIDs/CategoryIDs mean no
// filter; empty States means every state except 'cancel'.
type ReportFilter struct {
	CompanyID   int      `json:"company_id"`
	DateFrom    string   `json:"date_from"`
	DateTo      string   `json:"date_to"`
	CustomerIDs []int    `json:"customer_ids,omitempty"`
	CategoryIDs []int    `json:"category_ids,omitempty"`
	States      []string `json:"states,omitempty"`
}

// ReportLine is the per-product detail of one order in the report.
type ReportLine struct {
	ProductCode string          `json:"product_code"`
	ProductName string          `json:"product_name"`
	Quantity    decimal.Decimal `json:"quantity"`
	Revenue     decimal.Decimal `json:"revenue"`
	Cost        decimal.Decimal `json:"cost"`
	Margin      decimal.Decimal `json:"margin"`
}

// OrderProfit aggregates one order. Revenue includes discount lines
// (they reduce it); cost is quantity times product standard cost over
// the regular lines. MarginPercent is a fraction (0.25 = 25%), zero
// when the order has no revenue.
type OrderProfit struct {
	OrderID       int             `json:"order_id"`
	OrderNumber   string          `json:"order_number"`
	OrderDate     string          `json:"order_date"`
	CustomerName  string          `json:"customer_name"`
	Revenue       decimal.Decimal `json:"revenue"`
	Cost          decimal.Decimal `json:"cost"`
	Margin        decimal.Decimal `json:"margin"`
	MarginPercent decimal.Decimal `json:"margin_percent"`
	Lines         []ReportLine    `json:"lines,omitempty"`
}

// ProfitabilityReport is the full report with grand totals.
type ProfitabilityReport struct {
	Filter        ReportFilter    `json:"filter"`
	GeneratedAt   time.Time       `json:"generated_at"`
	Orders        []OrderProfit   `json:"orders"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	TotalMargin   decimal.Decimal `json:"total_margin"`
	MarginPercent decimal.Decimal `json:"margin_percent"`
}

// ── Implementation ────────────────────────────────────────────────────────────

// ProfitabilityService builds sales profitability reports from order
// lines and product standard costs.
type ProfitabilityService struct {
	pool *pgxpool.Pool
}

func NewProfitabilityService(pool *pgxpool.Pool) *ProfitabilityService {
	return &ProfitabilityService{pool: pool}
}

// marginPercent returns margin/revenue as a fraction, zero when revenue
// is zero so fully discounted orders never divide by zero.
func marginPercent(margin, revenue decimal.Decimal) decimal.Decimal {
	if revenue.IsZero() {
		return decimal.Zero
	}
	return margin.Div(revenue).Round(4)
}

// BuildReport computes per-order and total profitability for the filter
// window. Orders with no lines after the category filter are dropped.
func (s *ProfitabilityService) BuildReport(ctx context.Context, filter ReportFilter) (*ProfitabilityReport, error) {
	if filter.CompanyID == 0 {
		return nil, validationErrorf("report requires a company")
	}
	for _, d := range []string{filter.DateFrom, filter.DateTo} {
		if d == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return nil, validationErrorf("invalid report date %q, expected YYYY-MM-DD", d)
		}
	}

	conds := []string{"so.company_id = $1"}
	args := []any{filter.CompanyID}

	if filter.DateFrom != "" {
		args = append(args, filter.DateFrom)
		conds = append(conds, fmt.Sprintf("so.order_date >= $%d", len(args)))
	}
	if filter.DateTo != "" {
		args = append(args, filter.DateTo)
		conds = append(conds, fmt.Sprintf("so.order_date <= $%d", len(args)))
	}
	if len(filter.States) > 0 {
		args = append(args, filter.States)
		conds = append(conds, fmt.Sprintf("so.state = ANY($%d)", len(args)))
	} else {
		conds = append(conds, "so.state <> 'cancel'")
	}
	if len(filter.CustomerIDs) > 0 {
		args = append(args, toInt64s(filter.CustomerIDs))
		conds = append(conds, fmt.Sprintf("so.customer_id = ANY($%d::bigint[])", len(args)))
	}
	if len(filter.CategoryIDs) > 0 {
		args = append(args, toInt64s(filter.CategoryIDs))
		conds = append(conds, fmt.Sprintf("p.category_id = ANY($%d::bigint[])", len(args)))
	}

	query := `
		SELECT so.id, COALESCE(so.order_number, ''), so.order_date::text, c.name,
		       p.code, p.name, sol.quantity, sol.price_subtotal,
		       sol.is_discount_line, p.standard_cost
		FROM sales_orders so
		JOIN customers c ON c.id = so.customer_id
		JOIN sales_order_lines sol ON sol.order_id = so.id
		JOIN products p ON p.id = sol.product_id
		WHERE ` + strings.Join(conds, " AND ") + `
		ORDER BY so.id, sol.line_number`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query profitability data: %w", err)
	}
	defer rows.Close()

	report := &ProfitabilityReport{
		Filter:      filter,
		GeneratedAt: time.Now(),
	}

	var current *OrderProfit
	for rows.Next() {
		var (
			orderID                          int
			orderNumber, orderDate, customer string
			productCode, productName         string
			quantity, subtotal, standardCost decimal.Decimal
			isDiscount                       bool
		)
		if err := rows.Scan(&orderID, &orderNumber, &orderDate, &customer,
			&productCode, &productName, &quantity, &subtotal, &isDiscount, &standardCost); err != nil {
			return nil, fmt.Errorf("scan profitability row: %w", err)
		}

		if current == nil || current.OrderID != orderID {
			if current != nil {
				s.finishOrder(report, current)
			}
			current = &OrderProfit{
				OrderID:      orderID,
				OrderNumber:  orderNumber,
				OrderDate:    orderDate,
				CustomerName: customer,
			}
		}

		cost := decimal.Zero
		if !isDiscount {
			cost = quantity.Mul(standardCost).Round(2)
		}
		current.Revenue = current.Revenue.Add(subtotal)
		current.Cost = current.Cost.Add(cost)
		current.Lines = append(current.Lines, ReportLine{
			ProductCode: productCode,
			ProductName: productName,
			Quantity:    quantity,
			Revenue:     subtotal,
			Cost:        cost,
			Margin:      subtotal.Sub(cost),
		})
	}
	if current != nil {
		s.finishOrder(report, current)
	}

	report.TotalMargin = report.TotalRevenue.Sub(report.TotalCost)
	report.MarginPercent = marginPercent(report.TotalMargin, report.TotalRevenue)
	return report, nil
}

func (s *ProfitabilityService) finishOrder(report *ProfitabilityReport, order *OrderProfit) {
	order.Margin = order.Revenue.Sub(order.Cost)
	order.MarginPercent = marginPercent(order.Margin, order.Revenue)
	report.Orders = append(report.Orders, *order)
	report.TotalRevenue = report.TotalRevenue.Add(order.Revenue)
	report.TotalCost = report.TotalCost.Add(order.Cost)
}

func toInt64s(ids []int) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}
