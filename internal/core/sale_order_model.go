package core

import (
	"time"

	"github.com/shopspring/decimal"
)

type SaleOrderState string

const (
	SOStateDraft  SaleOrderState = "draft"
	SOStateSent   SaleOrderState = "sent"
	SOStateSale   SaleOrderState = "sale"
	SOStateDone   SaleOrderState = "done"
	SOStateCancel SaleOrderState = "cancel"
)

// AdvancePaymentState tracks whether a declared advance payment has
// been recorded in the ledger.
type AdvancePaymentState string

const (
	AdvanceNone     AdvancePaymentState = "none"
	AdvancePending  AdvancePaymentState = "pending"
	AdvanceRecorded AdvancePaymentState = "recorded"
)

// SaleOrder carries the discount and advance-payment outcome fields
// alongside the order data. OrderNumber is assigned at confirmation.
type SaleOrder struct {
	ID                    int                 `json:"id"`
	CompanyID             int                 `json:"company_id"`
	OrderNumber           *string             `json:"order_number,omitempty"`
	CustomerID            int                 `json:"customer_id"`
	State                 SaleOrderState      `json:"state"`
	OrderDate             string              `json:"order_date"` // YYYY-MM-DD
	AmountTotal           decimal.Decimal     `json:"amount_total"`
	AppliedDiscountRuleID *int                `json:"applied_discount_rule_id,omitempty"`
	AppliedDiscountAmount decimal.Decimal     `json:"applied_discount_amount"`
	AdvancePayment        decimal.Decimal     `json:"advance_payment"`
	AdvancePaymentState   AdvancePaymentState `json:"advance_payment_state"`
	AdvanceJournalEntryID *int                `json:"advance_journal_entry_id,omitempty"`
	CreatedAt             time.Time           `json:"created_at"`
	UpdatedAt             time.Time           `json:"updated_at"`
	ConfirmedAt           *time.Time          `json:"confirmed_at,omitempty"`
	Lines                 []SaleOrderLine     `json:"lines,omitempty"`
}

// SaleOrderLine is one product line. Discount lines are synthetic
// negative lines owned by the rule engine, never edited directly.
type SaleOrderLine struct {
	ID             int             `json:"id"`
	OrderID        int             `json:"order_id"`
	LineNumber     int             `json:"line_number"`
	ProductID      int             `json:"product_id"`
	Description    string          `json:"description"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	PriceSubtotal  decimal.Decimal `json:"price_subtotal"`
	IsDiscountLine bool            `json:"is_discount_line"`
}

type SaleOrderLineInput struct {
	ProductCode string           `json:"product_code" validate:"required"`
	Description string           `json:"description"`
	Quantity    decimal.Decimal  `json:"quantity" validate:"gt=0"`
	UnitPrice   *decimal.Decimal `json:"unit_price,omitempty"` // defaults to the product list price
}

type SaleOrderInput struct {
	CompanyID      int                  `json:"company_id" validate:"required"`
	CustomerCode   string               `json:"customer_code" validate:"required"`
	OrderDate      string               `json:"order_date" validate:"required,datetime=2006-01-02"`
	AdvancePayment decimal.Decimal      `json:"advance_payment" validate:"gte=0"`
	Lines          []SaleOrderLineInput `json:"lines" validate:"min=1,dive"`
}
