package app

import (
	"github.com/shopspring/decimal"
)

// SetAdvancePaymentRequest declares the advance amount on a sales order.
type SetAdvancePaymentRequest struct {
	OrderID int             `json:"order_id"`
	Amount  decimal.Decimal `json:"amount"`
}

// ConfirmBatchRequest confirms several purchase orders in one call.
type ConfirmBatchRequest struct {
	OrderIDs []int `json:"order_ids"`
}
