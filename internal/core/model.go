package core

import (
	"time"

	"github.com/shopspring/decimal"
)

type AccountType string

const (
	Asset     AccountType = "asset"
	Liability AccountType = "liability"
	Equity    AccountType = "equity"
	Revenue   AccountType = "revenue"
	Expense   AccountType = "expense"
)

type Account struct {
	ID        int         `json:"id"`
	CompanyID int         `json:"company_id"`
	Code      string      `json:"code"`
	Name      string      `json:"name"`
	Type      AccountType `json:"type"`
}

type Company struct {
	ID           int    `json:"id"`
	CompanyCode  string `json:"company_code"`
	Name         string `json:"name"`
	BaseCurrency string `json:"base_currency"`
}

type Journal struct {
	ID        int    `json:"id"`
	CompanyID int    `json:"company_id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	Type      string `json:"type"`
}

type EntryStatus string

const (
	EntryStatusDraft  EntryStatus = "DRAFT"
	EntryStatusPosted EntryStatus = "POSTED"
)

// JournalEntry is a posted accounting document. Once status is POSTED the
// entry and its lines are immutable.
type JournalEntry struct {
	ID             int           `json:"id"`
	CompanyID      int           `json:"company_id"`
	JournalID      int           `json:"journal_id"`
	Status         EntryStatus   `json:"status"`
	Narration      string        `json:"narration"`
	EntryDate      string        `json:"entry_date"` // YYYY-MM-DD
	Reference      *string       `json:"reference,omitempty"`
	IdempotencyKey *string       `json:"idempotency_key,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	PostedAt       *time.Time    `json:"posted_at,omitempty"`
	Lines          []JournalLine `json:"lines"`
}

type JournalLine struct {
	ID        int             `json:"id"`
	EntryID   int             `json:"entry_id"`
	AccountID int             `json:"account_id"`
	Label     string          `json:"label"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
}

// CustomerGroup partitions customers for discount rule targeting.
type CustomerGroup struct {
	ID        int    `json:"id"`
	CompanyID int    `json:"company_id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	Active    bool   `json:"active"`
}

type Customer struct {
	ID                    int     `json:"id"`
	CompanyID             int     `json:"company_id"`
	Code                  string  `json:"code"`
	Name                  string  `json:"name"`
	GroupID               *int    `json:"group_id,omitempty"`
	ReceivableAccountCode *string `json:"receivable_account_code,omitempty"`
}

// Product is a sellable item. StandardCost feeds the profitability report.
// The reserved code DISCOUNT identifies the synthetic discount product.
type Product struct {
	ID           int             `json:"id"`
	CompanyID    int             `json:"company_id"`
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	CategoryID   *int            `json:"category_id,omitempty"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	StandardCost decimal.Decimal `json:"standard_cost"`
	IsActive     bool            `json:"is_active"`
}

type User struct {
	ID        int       `json:"id"`
	CompanyID int       `json:"company_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}
