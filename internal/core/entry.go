package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// EntryLine is one debit or credit line of a journal entry to be posted.
// Exactly one of Debit/Credit must be positive; the other must be zero.
type EntryLine struct {
	AccountCode string
	Label       string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
}

// EntryInput describes a journal entry before it is persisted and posted.
// IdempotencyKey, when set, guards against double-posting the same business
// event.
type EntryInput struct {
	CompanyID      int
	JournalID      int
	EntryDate      string // YYYY-MM-DD
	Narration      string
	Reference      string
	IdempotencyKey string
	Lines          []EntryLine
}

// Validate enforces the double-entry rules: at least two lines, every line
// strictly one-sided and positive, and total debits exactly equal to total
// credits.
func (in EntryInput) Validate() error {
	if in.CompanyID == 0 {
		return errors.New("entry must specify a company")
	}
	if in.JournalID == 0 {
		return errors.New("entry must specify a journal")
	}
	if in.EntryDate == "" {
		return errors.New("entry must specify an entry date")
	}
	if _, err := time.Parse("2006-01-02", in.EntryDate); err != nil {
		return fmt.Errorf("invalid entry date format: %w", err)
	}
	if len(in.Lines) < 2 {
		return errors.New("entry must have at least 2 lines")
	}

	totalDebit := decimal.Zero
	totalCredit := decimal.Zero

	for _, line := range in.Lines {
		if line.AccountCode == "" {
			return errors.New("entry line is missing an account code")
		}
		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			return fmt.Errorf("amounts cannot be negative on account %s", line.AccountCode)
		}
		if line.Debit.IsPositive() == line.Credit.IsPositive() {
			return fmt.Errorf("line for account %s must be either a debit or a credit", line.AccountCode)
		}
		totalDebit = totalDebit.Add(line.Debit)
		totalCredit = totalCredit.Add(line.Credit)
	}

	if !totalDebit.Equal(totalCredit) {
		return fmt.Errorf("entry imbalance: debits %s != credits %s", totalDebit, totalCredit)
	}
	return nil
}
