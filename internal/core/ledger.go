package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Ledger persists balanced journal entries and finalizes them. A posted
// entry is immutable: the only write path is create-then-post, performed
// atomically inside one transaction.
type Ledger struct {
	pool *pgxpool.Pool
}

func NewLedger(pool *pgxpool.Pool) *Ledger {
	return &Ledger{pool: pool}
}

// PostEntry validates, persists, and posts an entry in its own transaction.
func (l *Ledger) PostEntry(ctx context.Context, in EntryInput) (int, error) {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	entryID, err := l.PostEntryTx(ctx, tx, in)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit journal entry: %w", err)
	}
	return entryID, nil
}

// PostEntryTx validates, persists, and posts an entry inside the caller's
// transaction. The caller owns commit/rollback, so the entry and whatever
// business write triggered it succeed or fail together.
func (l *Ledger) PostEntryTx(ctx context.Context, tx pgx.Tx, in EntryInput) (int, error) {
	if err := in.Validate(); err != nil {
		return 0, fmt.Errorf("entry validation failed: %w", err)
	}

	var entryID int
	if in.IdempotencyKey != "" {
		err := tx.QueryRow(ctx, `
			INSERT INTO journal_entries (company_id, journal_id, status, narration, entry_date, reference, idempotency_key)
			VALUES ($1, $2, 'DRAFT', $3, $4, NULLIF($5, ''), $6)
			ON CONFLICT (idempotency_key) DO NOTHING
			RETURNING id`,
			in.CompanyID, in.JournalID, in.Narration, in.EntryDate, in.Reference, in.IdempotencyKey,
		).Scan(&entryID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return 0, fmt.Errorf("duplicate entry: idempotency key %s already posted", in.IdempotencyKey)
			}
			return 0, fmt.Errorf("insert journal entry: %w", err)
		}
	} else {
		err := tx.QueryRow(ctx, `
			INSERT INTO journal_entries (company_id, journal_id, status, narration, entry_date, reference)
			VALUES ($1, $2, 'DRAFT', $3, $4, NULLIF($5, ''))
			RETURNING id`,
			in.CompanyID, in.JournalID, in.Narration, in.EntryDate, in.Reference,
		).Scan(&entryID)
		if err != nil {
			return 0, fmt.Errorf("insert journal entry: %w", err)
		}
	}

	for _, line := range in.Lines {
		var accountID int
		err := tx.QueryRow(ctx,
			"SELECT id FROM accounts WHERE company_id = $1 AND code = $2",
			in.CompanyID, line.AccountCode,
		).Scan(&accountID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return 0, configurationErrorf("account code %s not found for company %d", line.AccountCode, in.CompanyID)
			}
			return 0, fmt.Errorf("resolve account %s: %w", line.AccountCode, err)
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO journal_lines (entry_id, account_id, label, debit, credit)
			VALUES ($1, $2, $3, $4, $5)`,
			entryID, accountID, line.Label, line.Debit, line.Credit,
		); err != nil {
			return 0, fmt.Errorf("insert journal line: %w", err)
		}
	}

	// Finalize. Past this point the entry is immutable.
	if _, err := tx.Exec(ctx,
		"UPDATE journal_entries SET status = 'POSTED', posted_at = NOW() WHERE id = $1",
		entryID,
	); err != nil {
		return 0, fmt.Errorf("post journal entry %d: %w", entryID, err)
	}

	return entryID, nil
}

// GetEntry returns a journal entry with its lines.
func (l *Ledger) GetEntry(ctx context.Context, entryID int) (*JournalEntry, error) {
	e := &JournalEntry{}
	err := l.pool.QueryRow(ctx, `
		SELECT id, company_id, journal_id, status, narration, entry_date::text,
		       reference, idempotency_key, created_at, posted_at
		FROM journal_entries
		WHERE id = $1`,
		entryID,
	).Scan(
		&e.ID, &e.CompanyID, &e.JournalID, &e.Status, &e.Narration, &e.EntryDate,
		&e.Reference, &e.IdempotencyKey, &e.CreatedAt, &e.PostedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundErrorf("journal entry %d not found", entryID)
		}
		return nil, fmt.Errorf("fetch journal entry %d: %w", entryID, err)
	}

	rows, err := l.pool.Query(ctx, `
		SELECT id, entry_id, account_id, label, debit, credit
		FROM journal_lines
		WHERE entry_id = $1
		ORDER BY id`,
		entryID,
	)
	if err != nil {
		return nil, fmt.Errorf("fetch journal lines for entry %d: %w", entryID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var line JournalLine
		if err := rows.Scan(&line.ID, &line.EntryID, &line.AccountID, &line.Label, &line.Debit, &line.Credit); err != nil {
			return nil, fmt.Errorf("scan journal line: %w", err)
		}
		e.Lines = append(e.Lines, line)
	}
	return e, nil
}

// EntryBalance returns the total debit and credit of an entry's lines.
func (l *Ledger) EntryBalance(ctx context.Context, entryID int) (debit, credit decimal.Decimal, err error) {
	err = l.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(debit), 0), COALESCE(SUM(credit), 0)
		FROM journal_lines
		WHERE entry_id = $1`,
		entryID,
	).Scan(&debit, &credit)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("entry balance for %d: %w", entryID, err)
	}
	return debit, credit, nil
}
