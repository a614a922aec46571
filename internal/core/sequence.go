package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// SequenceService assigns gapless order numbers (PO-2026-00001, SO-2026-00001)
// per company, document type, and year.
type SequenceService interface {
	// NextNumberTx reserves the next number inside the caller's transaction,
	// so an aborted state transition never burns a number.
	NextNumberTx(ctx context.Context, tx pgx.Tx, companyID int, docType string, year int) (string, error)
}

type sequenceService struct{}

func NewSequenceService() SequenceService {
	return sequenceService{}
}

func (sequenceService) NextNumberTx(ctx context.Context, tx pgx.Tx, companyID int, docType string, year int) (string, error) {
	// Concurrency-safe gapless increment: the upsert row-locks the sequence
	// until the surrounding transaction commits.
	var lastNumber int64
	err := tx.QueryRow(ctx, `
		INSERT INTO document_sequences (company_id, doc_type, year, last_number)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (company_id, doc_type, year)
		DO UPDATE SET last_number = document_sequences.last_number + 1
		RETURNING last_number`,
		companyID, docType, year,
	).Scan(&lastNumber)
	if err != nil {
		return "", fmt.Errorf("generate %s sequence number: %w", docType, err)
	}

	return fmt.Sprintf("%s-%d-%05d", docType, year, lastNumber), nil
}
