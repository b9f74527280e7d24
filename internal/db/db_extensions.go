package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// txBeginner is satisfied by *pgxpool.Pool. The extension methods below
// need it to run multi-statement operations atomically; a Queries bound to
// an existing transaction cannot start a nested one.
type txBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

func (q *Queries) begin(ctx context.Context) (pgx.Tx, error) {
	b, ok := q.db.(txBeginner)
	if !ok {
		return nil, fmt.Errorf("database handle does not support transactions")
	}
	return b.Begin(ctx)
}

const insertTransaction = `
INSERT INTO tax_transactions (id, correlation_id, status, amount_cents, total_tax_cents, refunded_cents, currency, product_category, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, 0, $6, $7, now(), now())
RETURNING id, correlation_id, idempotency_key, status, amount_cents, total_tax_cents, refunded_cents, currency, product_category, created_at, updated_at
`

const insertCalculationLine = `
INSERT INTO tax_calculation_lines (id, transaction_id, jurisdiction_id, jurisdiction_code, jurisdiction_type, rate, taxable_amount_cents, tax_amount_cents, exemption_certificate_id, description, created_at)
VALUES ($1, $2, $3, $4, $5, $6::numeric, $7, $8, $9, $10, now())
`

// SaveCalculationParams persists a freshly calculated transaction together
// with its breakdown lines.
type SaveCalculationParams struct {
	Transaction TaxTransaction
	Lines       []TaxCalculationLine
}

// SaveCalculation writes the calculated transaction and its lines in one
// database transaction. No ledger entries are written here; a calculated
// transaction has no durable financial effect.
func (q *Queries) SaveCalculation(ctx context.Context, arg SaveCalculationParams) (TaxTransaction, error) {
	tx, err := q.begin(ctx)
	if err != nil {
		return TaxTransaction{}, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, insertTransaction,
		arg.Transaction.ID,
		arg.Transaction.CorrelationID,
		arg.Transaction.Status,
		arg.Transaction.AmountCents,
		arg.Transaction.TotalTaxCents,
		arg.Transaction.Currency,
		arg.Transaction.ProductCategory,
	)
	saved, err := scanTransaction(row)
	if err != nil {
		return TaxTransaction{}, err
	}

	for _, line := range arg.Lines {
		if _, err := tx.Exec(ctx, insertCalculationLine,
			line.ID,
			saved.ID,
			line.JurisdictionID,
			line.JurisdictionCode,
			line.JurisdictionType,
			line.Rate.String(),
			line.TaxableAmountCents,
			line.TaxAmountCents,
			line.ExemptionCertificateID,
			line.Description,
		); err != nil {
			return TaxTransaction{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return TaxTransaction{}, err
	}
	return saved, nil
}

const updateTransactionStatus = `
UPDATE tax_transactions
SET status = $2, idempotency_key = COALESCE($3, idempotency_key), refunded_cents = refunded_cents + $4, updated_at = now()
WHERE id = $1
RETURNING id, correlation_id, idempotency_key, status, amount_cents, total_tax_cents, refunded_cents, currency, product_category, created_at, updated_at
`

// CommitTransactionWithEntriesParams flips a calculated transaction to
// committed and writes its balanced ledger entries.
type CommitTransactionWithEntriesParams struct {
	TransactionID  uuid.UUID
	IdempotencyKey string
	Entries        []LedgerEntry
}

// CommitTransactionWithEntries performs the durable commit as a single
// atomic unit: the idempotency claim, the status change and the full set
// of entries land together, or nothing does. The returned bool reports
// whether this call won the claim; on false another durable commit already
// holds the key and nothing was written.
func (q *Queries) CommitTransactionWithEntries(ctx context.Context, arg CommitTransactionWithEntriesParams) (TaxTransaction, []LedgerEntry, bool, error) {
	tx, err := q.begin(ctx)
	if err != nil {
		return TaxTransaction{}, nil, false, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, claimIdempotencyKey, arg.IdempotencyKey, arg.TransactionID)
	if err != nil {
		return TaxTransaction{}, nil, false, err
	}
	if tag.RowsAffected() == 0 {
		return TaxTransaction{}, nil, false, nil
	}

	row := tx.QueryRow(ctx, updateTransactionStatus, arg.TransactionID, "committed", &arg.IdempotencyKey, int64(0))
	updated, err := scanTransaction(row)
	if err != nil {
		return TaxTransaction{}, nil, false, err
	}

	written, err := insertEntries(ctx, q.WithTx(tx), arg.Entries)
	if err != nil {
		return TaxTransaction{}, nil, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return TaxTransaction{}, nil, false, err
	}
	return updated, written, true, nil
}

// AppendCompensatingEntriesParams appends void/refund reversals to a
// committed transaction.
type AppendCompensatingEntriesParams struct {
	TransactionID uuid.UUID
	NewStatus     string
	RefundedCents int64
	Entries       []LedgerEntry
}

// AppendCompensatingEntries writes compensating entries and the resulting
// status in one atomic unit. Existing entries are never modified.
func (q *Queries) AppendCompensatingEntries(ctx context.Context, arg AppendCompensatingEntriesParams) (TaxTransaction, []LedgerEntry, error) {
	return q.writeEntriesAtomically(ctx, arg.TransactionID, arg.NewStatus, nil, arg.RefundedCents, arg.Entries)
}

func (q *Queries) writeEntriesAtomically(ctx context.Context, transactionID uuid.UUID, status string, idempotencyKey *string, refundedCents int64, entries []LedgerEntry) (TaxTransaction, []LedgerEntry, error) {
	tx, err := q.begin(ctx)
	if err != nil {
		return TaxTransaction{}, nil, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, updateTransactionStatus, transactionID, status, idempotencyKey, refundedCents)
	updated, err := scanTransaction(row)
	if err != nil {
		return TaxTransaction{}, nil, err
	}

	written, err := insertEntries(ctx, q.WithTx(tx), entries)
	if err != nil {
		return TaxTransaction{}, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return TaxTransaction{}, nil, err
	}
	return updated, written, nil
}

func insertEntries(ctx context.Context, qtx *Queries, entries []LedgerEntry) ([]LedgerEntry, error) {
	written := make([]LedgerEntry, 0, len(entries))
	for _, e := range entries {
		saved, err := qtx.insertLedgerEntry(ctx, e)
		if err != nil {
			return nil, err
		}
		written = append(written, saved)
	}
	return written, nil
}
