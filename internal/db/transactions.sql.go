package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const getTransaction = `-- name: GetTransaction :one
SELECT id, correlation_id, idempotency_key, status, amount_cents, total_tax_cents,
       refunded_cents, currency, product_category, created_at, updated_at
FROM tax_transactions
WHERE id = $1
`

func (q *Queries) GetTransaction(ctx context.Context, id uuid.UUID) (TaxTransaction, error) {
	row := q.db.QueryRow(ctx, getTransaction, id)
	return scanTransaction(row)
}

const getTransactionByIdempotencyKey = `-- name: GetTransactionByIdempotencyKey :one
SELECT t.id, t.correlation_id, t.idempotency_key, t.status, t.amount_cents, t.total_tax_cents,
       t.refunded_cents, t.currency, t.product_category, t.created_at, t.updated_at
FROM tax_transactions t
JOIN idempotency_keys k ON k.transaction_id = t.id
WHERE k.key = $1
`

func (q *Queries) GetTransactionByIdempotencyKey(ctx context.Context, key string) (TaxTransaction, error) {
	row := q.db.QueryRow(ctx, getTransactionByIdempotencyKey, key)
	return scanTransaction(row)
}

const listCalculationLines = `-- name: ListCalculationLines :many
SELECT id, transaction_id, jurisdiction_id, jurisdiction_code, jurisdiction_type,
       rate::text, taxable_amount_cents, tax_amount_cents, exemption_certificate_id,
       description, created_at
FROM tax_calculation_lines
WHERE transaction_id = $1
ORDER BY created_at, jurisdiction_code
`

func (q *Queries) ListCalculationLines(ctx context.Context, transactionID uuid.UUID) ([]TaxCalculationLine, error) {
	rows, err := q.db.Query(ctx, listCalculationLines, transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TaxCalculationLine
	for rows.Next() {
		var i TaxCalculationLine
		var rate string
		if err := rows.Scan(
			&i.ID,
			&i.TransactionID,
			&i.JurisdictionID,
			&i.JurisdictionCode,
			&i.JurisdictionType,
			&rate,
			&i.TaxableAmountCents,
			&i.TaxAmountCents,
			&i.ExemptionCertificateID,
			&i.Description,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		if i.Rate, err = decimal.NewFromString(rate); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (TaxTransaction, error) {
	var i TaxTransaction
	err := row.Scan(
		&i.ID,
		&i.CorrelationID,
		&i.IdempotencyKey,
		&i.Status,
		&i.AmountCents,
		&i.TotalTaxCents,
		&i.RefundedCents,
		&i.Currency,
		&i.ProductCategory,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}
