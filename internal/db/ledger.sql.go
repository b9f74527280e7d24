package db

import (
	"context"

	"github.com/google/uuid"
)

const listLedgerEntriesByTransaction = `-- name: ListLedgerEntriesByTransaction :many
SELECT id, transaction_id, account_code, amount_cents, currency, direction, description, created_at
FROM ledger_entries
WHERE transaction_id = $1
ORDER BY created_at, id
`

func (q *Queries) ListLedgerEntriesByTransaction(ctx context.Context, transactionID uuid.UUID) ([]LedgerEntry, error) {
	rows, err := q.db.Query(ctx, listLedgerEntriesByTransaction, transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []LedgerEntry
	for rows.Next() {
		var i LedgerEntry
		if err := rows.Scan(
			&i.ID,
			&i.TransactionID,
			&i.AccountCode,
			&i.AmountCents,
			&i.Currency,
			&i.Direction,
			&i.Description,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listLedgerAccounts = `-- name: ListLedgerAccounts :many
SELECT code, name, account_type, is_active
FROM ledger_accounts
WHERE is_active = true
ORDER BY code
`

func (q *Queries) ListLedgerAccounts(ctx context.Context) ([]LedgerAccount, error) {
	rows, err := q.db.Query(ctx, listLedgerAccounts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []LedgerAccount
	for rows.Next() {
		var i LedgerAccount
		if err := rows.Scan(&i.Code, &i.Name, &i.AccountType, &i.IsActive); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const insertLedgerEntry = `-- name: insertLedgerEntry
INSERT INTO ledger_entries (id, transaction_id, account_code, amount_cents, currency, direction, description, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, now())
RETURNING id, transaction_id, account_code, amount_cents, currency, direction, description, created_at
`

// insertLedgerEntry is only reachable through the transactional extension
// methods; ledger entries are never written outside an enclosing commit,
// void or refund transaction.
func (q *Queries) insertLedgerEntry(ctx context.Context, e LedgerEntry) (LedgerEntry, error) {
	row := q.db.QueryRow(ctx, insertLedgerEntry,
		e.ID,
		e.TransactionID,
		e.AccountCode,
		e.AmountCents,
		e.Currency,
		e.Direction,
		e.Description,
	)
	var out LedgerEntry
	err := row.Scan(
		&out.ID,
		&out.TransactionID,
		&out.AccountCode,
		&out.AmountCents,
		&out.Currency,
		&out.Direction,
		&out.Description,
		&out.CreatedAt,
	)
	return out, err
}
