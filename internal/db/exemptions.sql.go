package db

import (
	"context"

	"github.com/google/uuid"
)

const getExemptionCertificate = `-- name: GetExemptionCertificate :one
SELECT id, jurisdiction_code, status, valid_from, valid_to
FROM exemption_certificates
WHERE id = $1
`

func (q *Queries) GetExemptionCertificate(ctx context.Context, id uuid.UUID) (ExemptionCertificate, error) {
	row := q.db.QueryRow(ctx, getExemptionCertificate, id)
	var i ExemptionCertificate
	err := row.Scan(
		&i.ID,
		&i.JurisdictionCode,
		&i.Status,
		&i.ValidFrom,
		&i.ValidTo,
	)
	return i, err
}
