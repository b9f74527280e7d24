package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const getTaxRate = `-- name: GetTaxRate :one
SELECT id, jurisdiction_id, product_category, rate::text, effective_from, effective_to
FROM tax_rates
WHERE jurisdiction_id = $1
  AND product_category = $2
  AND effective_from <= $3
  AND (effective_to IS NULL OR effective_to >= $3)
ORDER BY effective_from DESC
LIMIT 1
`

// GetTaxRateParams selects the rate in effect for a jurisdiction and
// product category at the given time.
type GetTaxRateParams struct {
	JurisdictionID  uuid.UUID
	ProductCategory string
	At              time.Time
}

func (q *Queries) GetTaxRate(ctx context.Context, arg GetTaxRateParams) (TaxRate, error) {
	row := q.db.QueryRow(ctx, getTaxRate, arg.JurisdictionID, arg.ProductCategory, arg.At)
	var i TaxRate
	var rate string
	err := row.Scan(
		&i.ID,
		&i.JurisdictionID,
		&i.ProductCategory,
		&rate,
		&i.EffectiveFrom,
		&i.EffectiveTo,
	)
	if err != nil {
		return i, err
	}
	i.Rate, err = decimal.NewFromString(rate)
	return i, err
}
