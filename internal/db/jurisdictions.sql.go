package db

import (
	"context"
)

const getJurisdictionsByAreaCode = `-- name: GetJurisdictionsByAreaCode :many
SELECT id, jurisdiction_type, name, code, state_code, area_code, parent_id, rate_required
FROM tax_jurisdictions
WHERE area_code = $1 AND state_code = $2
ORDER BY CASE jurisdiction_type
    WHEN 'national' THEN 0
    WHEN 'state' THEN 1
    WHEN 'county' THEN 2
    WHEN 'city' THEN 3
    WHEN 'special_district' THEN 4
    ELSE 5
END, name
`

// GetJurisdictionsByAreaCodeParams looks up the ordered taxing authorities
// for a governmental area within a state.
type GetJurisdictionsByAreaCodeParams struct {
	AreaCode  string
	StateCode string
}

func (q *Queries) GetJurisdictionsByAreaCode(ctx context.Context, arg GetJurisdictionsByAreaCodeParams) ([]TaxJurisdiction, error) {
	rows, err := q.db.Query(ctx, getJurisdictionsByAreaCode, arg.AreaCode, arg.StateCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TaxJurisdiction
	for rows.Next() {
		var i TaxJurisdiction
		if err := rows.Scan(
			&i.ID,
			&i.JurisdictionType,
			&i.Name,
			&i.Code,
			&i.StateCode,
			&i.AreaCode,
			&i.ParentID,
			&i.RateRequired,
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

const getStateJurisdiction = `-- name: GetStateJurisdiction :one
SELECT id, jurisdiction_type, name, code, state_code, area_code, parent_id, rate_required
FROM tax_jurisdictions
WHERE state_code = $1 AND jurisdiction_type = 'state'
LIMIT 1
`

func (q *Queries) GetStateJurisdiction(ctx context.Context, stateCode string) (TaxJurisdiction, error) {
	row := q.db.QueryRow(ctx, getStateJurisdiction, stateCode)
	var i TaxJurisdiction
	err := row.Scan(
		&i.ID,
		&i.JurisdictionType,
		&i.Name,
		&i.Code,
		&i.StateCode,
		&i.AreaCode,
		&i.ParentID,
		&i.RateRequired,
	)
	return i, err
}
