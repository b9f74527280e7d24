package services

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"taxengine-api/internal/db"
	"taxengine-api/internal/logger"
	"taxengine-api/internal/types/business"
)

// JurisdictionService maps a normalized address to the ordered set of
// taxing authorities that apply to it.
type JurisdictionService struct {
	queries  db.Querier
	cache    Cache
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewJurisdictionService creates a new jurisdiction resolver.
func NewJurisdictionService(queries db.Querier, cache Cache) *JurisdictionService {
	return &JurisdictionService{
		queries:  queries,
		cache:    cache,
		cacheTTL: time.Hour,
		logger:   logger.Log,
	}
}

// Resolve returns the applicable jurisdictions ordered highest-authority
// first. The list is never empty for a nonempty state: when the area-code
// lookup finds nothing, the state-level jurisdiction is the fallback. The
// seller hint supplies the state when a degraded address carries none; an
// unresolvable state is fatal.
func (s *JurisdictionService) Resolve(ctx context.Context, address *business.ValidatedAddress, sellerHint string) ([]business.Jurisdiction, error) {
	stateCode := strings.ToUpper(strings.TrimSpace(address.Address.State))
	if stateCode == "" {
		stateCode = strings.ToUpper(strings.TrimSpace(sellerHint))
	}
	if stateCode == "" {
		return nil, NewTaxError(CodeJurisdictionResolutionError,
			"address has no state or province and no seller jurisdiction hint was given", nil)
	}

	cacheKey := "jur:" + stateCode + ":" + address.AreaCode
	if cached, ok := s.cache.Get(ctx, cacheKey); ok {
		var out []business.Jurisdiction
		if err := json.Unmarshal(cached, &out); err == nil && len(out) > 0 {
			return out, nil
		}
	}

	var rows []db.TaxJurisdiction
	if address.AreaCode != "" {
		found, err := s.queries.GetJurisdictionsByAreaCode(ctx, db.GetJurisdictionsByAreaCodeParams{
			AreaCode:  address.AreaCode,
			StateCode: stateCode,
		})
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn("Area code jurisdiction lookup failed, falling back to state",
				zap.String("area_code", address.AreaCode),
				zap.String("state", stateCode),
				zap.Error(err))
		}
		rows = found
	}

	if len(rows) == 0 {
		state, err := s.queries.GetStateJurisdiction(ctx, stateCode)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, NewTaxError(CodeJurisdictionResolutionError,
					"no taxing jurisdiction configured for state "+stateCode, err)
			}
			return nil, err
		}
		rows = []db.TaxJurisdiction{state}
	}

	out := make([]business.Jurisdiction, 0, len(rows))
	for _, row := range rows {
		jt, err := business.ParseJurisdictionType(row.JurisdictionType)
		if err != nil {
			// A malformed reference row is rejected here, at the boundary.
			return nil, NewTaxError(CodeJurisdictionResolutionError,
				"jurisdiction table contains an unknown type", err)
		}
		out = append(out, business.Jurisdiction{
			ID:           row.ID,
			Type:         jt,
			Name:         row.Name,
			Code:         row.Code,
			AreaCode:     row.AreaCode,
			ParentID:     row.ParentID,
			RateRequired: row.RateRequired,
		})
	}

	// The query orders rows already; re-sorting keeps the contract honest
	// even if the reference table's collation changes.
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Type.Rank() != out[j].Type.Rank() {
			return out[i].Type.Rank() < out[j].Type.Rank()
		}
		return out[i].Name < out[j].Name
	})

	if encoded, err := json.Marshal(out); err == nil {
		s.cache.Set(ctx, cacheKey, encoded, s.cacheTTL)
	}

	return out, nil
}

// RateRequired reports whether a missing rate for the jurisdiction is a
// fatal calculation error. State and national levels are always mandatory;
// lower levels only when the reference table marks them.
func RateRequired(j business.Jurisdiction) bool {
	if j.Type == business.JurisdictionTypeState || j.Type == business.JurisdictionTypeNational {
		return true
	}
	return j.RateRequired
}
