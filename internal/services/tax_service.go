package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"taxengine-api/internal/db"
	"taxengine-api/internal/logger"
	"taxengine-api/internal/types/business"
	"taxengine-api/internal/types/params"
	"taxengine-api/internal/types/responses"
)

// TaxService computes itemized, jurisdiction-aware tax breakdowns.
// Amounts are integer minor units throughout; rates are applied in decimal
// arithmetic and banker's-rounded once per jurisdiction line.
type TaxService struct {
	queries db.Querier
	logger  *zap.Logger
}

// NewTaxService creates a new tax calculator.
func NewTaxService(queries db.Querier) *TaxService {
	return &TaxService{
		queries: queries,
		logger:  logger.Log,
	}
}

// Calculate produces the immutable tax breakdown for a transaction against
// the resolved jurisdictions. Rate lookups for independent jurisdictions
// run concurrently; line order follows the jurisdiction order (state
// first). A missing rate is fatal only for mandatory jurisdictions; a
// missing or invalid exemption certificate only means the line is taxed.
func (s *TaxService) Calculate(ctx context.Context, p params.TaxCalculationParams, jurisdictions []business.Jurisdiction) (*responses.TaxCalculationResult, error) {
	if len(jurisdictions) == 0 {
		return nil, NewTaxError(CodeJurisdictionResolutionError, "no jurisdictions resolved", nil)
	}

	now := time.Now()
	cert := s.lookupExemption(ctx, p.ExemptionCertificateID)
	stateCode := stateCodeOf(jurisdictions)

	s.logger.Info("Calculating tax",
		zap.String("correlation_id", p.CorrelationID),
		zap.Int64("amount_cents", p.AmountCents),
		zap.String("currency", p.Currency),
		zap.String("category", string(p.ProductCategory)),
		zap.Int("jurisdictions", len(jurisdictions)))

	lines := make([]*business.TaxLineItem, len(jurisdictions))
	g, gctx := errgroup.WithContext(ctx)
	for idx, jurisdiction := range jurisdictions {
		g.Go(func() error {
			line, err := s.calculateLine(gctx, p, jurisdiction, stateCode, cert, now)
			if err != nil {
				return err
			}
			lines[idx] = line
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &responses.TaxCalculationResult{
		CalculationID: uuid.New(),
		CorrelationID: p.CorrelationID,
		Status:        business.TransactionStatusCalculated,
		Currency:      p.Currency,
		SubtotalCents: p.AmountCents,
		CalculatedAt:  now,
	}
	for _, line := range lines {
		if line == nil {
			continue // optional jurisdiction without a configured rate
		}
		result.Lines = append(result.Lines, *line)
		result.TotalTaxCents += line.TaxAmountCents
	}
	result.TotalAmountCents = result.SubtotalCents + result.TotalTaxCents

	return result, nil
}

// calculateLine computes one jurisdiction's levy. Returns (nil, nil) when
// the jurisdiction is optional and has no configured rate.
func (s *TaxService) calculateLine(ctx context.Context, p params.TaxCalculationParams, jurisdiction business.Jurisdiction, stateCode string, cert *business.ExemptionCertificate, at time.Time) (*business.TaxLineItem, error) {
	line := &business.TaxLineItem{
		JurisdictionID:     jurisdiction.ID,
		JurisdictionCode:   jurisdiction.Code,
		JurisdictionType:   jurisdiction.Type,
		Rate:               decimal.Zero,
		TaxableAmountCents: p.AmountCents,
		Description:        jurisdiction.Name,
	}

	// Tips and peer-to-peer gifts are zero-rated but still recorded for
	// audit completeness.
	if p.ProductCategory.ZeroRated() {
		return line, nil
	}

	tax, rate, err := s.taxForJurisdiction(ctx, p, jurisdiction, at)
	if err != nil {
		return nil, err
	}
	if tax == nil {
		return nil, nil
	}
	line.Rate = *rate

	if cert != nil && cert.Covers(jurisdiction, stateCode, at) {
		line.TaxAmountCents = 0
		certID := cert.ID
		line.ExemptionCertificateID = &certID
		return line, nil
	}

	line.TaxAmountCents = *tax
	return line, nil
}

// taxForJurisdiction applies the configured rate(s) to the taxable base.
// For bundles the base is apportioned across constituent items by their
// listed sub-prices before rate application, and banker's rounding is
// applied once at the end, never per intermediate step.
func (s *TaxService) taxForJurisdiction(ctx context.Context, p params.TaxCalculationParams, jurisdiction business.Jurisdiction, at time.Time) (*int64, *decimal.Decimal, error) {
	if p.ProductCategory == business.CategoryBundle {
		return s.bundleTax(ctx, p, jurisdiction, at)
	}

	rate, found, err := s.lookupRate(ctx, jurisdiction, p.ProductCategory, at)
	if err != nil {
		return nil, nil, err
	}
	if !found {
		return nil, nil, nil
	}

	tax := decimal.NewFromInt(p.AmountCents).Mul(rate).RoundBank(0).IntPart()
	return &tax, &rate, nil
}

func (s *TaxService) bundleTax(ctx context.Context, p params.TaxCalculationParams, jurisdiction business.Jurisdiction, at time.Time) (*int64, *decimal.Decimal, error) {
	if len(p.BundleItems) == 0 {
		return nil, nil, NewTaxError(CodeRateResolutionError, "bundle transaction has no constituent items", nil)
	}

	var subTotal int64
	for _, item := range p.BundleItems {
		subTotal += item.AmountCents
	}
	if subTotal <= 0 {
		return nil, nil, NewTaxError(CodeRateResolutionError, "bundle sub-prices must sum to a positive amount", nil)
	}

	// One rate lookup per distinct item category.
	rates := make(map[business.ProductCategory]decimal.Decimal)
	for _, item := range p.BundleItems {
		if item.Category.ZeroRated() {
			continue
		}
		if _, done := rates[item.Category]; done {
			continue
		}
		rate, found, err := s.lookupRate(ctx, jurisdiction, item.Category, at)
		if err != nil {
			return nil, nil, err
		}
		if !found {
			if RateRequired(jurisdiction) {
				return nil, nil, NewTaxError(CodeRateResolutionError,
					fmt.Sprintf("no rate configured for category %s in jurisdiction %s", item.Category, jurisdiction.Code), nil)
			}
			continue
		}
		rates[item.Category] = rate
	}
	if len(rates) == 0 {
		return nil, nil, nil
	}

	amount := decimal.NewFromInt(p.AmountCents)
	total := decimal.NewFromInt(subTotal)
	sum := decimal.Zero
	for _, item := range p.BundleItems {
		rate, ok := rates[item.Category]
		if !ok {
			continue
		}
		base := amount.Mul(decimal.NewFromInt(item.AmountCents)).Div(total)
		sum = sum.Add(base.Mul(rate))
	}

	tax := sum.RoundBank(0).IntPart()
	// The recorded rate is the blended effective rate across the bundle.
	effective := decimal.Zero
	if p.AmountCents > 0 {
		effective = sum.Div(amount).Round(6)
	}
	return &tax, &effective, nil
}

// lookupRate returns (rate, found, error). A missing rate for a mandatory
// jurisdiction is converted to a fatal RateResolutionError; optional
// jurisdictions report found=false.
func (s *TaxService) lookupRate(ctx context.Context, jurisdiction business.Jurisdiction, category business.ProductCategory, at time.Time) (decimal.Decimal, bool, error) {
	row, err := s.queries.GetTaxRate(ctx, db.GetTaxRateParams{
		JurisdictionID:  jurisdiction.ID,
		ProductCategory: string(category),
		At:              at,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if RateRequired(jurisdiction) {
				return decimal.Zero, false, NewTaxError(CodeRateResolutionError,
					fmt.Sprintf("no rate configured for category %s in jurisdiction %s", category, jurisdiction.Code), err)
			}
			return decimal.Zero, false, nil
		}
		return decimal.Zero, false, fmt.Errorf("rate lookup for %s failed: %w", jurisdiction.Code, err)
	}
	return row.Rate, true, nil
}

// lookupExemption loads a referenced certificate. Lookup failures are not
// fatal; the transaction is simply taxed as unexempt.
func (s *TaxService) lookupExemption(ctx context.Context, id *uuid.UUID) *business.ExemptionCertificate {
	if id == nil {
		return nil
	}
	row, err := s.queries.GetExemptionCertificate(ctx, *id)
	if err != nil {
		s.logger.Warn("Exemption certificate lookup failed; taxing as unexempt",
			zap.String("certificate_id", id.String()),
			zap.Error(err))
		return nil
	}
	return &business.ExemptionCertificate{
		ID:               row.ID,
		JurisdictionCode: row.JurisdictionCode,
		Status:           business.CertificateStatus(row.Status),
		ValidFrom:        row.ValidFrom,
		ValidTo:          row.ValidTo,
	}
}

func stateCodeOf(jurisdictions []business.Jurisdiction) string {
	for _, j := range jurisdictions {
		if j.Type == business.JurisdictionTypeState {
			return j.Code
		}
	}
	return ""
}
