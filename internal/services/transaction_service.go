package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"taxengine-api/internal/db"
	"taxengine-api/internal/logger"
	"taxengine-api/internal/types/business"
	"taxengine-api/internal/types/params"
	"taxengine-api/internal/types/responses"
)

// AddressNormalizer canonicalizes raw buyer addresses.
type AddressNormalizer interface {
	Normalize(ctx context.Context, address business.Address) (*business.ValidatedAddress, error)
}

// JurisdictionResolver maps a normalized address to taxing authorities.
// sellerHint backstops addresses that normalize without a usable state.
type JurisdictionResolver interface {
	Resolve(ctx context.Context, address *business.ValidatedAddress, sellerHint string) ([]business.Jurisdiction, error)
}

// TaxCalculator produces the itemized breakdown for a transaction.
type TaxCalculator interface {
	Calculate(ctx context.Context, p params.TaxCalculationParams, jurisdictions []business.Jurisdiction) (*responses.TaxCalculationResult, error)
}

// Notifier delivers lifecycle events to registered webhook endpoints.
// Enqueue never blocks the request path.
type Notifier interface {
	Enqueue(event WebhookEvent)
}

// DefaultMaxAmountCents caps a single transaction at $10M-equivalent in
// minor units unless overridden via TAX_MAX_AMOUNT_CENTS.
const DefaultMaxAmountCents int64 = 1_000_000_000

// TransactionServiceConfig carries the lifecycle manager's tunables.
type TransactionServiceConfig struct {
	MaxAmountCents int64
}

// TransactionService drives the transaction lifecycle: calculate, commit,
// void and refund. Committed financial facts never mutate; every reversal
// is an appended compensating entry.
type TransactionService struct {
	queries       db.Querier
	addresses     AddressNormalizer
	jurisdictions JurisdictionResolver
	calculator    TaxCalculator
	notifier      Notifier
	cfg           TransactionServiceConfig
	logger        *zap.Logger
}

// NewTransactionService creates the lifecycle manager. notifier may be nil
// when webhook delivery is disabled.
func NewTransactionService(queries db.Querier, addresses AddressNormalizer, jurisdictions JurisdictionResolver, calculator TaxCalculator, notifier Notifier, cfg TransactionServiceConfig) *TransactionService {
	if cfg.MaxAmountCents <= 0 {
		cfg.MaxAmountCents = DefaultMaxAmountCents
	}
	return &TransactionService{
		queries:       queries,
		addresses:     addresses,
		jurisdictions: jurisdictions,
		calculator:    calculator,
		notifier:      notifier,
		cfg:           cfg,
		logger:        logger.Log,
	}
}

// Calculate runs the full quote pipeline and persists the result in
// calculated status. The ceiling check runs before any normalization or
// rate work.
func (s *TransactionService) Calculate(ctx context.Context, p params.TaxCalculationParams) (*responses.TaxCalculationResult, error) {
	if p.AmountCents > s.cfg.MaxAmountCents {
		return nil, NewTaxError(CodeAmountLimitExceeded,
			fmt.Sprintf("amount %d exceeds the per-transaction limit of %d minor units", p.AmountCents, s.cfg.MaxAmountCents), nil)
	}

	validated, err := s.addresses.Normalize(ctx, p.BuyerAddress)
	if err != nil {
		return nil, err
	}

	jurisdictions, err := s.jurisdictions.Resolve(ctx, validated, p.SellerJurisdictionHint)
	if err != nil {
		return nil, err
	}

	result, err := s.calculator.Calculate(ctx, p, jurisdictions)
	if err != nil {
		return nil, err
	}
	result.BuyerAddress = validated

	lines := make([]db.TaxCalculationLine, 0, len(result.Lines))
	for _, line := range result.Lines {
		lines = append(lines, db.TaxCalculationLine{
			ID:                     uuid.New(),
			TransactionID:          result.CalculationID,
			JurisdictionID:         line.JurisdictionID,
			JurisdictionCode:       line.JurisdictionCode,
			JurisdictionType:       string(line.JurisdictionType),
			Rate:                   line.Rate,
			TaxableAmountCents:     line.TaxableAmountCents,
			TaxAmountCents:         line.TaxAmountCents,
			ExemptionCertificateID: line.ExemptionCertificateID,
			Description:            line.Description,
		})
	}

	if _, err := s.queries.SaveCalculation(ctx, db.SaveCalculationParams{
		Transaction: db.TaxTransaction{
			ID:              result.CalculationID,
			CorrelationID:   p.CorrelationID,
			Status:          string(business.TransactionStatusCalculated),
			AmountCents:     p.AmountCents,
			TotalTaxCents:   result.TotalTaxCents,
			Currency:        p.Currency,
			ProductCategory: string(p.ProductCategory),
		},
		Lines: lines,
	}); err != nil {
		return nil, fmt.Errorf("persisting calculation: %w", err)
	}

	s.logger.Info("Tax calculation stored",
		zap.String("calculation_id", result.CalculationID.String()),
		zap.String("correlation_id", p.CorrelationID),
		zap.Int64("total_tax_cents", result.TotalTaxCents))

	return result, nil
}

// Commit turns a calculated transaction into a durable, balanced ledger
// posting. Replays with an already-claimed idempotency key return the
// stored outcome without writing anything.
func (s *TransactionService) Commit(ctx context.Context, p params.CommitParams) (*responses.CommitResult, error) {
	txRow, err := s.queries.GetTransaction(ctx, p.CalculationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NewTaxError(CodeCalculationNotFound, "calculation does not exist", err)
		}
		return nil, err
	}

	status := business.TransactionStatus(txRow.Status)
	if status != business.TransactionStatusCalculated {
		// A replayed commit of an already-committed transaction with the
		// same key is an idempotent success, not a conflict.
		if status == business.TransactionStatusCommitted &&
			txRow.IdempotencyKey != nil && *txRow.IdempotencyKey == p.IdempotencyKey {
			return s.replayCommit(ctx, txRow)
		}
		return nil, NewTaxError(CodeInvalidStateTransition,
			fmt.Sprintf("cannot commit a %s transaction", status), nil)
	}

	lines, err := s.queries.ListCalculationLines(ctx, txRow.ID)
	if err != nil {
		return nil, err
	}

	entries := buildCommitEntries(txRow, lines)
	if err := s.validateAgainstChart(ctx, entries); err != nil {
		return nil, err
	}

	// The idempotency claim is made inside the commit transaction, so a
	// lost claim always points at a durable commit. Losing concurrent
	// callers replay the stored outcome instead of writing a second one.
	updated, written, claimed, err := s.queries.CommitTransactionWithEntries(ctx, db.CommitTransactionWithEntriesParams{
		TransactionID:  txRow.ID,
		IdempotencyKey: p.IdempotencyKey,
		Entries:        entries,
	})
	if err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	if !claimed {
		prior, err := s.queries.GetTransactionByIdempotencyKey(ctx, p.IdempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("loading prior commit for idempotency key: %w", err)
		}
		if business.TransactionStatus(prior.Status) == business.TransactionStatusCalculated {
			return nil, NewTaxError(CodeInvalidStateTransition,
				"idempotency key is held by a transaction without a durable commit", nil)
		}
		return s.replayCommit(ctx, prior)
	}

	s.logger.Info("Transaction committed",
		zap.String("transaction_id", updated.ID.String()),
		zap.Int("ledger_entries", len(written)))
	s.notify(EventTransactionCommitted, updated)

	return &responses.CommitResult{
		Status:        responses.CommitStatusCommitted,
		Transaction:   toTransactionResponse(updated),
		LedgerEntries: toEntryResponses(written),
	}, nil
}

// Void fully reverses a committed transaction by appending mirror-image
// entries. Original entries are never touched.
func (s *TransactionService) Void(ctx context.Context, transactionID uuid.UUID) (*responses.CommitResult, error) {
	txRow, err := s.queries.GetTransaction(ctx, transactionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NewTaxError(CodeCalculationNotFound, "transaction does not exist", err)
		}
		return nil, err
	}

	status := business.TransactionStatus(txRow.Status)
	if !status.CanTransitionTo(business.TransactionStatusVoided) {
		return nil, NewTaxError(CodeInvalidStateTransition,
			fmt.Sprintf("cannot void a %s transaction", status), nil)
	}

	original, err := s.queries.ListLedgerEntriesByTransaction(ctx, txRow.ID)
	if err != nil {
		return nil, err
	}

	compensating := make([]db.LedgerEntry, 0, len(original))
	for _, e := range original {
		compensating = append(compensating, db.LedgerEntry{
			ID:            uuid.New(),
			TransactionID: txRow.ID,
			AccountCode:   e.AccountCode,
			AmountCents:   e.AmountCents,
			Currency:      e.Currency,
			Direction:     string(business.EntryDirection(e.Direction).Opposite()),
			Description:   "void reversal: " + e.Description,
		})
	}

	if err := s.validateAgainstChart(ctx, compensating); err != nil {
		return nil, err
	}

	updated, written, err := s.queries.AppendCompensatingEntries(ctx, db.AppendCompensatingEntriesParams{
		TransactionID: txRow.ID,
		NewStatus:     string(business.TransactionStatusVoided),
		Entries:       compensating,
	})
	if err != nil {
		return nil, fmt.Errorf("voiding transaction: %w", err)
	}

	s.logger.Info("Transaction voided", zap.String("transaction_id", updated.ID.String()))
	s.notify(EventTransactionVoided, updated)

	return &responses.CommitResult{
		Status:        responses.CommitStatusCommitted,
		Transaction:   toTransactionResponse(updated),
		LedgerEntries: toEntryResponses(written),
	}, nil
}

// Refund partially reverses a committed transaction. Tax on the refunded
// portion is recomputed with the rates captured at calculation time, never
// with current rates, so the reversal mirrors what was actually charged.
func (s *TransactionService) Refund(ctx context.Context, p params.RefundParams) (*responses.CommitResult, error) {
	txRow, err := s.queries.GetTransaction(ctx, p.TransactionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NewTaxError(CodeCalculationNotFound, "transaction does not exist", err)
		}
		return nil, err
	}

	status := business.TransactionStatus(txRow.Status)
	// Repeated partial refunds are legal while refundable balance remains;
	// a refunded transaction may be refunded again up to the original.
	if status != business.TransactionStatusCommitted && status != business.TransactionStatusRefunded {
		return nil, NewTaxError(CodeInvalidStateTransition,
			fmt.Sprintf("cannot refund a %s transaction", status), nil)
	}

	if p.AmountCents <= 0 {
		return nil, NewTaxError(CodeRefundAmountExceeded, "refund amount must be positive", nil)
	}
	remaining := txRow.AmountCents - txRow.RefundedCents
	if p.AmountCents > remaining {
		return nil, NewTaxError(CodeRefundAmountExceeded,
			fmt.Sprintf("refund of %d exceeds refundable balance of %d minor units", p.AmountCents, remaining), nil)
	}

	lines, err := s.queries.ListCalculationLines(ctx, txRow.ID)
	if err != nil {
		return nil, err
	}

	entries := buildRefundEntries(txRow, lines, p.AmountCents)
	if err := s.validateAgainstChart(ctx, entries); err != nil {
		return nil, err
	}

	updated, written, err := s.queries.AppendCompensatingEntries(ctx, db.AppendCompensatingEntriesParams{
		TransactionID: txRow.ID,
		NewStatus:     string(business.TransactionStatusRefunded),
		RefundedCents: p.AmountCents,
		Entries:       entries,
	})
	if err != nil {
		return nil, fmt.Errorf("refunding transaction: %w", err)
	}

	s.logger.Info("Transaction refunded",
		zap.String("transaction_id", updated.ID.String()),
		zap.Int64("refund_cents", p.AmountCents))
	s.notify(EventTransactionRefunded, updated)

	return &responses.CommitResult{
		Status:        responses.CommitStatusCommitted,
		Transaction:   toTransactionResponse(updated),
		LedgerEntries: toEntryResponses(written),
	}, nil
}

// Get returns the lifecycle row and ledger entries for a transaction.
func (s *TransactionService) Get(ctx context.Context, transactionID uuid.UUID) (*responses.CommitResult, error) {
	txRow, err := s.queries.GetTransaction(ctx, transactionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NewTaxError(CodeCalculationNotFound, "transaction does not exist", err)
		}
		return nil, err
	}
	entries, err := s.queries.ListLedgerEntriesByTransaction(ctx, txRow.ID)
	if err != nil {
		return nil, err
	}
	return &responses.CommitResult{
		Transaction:   toTransactionResponse(txRow),
		LedgerEntries: toEntryResponses(entries),
	}, nil
}

// replayCommit reconstructs the stored outcome of an earlier commit.
func (s *TransactionService) replayCommit(ctx context.Context, txRow db.TaxTransaction) (*responses.CommitResult, error) {
	entries, err := s.queries.ListLedgerEntriesByTransaction(ctx, txRow.ID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Idempotent commit replay",
		zap.String("transaction_id", txRow.ID.String()))
	return &responses.CommitResult{
		Status:        responses.CommitStatusDuplicate,
		Transaction:   toTransactionResponse(txRow),
		LedgerEntries: toEntryResponses(entries),
	}, nil
}

// validateAgainstChart loads the active chart of accounts and runs the
// double-entry validator over the proposed entries.
func (s *TransactionService) validateAgainstChart(ctx context.Context, entries []db.LedgerEntry) error {
	accounts, err := s.queries.ListLedgerAccounts(ctx)
	if err != nil {
		return fmt.Errorf("loading chart of accounts: %w", err)
	}
	chart := make(map[string]db.LedgerAccount, len(accounts))
	for _, a := range accounts {
		chart[a.Code] = a
	}
	return ValidateLedger(entries, chart)
}

func (s *TransactionService) notify(eventType string, txRow db.TaxTransaction) {
	if s.notifier == nil {
		return
	}
	s.notifier.Enqueue(WebhookEvent{
		Type:        eventType,
		Transaction: toTransactionResponse(txRow),
	})
}

// buildCommitEntries produces the balanced posting for a sale: cash is
// debited for the gross charge, the creator is credited the net amount,
// and each jurisdiction's tax is credited to the tax liability account.
// Zero-tax lines (exempt or zero-rated) produce no entries.
func buildCommitEntries(txRow db.TaxTransaction, lines []db.TaxCalculationLine) []db.LedgerEntry {
	entries := []db.LedgerEntry{
		{
			ID:            uuid.New(),
			TransactionID: txRow.ID,
			AccountCode:   business.AccountCash,
			AmountCents:   txRow.AmountCents,
			Currency:      txRow.Currency,
			Direction:     string(business.DirectionDebit),
			Description:   "sale proceeds",
		},
		{
			ID:            uuid.New(),
			TransactionID: txRow.ID,
			AccountCode:   business.AccountCreatorPayable,
			AmountCents:   txRow.AmountCents,
			Currency:      txRow.Currency,
			Direction:     string(business.DirectionCredit),
			Description:   "creator payable",
		},
	}
	for _, line := range lines {
		if line.TaxAmountCents == 0 {
			continue
		}
		entries = append(entries,
			db.LedgerEntry{
				ID:            uuid.New(),
				TransactionID: txRow.ID,
				AccountCode:   business.AccountCash,
				AmountCents:   line.TaxAmountCents,
				Currency:      txRow.Currency,
				Direction:     string(business.DirectionDebit),
				Description:   "tax collected: " + line.JurisdictionCode,
			},
			db.LedgerEntry{
				ID:            uuid.New(),
				TransactionID: txRow.ID,
				AccountCode:   business.AccountTaxLiability,
				AmountCents:   line.TaxAmountCents,
				Currency:      txRow.Currency,
				Direction:     string(business.DirectionCredit),
				Description:   "tax liability: " + line.JurisdictionCode,
			})
	}
	return entries
}

// buildRefundEntries mirrors buildCommitEntries for the refunded portion.
// Per-line tax reversals reuse the captured rate with banker's rounding on
// the scaled base.
func buildRefundEntries(txRow db.TaxTransaction, lines []db.TaxCalculationLine, refundCents int64) []db.LedgerEntry {
	entries := []db.LedgerEntry{
		{
			ID:            uuid.New(),
			TransactionID: txRow.ID,
			AccountCode:   business.AccountCreatorPayable,
			AmountCents:   refundCents,
			Currency:      txRow.Currency,
			Direction:     string(business.DirectionDebit),
			Description:   "refund of sale proceeds",
		},
		{
			ID:            uuid.New(),
			TransactionID: txRow.ID,
			AccountCode:   business.AccountCash,
			AmountCents:   refundCents,
			Currency:      txRow.Currency,
			Direction:     string(business.DirectionCredit),
			Description:   "refund payout",
		},
	}
	refund := decimal.NewFromInt(refundCents)
	for _, line := range lines {
		if line.TaxAmountCents == 0 {
			continue
		}
		taxRefund := refund.Mul(line.Rate).RoundBank(0).IntPart()
		if taxRefund == 0 {
			continue
		}
		entries = append(entries,
			db.LedgerEntry{
				ID:            uuid.New(),
				TransactionID: txRow.ID,
				AccountCode:   business.AccountTaxLiability,
				AmountCents:   taxRefund,
				Currency:      txRow.Currency,
				Direction:     string(business.DirectionDebit),
				Description:   "tax refund: " + line.JurisdictionCode,
			},
			db.LedgerEntry{
				ID:            uuid.New(),
				TransactionID: txRow.ID,
				AccountCode:   business.AccountCash,
				AmountCents:   taxRefund,
				Currency:      txRow.Currency,
				Direction:     string(business.DirectionCredit),
				Description:   "tax refund payout: " + line.JurisdictionCode,
			})
	}
	return entries
}

func toTransactionResponse(t db.TaxTransaction) responses.TransactionResponse {
	return responses.TransactionResponse{
		ID:              t.ID,
		CorrelationID:   t.CorrelationID,
		Status:          business.TransactionStatus(t.Status),
		AmountCents:     t.AmountCents,
		TotalTaxCents:   t.TotalTaxCents,
		Currency:        t.Currency,
		ProductCategory: business.ProductCategory(t.ProductCategory),
		RefundedCents:   t.RefundedCents,
		IdempotencyKey:  t.IdempotencyKey,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

func toEntryResponses(entries []db.LedgerEntry) []responses.LedgerEntryResponse {
	out := make([]responses.LedgerEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, responses.LedgerEntryResponse{
			ID:            e.ID,
			TransactionID: e.TransactionID,
			AccountCode:   e.AccountCode,
			AmountCents:   e.AmountCents,
			Currency:      e.Currency,
			Direction:     business.EntryDirection(e.Direction),
			Description:   e.Description,
			CreatedAt:     e.CreatedAt,
		})
	}
	return out
}
