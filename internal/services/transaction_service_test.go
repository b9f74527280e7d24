package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"taxengine-api/internal/db"
	"taxengine-api/internal/mocks"
	"taxengine-api/internal/types/business"
	"taxengine-api/internal/types/params"
	"taxengine-api/internal/types/responses"
)

type fakeNormalizer struct {
	calls int
	out   *business.ValidatedAddress
	err   error
}

func (f *fakeNormalizer) Normalize(_ context.Context, _ business.Address) (*business.ValidatedAddress, error) {
	f.calls++
	return f.out, f.err
}

type fakeResolver struct {
	calls int
	out   []business.Jurisdiction
	err   error
}

func (f *fakeResolver) Resolve(_ context.Context, _ *business.ValidatedAddress, _ string) ([]business.Jurisdiction, error) {
	f.calls++
	return f.out, f.err
}

type fakeCalculator struct {
	calls int
	out   *responses.TaxCalculationResult
	err   error
}

func (f *fakeCalculator) Calculate(_ context.Context, _ params.TaxCalculationParams, _ []business.Jurisdiction) (*responses.TaxCalculationResult, error) {
	f.calls++
	return f.out, f.err
}

type captureNotifier struct {
	events []WebhookEvent
}

func (n *captureNotifier) Enqueue(event WebhookEvent) {
	n.events = append(n.events, event)
}

func ledgerAccountRows() []db.LedgerAccount {
	return []db.LedgerAccount{
		{Code: business.AccountCash, Name: "Cash", AccountType: "asset", IsActive: true},
		{Code: business.AccountCreatorPayable, Name: "Creator Payable", AccountType: "liability", IsActive: true},
		{Code: business.AccountTaxLiability, Name: "Tax Liability", AccountType: "liability", IsActive: true},
	}
}

func calculatedTransaction(id uuid.UUID) db.TaxTransaction {
	return db.TaxTransaction{
		ID:              id,
		CorrelationID:   "corr-1",
		Status:          string(business.TransactionStatusCalculated),
		AmountCents:     10000,
		TotalTaxCents:   700,
		Currency:        "USD",
		ProductCategory: string(business.CategorySubscription),
	}
}

func calculationLineRows(transactionID uuid.UUID) []db.TaxCalculationLine {
	return []db.TaxCalculationLine{
		{
			TransactionID:      transactionID,
			JurisdictionCode:   "US-WA",
			JurisdictionType:   string(business.JurisdictionTypeState),
			Rate:               decimal.RequireFromString("0.06"),
			TaxableAmountCents: 10000,
			TaxAmountCents:     600,
		},
		{
			TransactionID:      transactionID,
			JurisdictionCode:   "US-WA-KING",
			JurisdictionType:   string(business.JurisdictionTypeCounty),
			Rate:               decimal.RequireFromString("0.01"),
			TaxableAmountCents: 10000,
			TaxAmountCents:     100,
		},
	}
}

func assertBalanced(t *testing.T, entries []db.LedgerEntry) {
	t.Helper()
	balances := map[string]int64{}
	for _, e := range entries {
		switch business.EntryDirection(e.Direction) {
		case business.DirectionDebit:
			balances[e.Currency] += e.AmountCents
		case business.DirectionCredit:
			balances[e.Currency] -= e.AmountCents
		default:
			t.Fatalf("unknown direction %q", e.Direction)
		}
	}
	for currency, balance := range balances {
		assert.Zerof(t, balance, "entries unbalanced in %s", currency)
	}
}

func TestCalculateRejectsAmountOverCeiling(t *testing.T) {
	queries := mocks.NewMockQuerierForTest(t)
	normalizer := &fakeNormalizer{}
	resolver := &fakeResolver{}
	calculator := &fakeCalculator{}

	svc := NewTransactionService(queries, normalizer, resolver, calculator, nil,
		TransactionServiceConfig{MaxAmountCents: 1_000_000})

	_, err := svc.Calculate(context.Background(), params.TaxCalculationParams{
		AmountCents:     1_000_001,
		Currency:        "USD",
		ProductCategory: business.CategorySubscription,
	})

	require.Error(t, err)
	assert.Equal(t, CodeAmountLimitExceeded, TaxErrorCode(err))
	assert.Zero(t, normalizer.calls, "ceiling must reject before any collaborator runs")
	assert.Zero(t, resolver.calls)
	assert.Zero(t, calculator.calls)
}

func TestCalculatePersistsResult(t *testing.T) {
	calculationID := uuid.New()
	validated := &business.ValidatedAddress{
		ID:         uuid.New(),
		Address:    business.Address{State: "WA", Country: "US"},
		Confidence: 0.95,
		Validated:  true,
	}
	calcResult := &responses.TaxCalculationResult{
		CalculationID: calculationID,
		Status:        business.TransactionStatusCalculated,
		Currency:      "USD",
		SubtotalCents: 10000,
		TotalTaxCents: 700,
		Lines: []business.TaxLineItem{
			{JurisdictionCode: "US-WA", Rate: decimal.RequireFromString("0.06"), TaxableAmountCents: 10000, TaxAmountCents: 600},
			{JurisdictionCode: "US-WA-KING", Rate: decimal.RequireFromString("0.01"), TaxableAmountCents: 10000, TaxAmountCents: 100},
		},
	}
	calcResult.TotalAmountCents = calcResult.SubtotalCents + calcResult.TotalTaxCents

	queries := mocks.NewMockQuerierForTest(t)
	queries.EXPECT().
		SaveCalculation(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, arg db.SaveCalculationParams) (db.TaxTransaction, error) {
			assert.Equal(t, calculationID, arg.Transaction.ID)
			assert.Equal(t, string(business.TransactionStatusCalculated), arg.Transaction.Status)
			assert.Equal(t, int64(10000), arg.Transaction.AmountCents)
			assert.Equal(t, int64(700), arg.Transaction.TotalTaxCents)
			assert.Len(t, arg.Lines, 2)
			return arg.Transaction, nil
		})

	svc := NewTransactionService(queries,
		&fakeNormalizer{out: validated},
		&fakeResolver{out: stateAndCounty()},
		&fakeCalculator{out: calcResult},
		nil, TransactionServiceConfig{})

	result, err := svc.Calculate(context.Background(), params.TaxCalculationParams{
		CorrelationID:   "corr-1",
		AmountCents:     10000,
		Currency:        "USD",
		ProductCategory: business.CategorySubscription,
	})

	require.NoError(t, err)
	assert.Equal(t, validated, result.BuyerAddress)
	assert.Equal(t, int64(10700), result.TotalAmountCents)
}

func TestCommitWritesBalancedEntries(t *testing.T) {
	transactionID := uuid.New()
	txRow := calculatedTransaction(transactionID)
	notifier := &captureNotifier{}

	queries := mocks.NewMockQuerierForTest(t)
	queries.EXPECT().GetTransaction(gomock.Any(), transactionID).Return(txRow, nil)
	queries.EXPECT().ListCalculationLines(gomock.Any(), transactionID).Return(calculationLineRows(transactionID), nil)
	queries.EXPECT().ListLedgerAccounts(gomock.Any()).Return(ledgerAccountRows(), nil)
	queries.EXPECT().
		CommitTransactionWithEntries(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, arg db.CommitTransactionWithEntriesParams) (db.TaxTransaction, []db.LedgerEntry, bool, error) {
			assert.Equal(t, "key-1", arg.IdempotencyKey)
			// Proceeds pair + one pair per nonzero tax line.
			require.Len(t, arg.Entries, 6)
			assertBalanced(t, arg.Entries)

			committed := txRow
			committed.Status = string(business.TransactionStatusCommitted)
			key := arg.IdempotencyKey
			committed.IdempotencyKey = &key
			return committed, arg.Entries, true, nil
		})

	svc := NewTransactionService(queries, nil, nil, nil, notifier, TransactionServiceConfig{})

	result, err := svc.Commit(context.Background(), params.CommitParams{
		CalculationID:  transactionID,
		IdempotencyKey: "key-1",
	})

	require.NoError(t, err)
	assert.Equal(t, responses.CommitStatusCommitted, result.Status)
	assert.Equal(t, business.TransactionStatusCommitted, result.Transaction.Status)
	assert.Len(t, result.LedgerEntries, 6)

	require.Len(t, notifier.events, 1)
	assert.Equal(t, EventTransactionCommitted, notifier.events[0].Type)
}

func TestCommitDuplicateKeyReturnsStoredResult(t *testing.T) {
	transactionID := uuid.New()
	txRow := calculatedTransaction(transactionID)
	key := "key-1"

	prior := calculatedTransaction(uuid.New())
	prior.Status = string(business.TransactionStatusCommitted)
	prior.IdempotencyKey = &key
	priorEntries := []db.LedgerEntry{
		{TransactionID: prior.ID, AccountCode: business.AccountCash, AmountCents: 10000, Currency: "USD", Direction: string(business.DirectionDebit)},
		{TransactionID: prior.ID, AccountCode: business.AccountCreatorPayable, AmountCents: 10000, Currency: "USD", Direction: string(business.DirectionCredit)},
	}

	queries := mocks.NewMockQuerierForTest(t)
	queries.EXPECT().GetTransaction(gomock.Any(), transactionID).Return(txRow, nil)
	queries.EXPECT().ListCalculationLines(gomock.Any(), transactionID).Return(calculationLineRows(transactionID), nil)
	queries.EXPECT().ListLedgerAccounts(gomock.Any()).Return(ledgerAccountRows(), nil)
	// Lost claim: the commit transaction rolls back without writing.
	queries.EXPECT().
		CommitTransactionWithEntries(gomock.Any(), gomock.Any()).
		Return(db.TaxTransaction{}, nil, false, nil)
	queries.EXPECT().GetTransactionByIdempotencyKey(gomock.Any(), key).Return(prior, nil)
	queries.EXPECT().ListLedgerEntriesByTransaction(gomock.Any(), prior.ID).Return(priorEntries, nil)

	notifier := &captureNotifier{}
	svc := NewTransactionService(queries, nil, nil, nil, notifier, TransactionServiceConfig{})

	result, err := svc.Commit(context.Background(), params.CommitParams{
		CalculationID:  transactionID,
		IdempotencyKey: key,
	})

	require.NoError(t, err)
	assert.Equal(t, responses.CommitStatusDuplicate, result.Status)
	assert.Equal(t, prior.ID, result.Transaction.ID)
	assert.Len(t, result.LedgerEntries, 2)
	assert.Empty(t, notifier.events, "replays do not re-notify")
}

func TestCommitReplayOnAlreadyCommittedTransaction(t *testing.T) {
	transactionID := uuid.New()
	key := "key-1"
	txRow := calculatedTransaction(transactionID)
	txRow.Status = string(business.TransactionStatusCommitted)
	txRow.IdempotencyKey = &key

	queries := mocks.NewMockQuerierForTest(t)
	queries.EXPECT().GetTransaction(gomock.Any(), transactionID).Return(txRow, nil)
	queries.EXPECT().ListLedgerEntriesByTransaction(gomock.Any(), transactionID).Return(nil, nil)

	svc := NewTransactionService(queries, nil, nil, nil, nil, TransactionServiceConfig{})

	result, err := svc.Commit(context.Background(), params.CommitParams{
		CalculationID:  transactionID,
		IdempotencyKey: key,
	})

	require.NoError(t, err)
	assert.Equal(t, responses.CommitStatusDuplicate, result.Status)
}

func TestCommitRejectsWrongState(t *testing.T) {
	transactionID := uuid.New()
	txRow := calculatedTransaction(transactionID)
	txRow.Status = string(business.TransactionStatusVoided)

	queries := mocks.NewMockQuerierForTest(t)
	queries.EXPECT().GetTransaction(gomock.Any(), transactionID).Return(txRow, nil)

	svc := NewTransactionService(queries, nil, nil, nil, nil, TransactionServiceConfig{})

	_, err := svc.Commit(context.Background(), params.CommitParams{
		CalculationID:  transactionID,
		IdempotencyKey: "key-1",
	})

	require.Error(t, err)
	assert.Equal(t, CodeInvalidStateTransition, TaxErrorCode(err))
}

func TestCommitUnknownCalculation(t *testing.T) {
	transactionID := uuid.New()

	queries := mocks.NewMockQuerierForTest(t)
	queries.EXPECT().GetTransaction(gomock.Any(), transactionID).Return(db.TaxTransaction{}, pgx.ErrNoRows)

	svc := NewTransactionService(queries, nil, nil, nil, nil, TransactionServiceConfig{})

	_, err := svc.Commit(context.Background(), params.CommitParams{
		CalculationID:  transactionID,
		IdempotencyKey: "key-1",
	})

	require.Error(t, err)
	assert.Equal(t, CodeCalculationNotFound, TaxErrorCode(err))
}

func TestCommitValidationFailureWritesNothing(t *testing.T) {
	transactionID := uuid.New()
	txRow := calculatedTransaction(transactionID)

	queries := mocks.NewMockQuerierForTest(t)
	queries.EXPECT().GetTransaction(gomock.Any(), transactionID).Return(txRow, nil)
	queries.EXPECT().ListCalculationLines(gomock.Any(), transactionID).Return(calculationLineRows(transactionID), nil)
	// Empty chart: every entry references an unknown account. Validation
	// runs before the claim, so no CommitTransactionWithEntries call and
	// the key stays free for a corrected retry.
	queries.EXPECT().ListLedgerAccounts(gomock.Any()).Return(nil, nil)

	svc := NewTransactionService(queries, nil, nil, nil, nil, TransactionServiceConfig{})

	_, err := svc.Commit(context.Background(), params.CommitParams{
		CalculationID:  transactionID,
		IdempotencyKey: "key-1",
	})

	require.Error(t, err)
	assert.Equal(t, CodeLedgerValidationError, TaxErrorCode(err))
}

func TestCommitLostClaimWithoutDurableCommitFails(t *testing.T) {
	transactionID := uuid.New()
	txRow := calculatedTransaction(transactionID)
	key := "key-1"

	// The key holder never completed its commit; its row is still
	// calculated and has no ledger entries to replay.
	holder := calculatedTransaction(uuid.New())

	notifier := &captureNotifier{}
	queries := mocks.NewMockQuerierForTest(t)
	queries.EXPECT().GetTransaction(gomock.Any(), transactionID).Return(txRow, nil)
	queries.EXPECT().ListCalculationLines(gomock.Any(), transactionID).Return(calculationLineRows(transactionID), nil)
	queries.EXPECT().ListLedgerAccounts(gomock.Any()).Return(ledgerAccountRows(), nil)
	queries.EXPECT().
		CommitTransactionWithEntries(gomock.Any(), gomock.Any()).
		Return(db.TaxTransaction{}, nil, false, nil)
	queries.EXPECT().GetTransactionByIdempotencyKey(gomock.Any(), key).Return(holder, nil)

	svc := NewTransactionService(queries, nil, nil, nil, notifier, TransactionServiceConfig{})

	result, err := svc.Commit(context.Background(), params.CommitParams{
		CalculationID:  transactionID,
		IdempotencyKey: key,
	})

	require.Error(t, err)
	assert.Equal(t, CodeInvalidStateTransition, TaxErrorCode(err))
	assert.Nil(t, result, "an uncommitted key holder must never be replayed as a duplicate")
	assert.Empty(t, notifier.events)
}

func TestVoidAppendsMirrorEntries(t *testing.T) {
	transactionID := uuid.New()
	txRow := calculatedTransaction(transactionID)
	txRow.Status = string(business.TransactionStatusCommitted)

	original := []db.LedgerEntry{
		{TransactionID: transactionID, AccountCode: business.AccountCash, AmountCents: 10000, Currency: "USD", Direction: string(business.DirectionDebit), Description: "sale proceeds"},
		{TransactionID: transactionID, AccountCode: business.AccountCreatorPayable, AmountCents: 10000, Currency: "USD", Direction: string(business.DirectionCredit), Description: "creator payable"},
		{TransactionID: transactionID, AccountCode: business.AccountCash, AmountCents: 700, Currency: "USD", Direction: string(business.DirectionDebit), Description: "tax collected: US-WA"},
		{TransactionID: transactionID, AccountCode: business.AccountTaxLiability, AmountCents: 700, Currency: "USD", Direction: string(business.DirectionCredit), Description: "tax liability: US-WA"},
	}

	notifier := &captureNotifier{}
	queries := mocks.NewMockQuerierForTest(t)
	queries.EXPECT().GetTransaction(gomock.Any(), transactionID).Return(txRow, nil)
	queries.EXPECT().ListLedgerEntriesByTransaction(gomock.Any(), transactionID).Return(original, nil)
	queries.EXPECT().ListLedgerAccounts(gomock.Any()).Return(ledgerAccountRows(), nil)
	queries.EXPECT().
		AppendCompensatingEntries(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, arg db.AppendCompensatingEntriesParams) (db.TaxTransaction, []db.LedgerEntry, error) {
			assert.Equal(t, string(business.TransactionStatusVoided), arg.NewStatus)
			assert.Zero(t, arg.RefundedCents)
			require.Len(t, arg.Entries, len(original))
			for i, e := range arg.Entries {
				assert.Equal(t, original[i].AccountCode, e.AccountCode)
				assert.Equal(t, original[i].AmountCents, e.AmountCents)
				assert.Equal(t, string(business.EntryDirection(original[i].Direction).Opposite()), e.Direction)
			}
			assertBalanced(t, arg.Entries)
			assertBalanced(t, append(append([]db.LedgerEntry{}, original...), arg.Entries...))

			voided := txRow
			voided.Status = arg.NewStatus
			return voided, arg.Entries, nil
		})

	svc := NewTransactionService(queries, nil, nil, nil, notifier, TransactionServiceConfig{})

	result, err := svc.Void(context.Background(), transactionID)

	require.NoError(t, err)
	assert.Equal(t, business.TransactionStatusVoided, result.Transaction.Status)
	require.Len(t, notifier.events, 1)
	assert.Equal(t, EventTransactionVoided, notifier.events[0].Type)
}

func TestVoidRejectsUncommittedTransaction(t *testing.T) {
	transactionID := uuid.New()
	txRow := calculatedTransaction(transactionID)

	queries := mocks.NewMockQuerierForTest(t)
	queries.EXPECT().GetTransaction(gomock.Any(), transactionID).Return(txRow, nil)

	svc := NewTransactionService(queries, nil, nil, nil, nil, TransactionServiceConfig{})

	_, err := svc.Void(context.Background(), transactionID)

	require.Error(t, err)
	assert.Equal(t, CodeInvalidStateTransition, TaxErrorCode(err))
}

func TestRefundScalesTaxWithOriginalRates(t *testing.T) {
	transactionID := uuid.New()
	txRow := calculatedTransaction(transactionID)
	txRow.Status = string(business.TransactionStatusCommitted)

	notifier := &captureNotifier{}
	queries := mocks.NewMockQuerierForTest(t)
	queries.EXPECT().GetTransaction(gomock.Any(), transactionID).Return(txRow, nil)
	queries.EXPECT().ListCalculationLines(gomock.Any(), transactionID).Return(calculationLineRows(transactionID), nil)
	queries.EXPECT().ListLedgerAccounts(gomock.Any()).Return(ledgerAccountRows(), nil)
	queries.EXPECT().
		AppendCompensatingEntries(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, arg db.AppendCompensatingEntriesParams) (db.TaxTransaction, []db.LedgerEntry, error) {
			assert.Equal(t, string(business.TransactionStatusRefunded), arg.NewStatus)
			assert.Equal(t, int64(5000), arg.RefundedCents)
			// Proceeds pair + pairs for 5000*0.06=300 and 5000*0.01=50.
			require.Len(t, arg.Entries, 6)
			assertBalanced(t, arg.Entries)

			var taxRefund int64
			for _, e := range arg.Entries {
				if e.AccountCode == business.AccountTaxLiability {
					taxRefund += e.AmountCents
				}
			}
			assert.Equal(t, int64(350), taxRefund)

			refunded := txRow
			refunded.Status = arg.NewStatus
			refunded.RefundedCents = arg.RefundedCents
			return refunded, arg.Entries, nil
		})

	svc := NewTransactionService(queries, nil, nil, nil, notifier, TransactionServiceConfig{})

	result, err := svc.Refund(context.Background(), params.RefundParams{
		TransactionID: transactionID,
		AmountCents:   5000,
	})

	require.NoError(t, err)
	assert.Equal(t, business.TransactionStatusRefunded, result.Transaction.Status)
	require.Len(t, notifier.events, 1)
	assert.Equal(t, EventTransactionRefunded, notifier.events[0].Type)
}

func TestRefundRejectsAmountOverRefundableBalance(t *testing.T) {
	transactionID := uuid.New()
	txRow := calculatedTransaction(transactionID)
	txRow.Status = string(business.TransactionStatusRefunded)
	txRow.RefundedCents = 8000

	queries := mocks.NewMockQuerierForTest(t)
	queries.EXPECT().GetTransaction(gomock.Any(), transactionID).Return(txRow, nil)

	svc := NewTransactionService(queries, nil, nil, nil, nil, TransactionServiceConfig{})

	_, err := svc.Refund(context.Background(), params.RefundParams{
		TransactionID: transactionID,
		AmountCents:   3000,
	})

	require.Error(t, err)
	assert.Equal(t, CodeRefundAmountExceeded, TaxErrorCode(err))
}

func TestRefundRejectsUncommittedTransaction(t *testing.T) {
	transactionID := uuid.New()
	txRow := calculatedTransaction(transactionID)

	queries := mocks.NewMockQuerierForTest(t)
	queries.EXPECT().GetTransaction(gomock.Any(), transactionID).Return(txRow, nil)

	svc := NewTransactionService(queries, nil, nil, nil, nil, TransactionServiceConfig{})

	_, err := svc.Refund(context.Background(), params.RefundParams{
		TransactionID: transactionID,
		AmountCents:   1000,
	})

	require.Error(t, err)
	assert.Equal(t, CodeInvalidStateTransition, TaxErrorCode(err))
}
