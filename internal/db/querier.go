package db

import (
	"context"

	"github.com/google/uuid"
)

// Querier is the storage interface the services depend on. A mock
// implementation lives in internal/mocks.
type Querier interface {
	GetJurisdictionsByAreaCode(ctx context.Context, arg GetJurisdictionsByAreaCodeParams) ([]TaxJurisdiction, error)
	GetStateJurisdiction(ctx context.Context, stateCode string) (TaxJurisdiction, error)
	GetTaxRate(ctx context.Context, arg GetTaxRateParams) (TaxRate, error)
	GetExemptionCertificate(ctx context.Context, id uuid.UUID) (ExemptionCertificate, error)

	GetTransaction(ctx context.Context, id uuid.UUID) (TaxTransaction, error)
	GetTransactionByIdempotencyKey(ctx context.Context, key string) (TaxTransaction, error)
	ListCalculationLines(ctx context.Context, transactionID uuid.UUID) ([]TaxCalculationLine, error)
	ListLedgerEntriesByTransaction(ctx context.Context, transactionID uuid.UUID) ([]LedgerEntry, error)
	ListLedgerAccounts(ctx context.Context) ([]LedgerAccount, error)

	// Multi-statement operations; each runs in a single database
	// transaction so partial state is never observable. The commit claims
	// the idempotency key in the same transaction; the bool reports whether
	// the claim was won.
	SaveCalculation(ctx context.Context, arg SaveCalculationParams) (TaxTransaction, error)
	CommitTransactionWithEntries(ctx context.Context, arg CommitTransactionWithEntriesParams) (TaxTransaction, []LedgerEntry, bool, error)
	AppendCompensatingEntries(ctx context.Context, arg AppendCompensatingEntriesParams) (TaxTransaction, []LedgerEntry, error)
}

var _ Querier = (*Queries)(nil)
