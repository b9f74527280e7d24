package responses

import (
	"time"

	"github.com/google/uuid"

	"taxengine-api/internal/types/business"
)

// TaxCalculationResult is the immutable, itemized outcome of one tax
// calculation, uniquely keyed by CalculationID.
type TaxCalculationResult struct {
	CalculationID    uuid.UUID                  `json:"calculation_id"`
	CorrelationID    string                     `json:"correlation_id,omitempty"`
	Status           business.TransactionStatus `json:"status"`
	Currency         string                     `json:"currency"`
	SubtotalCents    int64                      `json:"subtotal_cents"`
	TotalTaxCents    int64                      `json:"total_tax_cents"`
	TotalAmountCents int64                      `json:"total_amount_cents"`
	Lines            []business.TaxLineItem     `json:"lines"`
	BuyerAddress     *business.ValidatedAddress `json:"buyer_address,omitempty"`
	CalculatedAt     time.Time                  `json:"calculated_at"`
}

// TransactionResponse is the API view of a transaction's lifecycle row.
type TransactionResponse struct {
	ID               uuid.UUID                  `json:"id"`
	CorrelationID    string                     `json:"correlation_id,omitempty"`
	Status           business.TransactionStatus `json:"status"`
	AmountCents      int64                      `json:"amount_cents"`
	TotalTaxCents    int64                      `json:"total_tax_cents"`
	Currency         string                     `json:"currency"`
	ProductCategory  business.ProductCategory   `json:"product_category"`
	RefundedCents    int64                      `json:"refunded_cents,omitempty"`
	IdempotencyKey   *string                    `json:"idempotency_key,omitempty"`
	CreatedAt        time.Time                  `json:"created_at"`
	UpdatedAt        time.Time                  `json:"updated_at"`
}

// LedgerEntryResponse is the API view of one immutable ledger entry.
type LedgerEntryResponse struct {
	ID            uuid.UUID               `json:"id"`
	TransactionID uuid.UUID               `json:"transaction_id"`
	AccountCode   string                  `json:"account_code"`
	AmountCents   int64                   `json:"amount_cents"`
	Currency      string                  `json:"currency"`
	Direction     business.EntryDirection `json:"direction"`
	Description   string                  `json:"description,omitempty"`
	CreatedAt     time.Time               `json:"created_at"`
}

// CommitStatus distinguishes a fresh commit from an idempotent replay.
type CommitStatus string

const (
	CommitStatusCommitted CommitStatus = "committed"
	CommitStatusDuplicate CommitStatus = "duplicate"
)

// CommitResult is returned by commit, void and refund operations.
type CommitResult struct {
	Status        CommitStatus          `json:"status,omitempty"`
	Transaction   TransactionResponse   `json:"transaction"`
	LedgerEntries []LedgerEntryResponse `json:"ledger_entries"`
}
