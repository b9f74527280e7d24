package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TaxJurisdiction is one row of the compliance-maintained jurisdiction
// reference table. RateRequired marks jurisdictions whose missing rate is a
// fatal calculation error (states); optional levels simply contribute no
// tax line when unconfigured.
type TaxJurisdiction struct {
	ID               uuid.UUID
	JurisdictionType string
	Name             string
	Code             string
	StateCode        string
	AreaCode         *string
	ParentID         *uuid.UUID
	RateRequired     bool
}

// TaxRate is one configured rate for a jurisdiction and product category
// within an effective window.
type TaxRate struct {
	ID              uuid.UUID
	JurisdictionID  uuid.UUID
	ProductCategory string
	Rate            decimal.Decimal
	EffectiveFrom   time.Time
	EffectiveTo     *time.Time
}

// ExemptionCertificate mirrors the read-only certificate registry.
type ExemptionCertificate struct {
	ID               uuid.UUID
	JurisdictionCode string
	Status           string
	ValidFrom        time.Time
	ValidTo          time.Time
}

// TaxTransaction is the lifecycle row owned by the transaction service.
type TaxTransaction struct {
	ID              uuid.UUID
	CorrelationID   string
	IdempotencyKey  *string
	Status          string
	AmountCents     int64
	TotalTaxCents   int64
	RefundedCents   int64
	Currency        string
	ProductCategory string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TaxCalculationLine is one persisted row of a calculation's breakdown.
type TaxCalculationLine struct {
	ID                     uuid.UUID
	TransactionID          uuid.UUID
	JurisdictionID         uuid.UUID
	JurisdictionCode       string
	JurisdictionType       string
	Rate                   decimal.Decimal
	TaxableAmountCents     int64
	TaxAmountCents         int64
	ExemptionCertificateID *uuid.UUID
	Description            string
	CreatedAt              time.Time
}

// LedgerEntry is append-only: never updated or deleted once written.
type LedgerEntry struct {
	ID            uuid.UUID
	TransactionID uuid.UUID
	AccountCode   string
	AmountCents   int64
	Currency      string
	Direction     string
	Description   string
	CreatedAt     time.Time
}

// LedgerAccount is one row of the chart of accounts.
type LedgerAccount struct {
	Code        string
	Name        string
	AccountType string
	IsActive    bool
}

// IdempotencyRecord maps a caller-supplied key to the transaction that
// claimed it. Write-once.
type IdempotencyRecord struct {
	Key           string
	TransactionID uuid.UUID
	CreatedAt     time.Time
}
