package params

import (
	"github.com/google/uuid"

	"taxengine-api/internal/types/business"
)

// TaxCalculationParams contains parameters for a tax calculation request.
type TaxCalculationParams struct {
	CorrelationID          string
	AmountCents            int64
	Currency               string
	ProductCategory        business.ProductCategory
	BundleItems            []business.BundleItem
	BuyerAddress           business.Address
	SellerJurisdictionHint string
	ExemptionCertificateID *uuid.UUID
}

// CommitParams identifies the calculation to commit and carries the
// caller-supplied idempotency key.
type CommitParams struct {
	CalculationID  uuid.UUID
	IdempotencyKey string
}

// RefundParams identifies the committed transaction to partially reverse.
type RefundParams struct {
	TransactionID uuid.UUID
	AmountCents   int64
}
