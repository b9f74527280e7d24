package business

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// JurisdictionType identifies the level of a taxing authority.
type JurisdictionType string

const (
	JurisdictionTypeNational JurisdictionType = "national"
	JurisdictionTypeState    JurisdictionType = "state"
	JurisdictionTypeCounty   JurisdictionType = "county"
	JurisdictionTypeCity     JurisdictionType = "city"
	JurisdictionTypeSpecial  JurisdictionType = "special_district"
)

// ParseJurisdictionType rejects unknown jurisdiction types at the boundary.
func ParseJurisdictionType(s string) (JurisdictionType, error) {
	switch JurisdictionType(s) {
	case JurisdictionTypeNational, JurisdictionTypeState, JurisdictionTypeCounty,
		JurisdictionTypeCity, JurisdictionTypeSpecial:
		return JurisdictionType(s), nil
	}
	return "", fmt.Errorf("unknown jurisdiction type: %q", s)
}

// Rank orders jurisdictions highest-authority first (state before county
// before city before special districts).
func (t JurisdictionType) Rank() int {
	switch t {
	case JurisdictionTypeNational:
		return 0
	case JurisdictionTypeState:
		return 1
	case JurisdictionTypeCounty:
		return 2
	case JurisdictionTypeCity:
		return 3
	case JurisdictionTypeSpecial:
		return 4
	}
	return 5
}

// Jurisdiction represents one taxing authority. ParentID is a
// back-reference only; a jurisdiction never owns its parent.
type Jurisdiction struct {
	ID       uuid.UUID        `json:"id"`
	Type     JurisdictionType `json:"type"`
	Name     string           `json:"name"`
	Code     string           `json:"code"`
	AreaCode *string          `json:"area_code,omitempty"`
	ParentID *uuid.UUID       `json:"parent_id,omitempty"`
	// RateRequired marks jurisdictions whose missing rate is a fatal
	// calculation error rather than a skipped line.
	RateRequired bool `json:"rate_required,omitempty"`
}

// ProductCategory is the closed set of taxable product categories.
type ProductCategory string

const (
	CategorySubscription ProductCategory = "subscription"
	CategoryDigitalGood  ProductCategory = "digital_good"
	CategoryTip          ProductCategory = "tip"
	CategoryBundle       ProductCategory = "bundle"
	CategoryGift         ProductCategory = "gift"
)

// ParseProductCategory rejects unknown categories at the boundary rather
// than deep in calculation logic.
func ParseProductCategory(s string) (ProductCategory, error) {
	switch ProductCategory(s) {
	case CategorySubscription, CategoryDigitalGood, CategoryTip, CategoryBundle, CategoryGift:
		return ProductCategory(s), nil
	}
	return "", fmt.Errorf("unknown product category: %q", s)
}

// ZeroRated reports whether a category is recorded but never taxed.
// Tips and peer-to-peer gifts produce zero-amount audit lines.
func (c ProductCategory) ZeroRated() bool {
	return c == CategoryTip || c == CategoryGift
}

// BundleItem is one constituent of a bundle sale. The taxable base of the
// bundle is apportioned across items by their listed sub-prices.
type BundleItem struct {
	Description string          `json:"description"`
	Category    ProductCategory `json:"category"`
	AmountCents int64           `json:"amount_cents"`
}

// TaxLineItem is one row of a tax breakdown: a single jurisdiction's levy
// against the transaction.
type TaxLineItem struct {
	JurisdictionID         uuid.UUID        `json:"jurisdiction_id"`
	JurisdictionCode       string           `json:"jurisdiction_code"`
	JurisdictionType       JurisdictionType `json:"jurisdiction_type"`
	Rate                   decimal.Decimal  `json:"rate"`
	TaxableAmountCents     int64            `json:"taxable_amount_cents"`
	TaxAmountCents         int64            `json:"tax_amount_cents"`
	ExemptionCertificateID *uuid.UUID       `json:"exemption_certificate_id,omitempty"`
	Description            string           `json:"description,omitempty"`
}

// CertificateStatus is the lifecycle status of an exemption certificate.
type CertificateStatus string

const (
	CertificateStatusValid   CertificateStatus = "valid"
	CertificateStatusRevoked CertificateStatus = "revoked"
	CertificateStatusExpired CertificateStatus = "expired"
)

// ExemptionCertificate is consumed read-only from the certificate
// registry. A certificate scoped to a state applies to every jurisdiction
// resolved under that state; otherwise it applies only to the jurisdiction
// whose code matches its scope exactly.
type ExemptionCertificate struct {
	ID               uuid.UUID         `json:"id"`
	JurisdictionCode string            `json:"jurisdiction_code"`
	Status           CertificateStatus `json:"status"`
	ValidFrom        time.Time         `json:"valid_from"`
	ValidTo          time.Time         `json:"valid_to"`
}

// Covers reports whether the certificate authorizes tax-free treatment for
// the given jurisdiction at the given transaction time.
func (c *ExemptionCertificate) Covers(j Jurisdiction, stateCode string, at time.Time) bool {
	if c.Status != CertificateStatusValid {
		return false
	}
	if at.Before(c.ValidFrom) || at.After(c.ValidTo) {
		return false
	}
	return c.JurisdictionCode == j.Code || c.JurisdictionCode == stateCode
}
