package business

import (
	"time"

	"github.com/google/uuid"
)

// Address represents a raw mailing address as submitted by the caller.
// It is never mutated after submission; normalization produces a
// ValidatedAddress instead.
type Address struct {
	Street1    string `json:"street1"`
	Street2    string `json:"street2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// ValidatedAddress is the normalizer's view of an address. Validated is
// false when no provider reached the confidence threshold; the record is
// still usable for jurisdiction resolution via the state field.
type ValidatedAddress struct {
	ID          uuid.UUID `json:"id"`
	Address     Address   `json:"address"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	AreaCode    string    `json:"area_code,omitempty"` // governmental area code, e.g. county FIPS
	Confidence  float64   `json:"confidence"`          // 0.0 to 1.0
	Validated   bool      `json:"validated"`
	Provider    string    `json:"provider"`
	ValidatedAt time.Time `json:"validated_at"`
}
