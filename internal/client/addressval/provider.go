// Package addressval defines the address-validation provider boundary.
// Providers are tried in priority order by the address normalizer; the
// concrete implementations here speak JSON over the guarded HTTP client so
// a test double can be substituted without touching normalization logic.
package addressval

import (
	"context"

	"taxengine-api/internal/types/business"
)

// Result is a single provider's verdict on an address.
type Result struct {
	Normalized business.Address
	AreaCode   string
	Latitude   *float64
	Longitude  *float64
	Confidence float64 // 0.0 to 1.0
}

// Provider validates one raw address. Implementations must honor the
// context deadline; errors are treated by the caller as a try-next-provider
// signal, never surfaced to API callers.
type Provider interface {
	Name() string
	Validate(ctx context.Context, address business.Address) (*Result, error)
}
