package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"taxengine-api/internal/client/addressval"
	"taxengine-api/internal/logger"
	"taxengine-api/internal/types/business"
)

// Confidence threshold a provider must reach for the address to count as
// validated.
const validationConfidenceThreshold = 0.7

// Degraded confidence levels when the provider chain fails: some provider
// responded but below threshold vs. nothing responded at all.
const (
	degradedConfidenceResponded = 0.3
	degradedConfidenceSilent    = 0.1
)

// AddressNormalizerConfig is an explicit, immutable configuration value;
// provider priority is fixed at construction (per-tenant overrides build a
// separate normalizer).
type AddressNormalizerConfig struct {
	Providers       []addressval.Provider // tried in order
	CacheTTL        time.Duration
	ProviderTimeout time.Duration
}

// AddressService canonicalizes raw mailing addresses through an ordered
// chain of external validators, caching results under a canonical hash.
type AddressService struct {
	cfg    AddressNormalizerConfig
	cache  Cache
	logger *zap.Logger
}

// NewAddressService creates a new address normalizer.
func NewAddressService(cfg AddressNormalizerConfig, cache Cache) *AddressService {
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 24 * time.Hour
	}
	if cfg.ProviderTimeout == 0 {
		cfg.ProviderTimeout = 3 * time.Second
	}
	return &AddressService{
		cfg:    cfg,
		cache:  cache,
		logger: logger.Log,
	}
}

// Normalize produces a ValidatedAddress for any input. It never fails for
// malformed input or provider outages; it degrades to a low-confidence,
// unvalidated record instead. The only error returned is context
// cancellation.
func (s *AddressService) Normalize(ctx context.Context, address business.Address) (*business.ValidatedAddress, error) {
	key := "addr:" + CanonicalAddressHash(address)

	if cached, ok := s.cache.Get(ctx, key); ok {
		var out business.ValidatedAddress
		if err := json.Unmarshal(cached, &out); err == nil {
			return &out, nil
		}
		// A corrupt cache entry is treated as a miss.
		s.logger.Warn("Discarding unreadable cached address", zap.String("key", key))
	}

	anyResponded := false
	var result *business.ValidatedAddress

	for _, provider := range s.cfg.Providers {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		providerCtx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
		verdict, err := provider.Validate(providerCtx, address)
		cancel()

		if err != nil {
			// Timeouts and provider errors are a try-next-provider signal,
			// never surfaced to the caller.
			s.logger.Warn("Address provider failed",
				zap.String("provider", provider.Name()),
				zap.Error(err))
			continue
		}

		anyResponded = true
		if verdict.Confidence >= validationConfidenceThreshold {
			result = &business.ValidatedAddress{
				ID:          uuid.New(),
				Address:     verdict.Normalized,
				Latitude:    verdict.Latitude,
				Longitude:   verdict.Longitude,
				AreaCode:    verdict.AreaCode,
				Confidence:  verdict.Confidence,
				Validated:   true,
				Provider:    provider.Name(),
				ValidatedAt: time.Now(),
			}
			break
		}

		s.logger.Debug("Address provider below confidence threshold",
			zap.String("provider", provider.Name()),
			zap.Float64("confidence", verdict.Confidence))
	}

	if result == nil {
		confidence := degradedConfidenceSilent
		if anyResponded {
			confidence = degradedConfidenceResponded
		}
		result = &business.ValidatedAddress{
			ID:          uuid.New(),
			Address:     address,
			Confidence:  confidence,
			Validated:   false,
			Provider:    "",
			ValidatedAt: time.Now(),
		}
		s.logger.Info("Address normalization degraded",
			zap.Bool("any_provider_responded", anyResponded),
			zap.Float64("confidence", confidence))
	}

	if encoded, err := json.Marshal(result); err == nil {
		s.cache.Set(ctx, key, encoded, s.cfg.CacheTTL)
	}

	return result, nil
}

// CanonicalAddressHash computes a stable hash of an address with case,
// whitespace and punctuation normalized away, so trivially different
// spellings share a cache slot.
func CanonicalAddressHash(address business.Address) string {
	parts := []string{
		address.Street1,
		address.Street2,
		address.City,
		address.State,
		address.PostalCode,
		address.Country,
	}
	var b strings.Builder
	for _, part := range parts {
		lastWasSpace := false
		for _, r := range strings.ToLower(strings.TrimSpace(part)) {
			switch {
			case unicode.IsLetter(r) || unicode.IsDigit(r):
				b.WriteRune(r)
				lastWasSpace = false
			case unicode.IsSpace(r):
				if !lastWasSpace {
					b.WriteByte(' ')
					lastWasSpace = true
				}
			}
			// Punctuation is dropped.
		}
		b.WriteByte('|')
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
