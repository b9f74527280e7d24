package addressval

import (
	"context"
	"net/http"

	"github.com/pkg/errors"

	httpclient "taxengine-api/internal/client/http"
	"taxengine-api/internal/types/business"
)

// validateRequest is the wire format shared by the supported validation
// providers (they expose compatible JSON endpoints behind per-provider
// base URLs).
type validateRequest struct {
	Street1    string `json:"street1"`
	Street2    string `json:"street2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type validateResponse struct {
	Street1    string   `json:"street1"`
	Street2    string   `json:"street2"`
	City       string   `json:"city"`
	State      string   `json:"state"`
	PostalCode string   `json:"postal_code"`
	Country    string   `json:"country"`
	AreaCode   string   `json:"area_code"`
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
	Confidence float64  `json:"confidence"`
}

// HTTPProvider calls an external address-validation API.
type HTTPProvider struct {
	name   string
	client *httpclient.HTTPClient
	apiKey string
}

// NewHTTPProvider creates a provider named name that posts to
// client's base URL. The API key is sent as an x-api-key header.
func NewHTTPProvider(name string, client *httpclient.HTTPClient, apiKey string) *HTTPProvider {
	return &HTTPProvider{
		name:   name,
		client: client,
		apiKey: apiKey,
	}
}

// Name returns the provider's configured name.
func (p *HTTPProvider) Name() string {
	return p.name
}

// Validate posts the address to the provider and maps its response.
func (p *HTTPProvider) Validate(ctx context.Context, address business.Address) (*Result, error) {
	req := validateRequest{
		Street1:    address.Street1,
		Street2:    address.Street2,
		City:       address.City,
		State:      address.State,
		PostalCode: address.PostalCode,
		Country:    address.Country,
	}

	opts := []httpclient.RequestOption{}
	if p.apiKey != "" {
		opts = append(opts, httpclient.WithHeader("x-api-key", p.apiKey))
	}

	resp, err := p.client.Post(ctx, "/v1/validate", req, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "provider %s request failed", p.name)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, errors.Errorf("provider %s returned status %d", p.name, resp.StatusCode)
	}

	var out validateResponse
	if err := p.client.ProcessJSONResponse(resp, &out); err != nil {
		return nil, errors.Wrapf(err, "provider %s returned malformed response", p.name)
	}

	// Clamp provider-reported confidence into the documented range rather
	// than trusting the upstream blindly.
	confidence := out.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return &Result{
		Normalized: business.Address{
			Street1:    out.Street1,
			Street2:    out.Street2,
			City:       out.City,
			State:      out.State,
			PostalCode: out.PostalCode,
			Country:    out.Country,
		},
		AreaCode:   out.AreaCode,
		Latitude:   out.Latitude,
		Longitude:  out.Longitude,
		Confidence: confidence,
	}, nil
}
