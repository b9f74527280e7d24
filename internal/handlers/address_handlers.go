package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// AddressHandler handles address validation and jurisdiction resolution
type AddressHandler struct {
	common *CommonServices
}

// NewAddressHandler creates a new AddressHandler instance
func NewAddressHandler(common *CommonServices) *AddressHandler {
	return &AddressHandler{common: common}
}

// ValidateAddressRequest represents the request body for address validation
type ValidateAddressRequest struct {
	Address                AddressRequest `json:"address" binding:"required"`
	SellerJurisdictionHint string         `json:"seller_jurisdiction_hint,omitempty"`
}

// ValidateAddress godoc
// @Summary      Validate and normalize an address
// @Description  Runs the address through the provider chain and returns the normalized record with its confidence score. Provider outages degrade the confidence instead of failing.
// @Tags         address
// @Accept       json
// @Produce      json
// @Param        request  body      ValidateAddressRequest  true  "Address to validate"
// @Success      200      {object}  business.ValidatedAddress
// @Failure      400      {object}  ErrorResponse
// @Router       /address/validate [post]
func (h *AddressHandler) ValidateAddress(c *gin.Context) {
	var req ValidateAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	validated, err := h.common.addresses.Normalize(c.Request.Context(), req.Address.toBusiness())
	if err != nil {
		handleServiceError(c, err, "Address validation failed")
		return
	}

	sendSuccess(c, http.StatusOK, validated)
}

// ResolveJurisdictions godoc
// @Summary      Resolve taxing jurisdictions for an address
// @Description  Normalizes the address and returns the applicable jurisdictions ordered highest-authority first
// @Tags         address
// @Accept       json
// @Produce      json
// @Param        request  body      ValidateAddressRequest  true  "Address to resolve"
// @Success      200      {array}   business.Jurisdiction
// @Failure      400      {object}  ErrorResponse
// @Failure      422      {object}  ErrorResponse
// @Router       /address/resolve-jurisdictions [post]
func (h *AddressHandler) ResolveJurisdictions(c *gin.Context) {
	var req ValidateAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	validated, err := h.common.addresses.Normalize(c.Request.Context(), req.Address.toBusiness())
	if err != nil {
		handleServiceError(c, err, "Address validation failed")
		return
	}

	jurisdictions, err := h.common.jurisdictions.Resolve(c.Request.Context(), validated, req.SellerJurisdictionHint)
	if err != nil {
		handleServiceError(c, err, "Jurisdiction resolution failed")
		return
	}

	sendSuccess(c, http.StatusOK, jurisdictions)
}
