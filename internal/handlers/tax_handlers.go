package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"taxengine-api/internal/types/business"
	"taxengine-api/internal/types/params"
)

// TaxHandler handles tax calculation and transaction lifecycle operations
type TaxHandler struct {
	common *CommonServices
}

// NewTaxHandler creates a new TaxHandler instance
func NewTaxHandler(common *CommonServices) *TaxHandler {
	return &TaxHandler{common: common}
}

// AddressRequest is the raw buyer address as submitted by the caller
type AddressRequest struct {
	Street1    string `json:"street1"`
	Street2    string `json:"street2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country" binding:"required"`
}

func (r AddressRequest) toBusiness() business.Address {
	return business.Address{
		Street1:    r.Street1,
		Street2:    r.Street2,
		City:       r.City,
		State:      r.State,
		PostalCode: r.PostalCode,
		Country:    r.Country,
	}
}

// BundleItemRequest is one constituent of a bundle sale
type BundleItemRequest struct {
	Description string `json:"description"`
	Category    string `json:"category" binding:"required"`
	AmountCents int64  `json:"amount_cents" binding:"required,gt=0"`
}

// CalculateTaxRequest represents the request body for a tax calculation
type CalculateTaxRequest struct {
	CorrelationID          string              `json:"correlation_id"`
	AmountCents            int64               `json:"amount_cents" binding:"required,gt=0"`
	Currency               string              `json:"currency" binding:"required,len=3"`
	ProductCategory        string              `json:"product_category" binding:"required"`
	BundleItems            []BundleItemRequest `json:"bundle_items,omitempty"`
	BuyerAddress           AddressRequest      `json:"buyer_address" binding:"required"`
	SellerJurisdictionHint string              `json:"seller_jurisdiction_hint,omitempty"`
	ExemptionCertificateID string              `json:"exemption_certificate_id,omitempty"`
}

// CommitTaxRequest identifies the calculation to commit
type CommitTaxRequest struct {
	CalculationID string `json:"calculation_id" binding:"required,uuid"`
}

// RefundTaxRequest represents the request body for a partial refund
type RefundTaxRequest struct {
	AmountCents int64 `json:"amount_cents" binding:"required,gt=0"`
}

// CalculateTax godoc
// @Summary      Calculate tax for a transaction
// @Description  Normalizes the buyer address, resolves jurisdictions and returns an itemized tax breakdown in calculated status
// @Tags         tax
// @Accept       json
// @Produce      json
// @Param        request  body      CalculateTaxRequest  true  "Transaction to quote"
// @Success      200      {object}  responses.TaxCalculationResult
// @Failure      400      {object}  ErrorResponse
// @Failure      422      {object}  ErrorResponse
// @Router       /tax/calculate [post]
func (h *TaxHandler) CalculateTax(c *gin.Context) {
	var req CalculateTaxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	category, err := business.ParseProductCategory(req.ProductCategory)
	if err != nil {
		sendError(c, http.StatusBadRequest, "Invalid product category", err)
		return
	}

	items := make([]business.BundleItem, 0, len(req.BundleItems))
	for _, item := range req.BundleItems {
		itemCategory, err := business.ParseProductCategory(item.Category)
		if err != nil {
			sendError(c, http.StatusBadRequest, "Invalid bundle item category", err)
			return
		}
		items = append(items, business.BundleItem{
			Description: item.Description,
			Category:    itemCategory,
			AmountCents: item.AmountCents,
		})
	}

	var certID *uuid.UUID
	if req.ExemptionCertificateID != "" {
		parsed, err := uuid.Parse(req.ExemptionCertificateID)
		if err != nil {
			sendError(c, http.StatusBadRequest, "Invalid exemption certificate ID", err)
			return
		}
		certID = &parsed
	}

	result, err := h.common.transactions.Calculate(c.Request.Context(), params.TaxCalculationParams{
		CorrelationID:          req.CorrelationID,
		AmountCents:            req.AmountCents,
		Currency:               req.Currency,
		ProductCategory:        category,
		BundleItems:            items,
		BuyerAddress:           req.BuyerAddress.toBusiness(),
		SellerJurisdictionHint: req.SellerJurisdictionHint,
		ExemptionCertificateID: certID,
	})
	if err != nil {
		handleServiceError(c, err, "Calculation failed")
		return
	}

	sendSuccess(c, http.StatusOK, result)
}

// CommitTax godoc
// @Summary      Commit a calculated transaction
// @Description  Durably commits a calculation and writes its balanced ledger entries. Replays with the same X-Idempotency-Key return the stored result.
// @Tags         tax
// @Accept       json
// @Produce      json
// @Param        X-Idempotency-Key  header    string            true  "Caller-supplied idempotency key"
// @Param        request            body      CommitTaxRequest  true  "Calculation to commit"
// @Success      200                {object}  responses.CommitResult
// @Failure      400                {object}  ErrorResponse
// @Failure      404                {object}  ErrorResponse
// @Failure      409                {object}  ErrorResponse
// @Router       /tax/commit [post]
func (h *TaxHandler) CommitTax(c *gin.Context) {
	idempotencyKey := c.GetHeader("X-Idempotency-Key")
	if idempotencyKey == "" {
		sendError(c, http.StatusBadRequest, "X-Idempotency-Key header is required", nil)
		return
	}

	var req CommitTaxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	calculationID, err := uuid.Parse(req.CalculationID)
	if err != nil {
		sendError(c, http.StatusBadRequest, "Invalid calculation ID", err)
		return
	}

	result, err := h.common.transactions.Commit(c.Request.Context(), params.CommitParams{
		CalculationID:  calculationID,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		handleServiceError(c, err, "Calculation not found")
		return
	}

	sendSuccess(c, http.StatusOK, result)
}

// VoidTax godoc
// @Summary      Void a committed transaction
// @Description  Fully reverses a committed transaction by appending compensating ledger entries
// @Tags         tax
// @Produce      json
// @Param        transaction_id  path      string  true  "Transaction ID"
// @Success      200             {object}  responses.CommitResult
// @Failure      400             {object}  ErrorResponse
// @Failure      404             {object}  ErrorResponse
// @Failure      409             {object}  ErrorResponse
// @Router       /tax/{transaction_id}/void [post]
func (h *TaxHandler) VoidTax(c *gin.Context) {
	transactionID, err := uuid.Parse(c.Param("transaction_id"))
	if err != nil {
		sendError(c, http.StatusBadRequest, "Invalid transaction ID", err)
		return
	}

	result, err := h.common.transactions.Void(c.Request.Context(), transactionID)
	if err != nil {
		handleServiceError(c, err, "Transaction not found")
		return
	}

	sendSuccess(c, http.StatusOK, result)
}

// RefundTax godoc
// @Summary      Refund part of a committed transaction
// @Description  Appends compensating entries for the refunded portion, recomputing tax with the originally captured rates
// @Tags         tax
// @Accept       json
// @Produce      json
// @Param        transaction_id  path      string            true  "Transaction ID"
// @Param        request         body      RefundTaxRequest  true  "Refund amount"
// @Success      200             {object}  responses.CommitResult
// @Failure      400             {object}  ErrorResponse
// @Failure      404             {object}  ErrorResponse
// @Failure      409             {object}  ErrorResponse
// @Failure      422             {object}  ErrorResponse
// @Router       /tax/{transaction_id}/refund [post]
func (h *TaxHandler) RefundTax(c *gin.Context) {
	transactionID, err := uuid.Parse(c.Param("transaction_id"))
	if err != nil {
		sendError(c, http.StatusBadRequest, "Invalid transaction ID", err)
		return
	}

	var req RefundTaxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	result, err := h.common.transactions.Refund(c.Request.Context(), params.RefundParams{
		TransactionID: transactionID,
		AmountCents:   req.AmountCents,
	})
	if err != nil {
		handleServiceError(c, err, "Transaction not found")
		return
	}

	sendSuccess(c, http.StatusOK, result)
}

// GetTransaction godoc
// @Summary      Get a transaction
// @Description  Returns the lifecycle row and ledger entries for a transaction
// @Tags         tax
// @Produce      json
// @Param        transaction_id  path      string  true  "Transaction ID"
// @Success      200             {object}  responses.CommitResult
// @Failure      404             {object}  ErrorResponse
// @Router       /tax/{transaction_id} [get]
func (h *TaxHandler) GetTransaction(c *gin.Context) {
	transactionID, err := uuid.Parse(c.Param("transaction_id"))
	if err != nil {
		sendError(c, http.StatusBadRequest, "Invalid transaction ID", err)
		return
	}

	result, err := h.common.transactions.Get(c.Request.Context(), transactionID)
	if err != nil {
		handleServiceError(c, err, "Transaction not found")
		return
	}

	sendSuccess(c, http.StatusOK, result)
}
