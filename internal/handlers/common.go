package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"taxengine-api/internal/logger"
	"taxengine-api/internal/services"
)

// CommonServices holds common dependencies used across handlers
type CommonServices struct {
	transactions  *services.TransactionService
	addresses     *services.AddressService
	jurisdictions *services.JurisdictionService
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Code  string `json:"code,omitempty"`
	Error string `json:"error"`
}

// SuccessResponse represents a standard success response
type SuccessResponse struct {
	Message string `json:"message"`
}

// NewCommonServices creates a new instance of CommonServices
func NewCommonServices(transactions *services.TransactionService, addresses *services.AddressService, jurisdictions *services.JurisdictionService) *CommonServices {
	return &CommonServices{
		transactions:  transactions,
		addresses:     addresses,
		jurisdictions: jurisdictions,
	}
}

// sendError is a helper function that combines logging and error response
// It logs the error with the given message and sends a JSON error response
func sendError(c *gin.Context, statusCode int, message string, err error) {
	logger.Error(message,
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
	)
	c.JSON(statusCode, ErrorResponse{Error: message})
}

// statusForCode maps stable domain error codes to HTTP statuses.
func statusForCode(code string) int {
	switch code {
	case services.CodeCalculationNotFound:
		return http.StatusNotFound
	case services.CodeInvalidStateTransition:
		return http.StatusConflict
	case services.CodeAmountLimitExceeded,
		services.CodeLedgerValidationError:
		return http.StatusBadRequest
	case services.CodeJurisdictionResolutionError,
		services.CodeRateResolutionError,
		services.CodeRefundAmountExceeded:
		return http.StatusUnprocessableEntity
	case services.CodeSSRFBlocked:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// handleServiceError maps a service failure to an HTTP response. Domain
// errors keep their stable code in the body; everything else is a 500 with
// the details confined to the logs.
func handleServiceError(c *gin.Context, err error, fallbackMsg string) {
	var te *services.TaxError
	if errors.As(err, &te) {
		logger.Warn(te.Message,
			zap.String("code", te.Code),
			zap.Error(err),
			zap.String("path", c.Request.URL.Path),
		)
		c.JSON(statusForCode(te.Code), ErrorResponse{Code: te.Code, Error: te.Message})
		return
	}
	if errors.Is(err, pgx.ErrNoRows) {
		sendError(c, http.StatusNotFound, fallbackMsg, err)
		return
	}
	sendError(c, http.StatusInternalServerError, "Internal server error", err)
}

// sendSuccess is a helper function that sends a success response
func sendSuccess(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}
