package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"taxengine-api/internal/services"
)

func TestStatusForCode(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{services.CodeAmountLimitExceeded, http.StatusBadRequest},
		{services.CodeLedgerValidationError, http.StatusBadRequest},
		{services.CodeCalculationNotFound, http.StatusNotFound},
		{services.CodeInvalidStateTransition, http.StatusConflict},
		{services.CodeJurisdictionResolutionError, http.StatusUnprocessableEntity},
		{services.CodeRateResolutionError, http.StatusUnprocessableEntity},
		{services.CodeRefundAmountExceeded, http.StatusUnprocessableEntity},
		{services.CodeSSRFBlocked, http.StatusBadGateway},
		{"UNMAPPED_CODE", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, statusForCode(tt.code))
		})
	}
}
