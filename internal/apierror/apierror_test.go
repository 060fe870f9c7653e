package apierror

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAPIErrorError(t *testing.T) {
	err := NewAPIError(ErrInvalidCombination, "no price for rent/3-day", nil)
	assert.Equal(t, "INVALID_COMBINATION: no price for rent/3-day", err.Error())
}

func TestMapErrorToHTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrNotFound, http.StatusNotFound},
		{ErrConflict, http.StatusConflict},
		{ErrInvalidInput, http.StatusBadRequest},
		{ErrInvalidCombination, http.StatusBadRequest},
		{ErrInvalidDiscountCode, http.StatusBadRequest},
		{ErrPaymentCreationFailed, http.StatusPaymentRequired},
		{ErrPaymentFailed, http.StatusPaymentRequired},
		{ErrInternalServer, http.StatusInternalServerError},
		{ErrorCode("UNKNOWN"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, MapErrorToHTTPStatus(APIError{Code: tt.code}), string(tt.code))
	}

	assert.Equal(t, http.StatusInternalServerError, MapErrorToHTTPStatus(errors.New("plain error")))
}
