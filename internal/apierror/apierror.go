package apierror

import (
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
)

type ErrorCode string

const (
	ErrNotFound       ErrorCode = "NOT_FOUND"
	ErrConflict       ErrorCode = "CONFLICT"
	ErrBadRequest     ErrorCode = "BAD_REQUEST"
	ErrInvalidInput   ErrorCode = "INVALID_INPUT"
	ErrInternalServer ErrorCode = "INTERNAL_SERVER_ERROR"

	// Listing monetization taxonomy. InvalidCombination and InvalidDiscount
	// are recovered locally with a user-facing message; the payment errors
	// are surfaced with a retry affordance. Verification ambiguity is never
	// an error (it is absorbed by the gateway adapter).
	ErrInvalidCombination    ErrorCode = "INVALID_COMBINATION"
	ErrInvalidDiscountCode   ErrorCode = "INVALID_DISCOUNT_CODE"
	ErrPaymentCreationFailed ErrorCode = "PAYMENT_CREATION_FAILED"
	ErrPaymentFailed         ErrorCode = "PAYMENT_FAILED"
)

type APIError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (e APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewAPIError(code ErrorCode, message string, details interface{}) APIError {
	logrus.Error(details)
	return APIError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

func MapErrorToHTTPStatus(err error) int {
	if apiErr, ok := err.(APIError); ok {
		switch apiErr.Code {
		case ErrNotFound:
			return http.StatusNotFound
		case ErrConflict:
			return http.StatusConflict
		case ErrBadRequest, ErrInvalidInput, ErrInvalidCombination, ErrInvalidDiscountCode:
			return http.StatusBadRequest
		case ErrPaymentCreationFailed, ErrPaymentFailed:
			return http.StatusPaymentRequired
		case ErrInternalServer:
			return http.StatusInternalServerError
		default:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}
