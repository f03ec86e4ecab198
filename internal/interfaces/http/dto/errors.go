package dto

import (
	"net/http"

	appintegration "github.com/erp/ordersync/internal/application/integration"
)

// Request-level error codes. Sync and lead failures use the codes reported
// by the application layer.
const (
	ErrCodeInternal        = "INTERNAL_ERROR"
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeInvalidJSON     = "INVALID_JSON"
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
	ErrCodeBatchTooLarge   = "BATCH_TOO_LARGE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:        http.StatusInternalServerError,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeNotFound:        http.StatusNotFound,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeBatchTooLarge:   http.StatusBadRequest,

	// The order or lead itself is unusable -> 400
	appintegration.CodeInvalidOrder: http.StatusBadRequest,
	appintegration.CodeNoLineItems:  http.StatusBadRequest,
	appintegration.CodeInvalidLead:  http.StatusBadRequest,

	// Well-formed input the ERP data cannot satisfy -> 422
	appintegration.CodeItemUnresolvable: http.StatusUnprocessableEntity,
	appintegration.CodeTotalsMismatch:   http.StatusUnprocessableEntity,
	appintegration.CodeCustomerNotFound: http.StatusUnprocessableEntity,

	appintegration.CodeSalesOrderMissing: http.StatusNotFound,

	// Upstream failures
	appintegration.CodeERPUnavailable:     http.StatusServiceUnavailable,
	appintegration.CodeERPRequestFailed:   http.StatusBadGateway,
	appintegration.CodeInvalidERPResponse: http.StatusBadGateway,

	appintegration.CodeCancelled:  http.StatusRequestTimeout,
	appintegration.CodeSyncFailed: http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
