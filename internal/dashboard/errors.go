package dashboard

import (
	"errors"
	"net/http"

	"gateway-dashboard/internal/analytics"
	"gateway-dashboard/internal/dataset"
)

const (
	KindOK             = "ok"
	KindMissingInput   = "missing_input"
	KindSchemaMismatch = "schema_mismatch"
	KindBadRequest     = "bad_request"
	KindNotAvailable   = "not_available"
	KindInternal       = "internal"
)

// ErrorKind names the failure class of err for metrics and responses.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return KindOK
	case errors.Is(err, dataset.ErrMissingInput):
		return KindMissingInput
	case errors.Is(err, dataset.ErrSchemaMismatch):
		return KindSchemaMismatch
	case errors.Is(err, analytics.ErrInvalidThreshold), errors.Is(err, analytics.ErrOutOfRange):
		return KindBadRequest
	case errors.Is(err, analytics.ErrNotAvailable):
		return KindNotAvailable
	default:
		return KindInternal
	}
}

// StatusCode maps a failure class onto an HTTP status.
func StatusCode(err error) int {
	switch ErrorKind(err) {
	case KindOK:
		return http.StatusOK
	case KindSchemaMismatch:
		return http.StatusUnprocessableEntity
	case KindBadRequest:
		return http.StatusBadRequest
	case KindNotAvailable:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
