// Package apierr implements the typed {code, message, details} error
// taxonomy the API surfaces to callers, replacing the bare status/message
// pairs internal/pkg.Error returns for endpoints that need to report a
// specific, actionable failure (DOMAIN_NOT_VERIFIED, RATE_LIMITED,
// SUPPRESSED, and friends).
package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Code is one of the taxonomy's error codes.
type Code string

const (
	// Validation
	CodeInvalidPayload     Code = "INVALID_PAYLOAD"
	CodeInvalidEmailFormat Code = "INVALID_EMAIL_FORMAT"
	CodeTemplateNotFound   Code = "TEMPLATE_NOT_FOUND"
	CodeMissingField       Code = "MISSING_FIELD"

	// Authorization
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	CodeForbidden       Code = "FORBIDDEN"
	CodeCrossTenant     Code = "CROSS_TENANT"

	// Policy
	CodeDomainNotVerified Code = "DOMAIN_NOT_VERIFIED"
	CodeSuppressed        Code = "SUPPRESSED"
	CodeRateLimited       Code = "RATE_LIMITED"
	CodeQuotaExceeded     Code = "QUOTA_EXCEEDED"

	// Upstream
	CodeDNSFailure    Code = "DNS_FAILURE"
	CodeSMTPTransient Code = "SMTP_TRANSIENT"
	CodeSMTPPermanent Code = "SMTP_PERMANENT"
	CodeTLSFailure    Code = "TLS_FAILURE"

	// Internal
	CodeStorageError Code = "STORAGE_ERROR"
	CodeQueueError   Code = "QUEUE_ERROR"
	CodeConfigError  Code = "CONFIG_ERROR"
)

// statusByCode maps each code onto the HTTP status propagation policy
// requires: validation/policy errors return immediately with a precise
// status, authorization errors never leak tenant detail, internal errors
// are a flat 500.
var statusByCode = map[Code]int{
	CodeInvalidPayload:     http.StatusBadRequest,
	CodeInvalidEmailFormat: http.StatusBadRequest,
	CodeTemplateNotFound:   http.StatusNotFound,
	CodeMissingField:       http.StatusBadRequest,

	CodeUnauthenticated: http.StatusUnauthorized,
	CodeForbidden:       http.StatusForbidden,
	CodeCrossTenant:     http.StatusForbidden,

	CodeDomainNotVerified: http.StatusUnprocessableEntity,
	CodeSuppressed:        http.StatusUnprocessableEntity,
	CodeRateLimited:       http.StatusTooManyRequests,
	CodeQuotaExceeded:     http.StatusTooManyRequests,

	CodeDNSFailure:    http.StatusBadGateway,
	CodeSMTPTransient: http.StatusBadGateway,
	CodeSMTPPermanent: http.StatusBadGateway,
	CodeTLSFailure:    http.StatusBadGateway,

	CodeStorageError: http.StatusInternalServerError,
	CodeQueueError:   http.StatusInternalServerError,
	CodeConfigError:  http.StatusInternalServerError,
}

// StatusFor returns the HTTP status for code, defaulting to 500 for an
// unrecognized code.
func StatusFor(code Code) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Error is a typed API error carrying a machine-readable code plus
// optional structured details (e.g. the DNS record a caller must add to
// fix a DOMAIN_NOT_VERIFIED failure).
type Error struct {
	Code    Code                   `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// New creates an Error with no details.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithDetails creates an Error carrying structured details.
func WithDetails(code Code, message string, details map[string]interface{}) *Error {
	return &Error{Code: code, Message: message, Details: details}
}

// Write serializes err to w as JSON with the status StatusFor(err.Code)
// prescribes.
func Write(w http.ResponseWriter, err *Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(StatusFor(err.Code))
	_ = json.NewEncoder(w).Encode(err)
}

// As reports whether err is (or wraps) an *Error, so handlers can
// distinguish a typed API error from an opaque internal one even after
// fmt.Errorf("...: %w", err) wrapping.
func As(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
