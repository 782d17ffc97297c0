// Package errors provides standardized error handling for the policy
// acknowledgement engine.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Acknowledgement endpoint (client input) errors
	ErrCodeMissingPayload        ErrorCode = "MISSING_PAYLOAD"
	ErrCodeMalformedPayload      ErrorCode = "MALFORMED_PAYLOAD"
	ErrCodeInvalidPayload        ErrorCode = "INVALID_PAYLOAD"
	ErrCodeUnknownRecipient      ErrorCode = "UNKNOWN_RECIPIENT"
	ErrCodeNoSuchAcknowledgement ErrorCode = "NO_SUCH_ACKNOWLEDGEMENT"

	// Infrastructure errors
	ErrCodeTransportError   ErrorCode = "TRANSPORT_ERROR"
	ErrCodeStorageError     ErrorCode = "STORAGE_ERROR"
	ErrCodeParaphraseFailed ErrorCode = "PARAPHRASE_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// CodeOf extracts the error code from any error, defaulting to STORAGE_ERROR
// territory only for genuinely unknown failures.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code
	}
	return "INTERNAL_ERROR"
}

// HTTPStatus maps an error code to the status the acknowledgement endpoint
// returns for it.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeMissingPayload, ErrCodeMalformedPayload, ErrCodeInvalidPayload:
		return http.StatusBadRequest
	case ErrCodeUnknownRecipient, ErrCodeNoSuchAcknowledgement:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// ==========================
// 2. Error Constructors
// ==========================

// NewMissingPayloadError reports a link click without a data parameter.
func NewMissingPayloadError() *StandardError {
	return &StandardError{
		Code:      ErrCodeMissingPayload,
		Message:   "Invalid acknowledgement link - missing data parameter",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMalformedPayloadError reports a token that could not be decoded.
func NewMalformedPayloadError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeMalformedPayload,
		Message:   "Invalid acknowledgement link - corrupted data",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidPayloadError reports a decoded token with missing or out-of-range
// fields.
func NewInvalidPayloadError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidPayload,
		Message:   "Invalid acknowledgement link - missing required data",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnknownRecipientError reports a contact address with no matching employee.
func NewUnknownRecipientError(email string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnknownRecipient,
		Message:   "Employee not found",
		Details:   fmt.Sprintf("email: %s", email),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNoSuchAcknowledgementError reports an update that matched no ledger row.
func NewNoSuchAcknowledgementError(policyID, employeeID int64) *StandardError {
	return &StandardError{
		Code:      ErrCodeNoSuchAcknowledgement,
		Message:   "No acknowledgement entry for this policy and employee",
		Details:   fmt.Sprintf("policyId: %d, employeeId: %d", policyID, employeeID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTransportError reports a per-recipient mail delivery failure.
func NewTransportError(email string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTransportError,
		Message:   "Mail delivery failed",
		Details:   err.Error(),
		Retryable: true,
		Metadata:  map[string]interface{}{"email": email},
		Timestamp: time.Now().UTC(),
	}
}

// NewStorageError reports a database failure, fatal for the operation in flight.
func NewStorageError(op string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStorageError,
		Message:   "Database operation failed",
		Details:   fmt.Sprintf("op: %s, error: %s", op, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewParaphraseFailedError reports a text-generation collaborator failure.
func NewParaphraseFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeParaphraseFailed,
		Message:   "Policy paraphrasing failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}
