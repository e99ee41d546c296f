package game

import (
	"time"

	"github.com/samber/oops"

	"github.com/davrodpin/scoundrel/internal/integrity"
	"github.com/davrodpin/scoundrel/internal/scoundrel"
)

// Error codes returned by the Manager.
const (
	CodeIllegalAction      = scoundrel.CodeIllegalAction
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeRateLimited        = "RATE_LIMITED"
	CodeTimestampDrift     = "TIMESTAMP_DRIFT"
	CodeSequenceMismatch   = "SEQUENCE_MISMATCH"
	CodeIntegrityViolation = integrity.CodeViolation
	CodeSessionNotFound    = "SESSION_NOT_FOUND"
	CodeStoreError         = "STORE_ERROR"
)

const (
	msgRateLimited      = "Rate limit exceeded. Please wait before performing more actions."
	msgTimestampDrift   = "Action timestamp is too far from server time"
	msgSequenceMismatch = "Invalid action sequence number"
	msgIntegrity        = "Game state integrity violation detected"
	msgNotFound         = "Game session not found or has expired"
	msgStore            = "Game storage is temporarily unavailable. Please retry."
	msgUnknown          = "Something went wrong. Try again."
)

// ErrInvalidRequest creates an error for a malformed request.
func ErrInvalidRequest(reason string) error {
	return oops.Code(CodeInvalidRequest).
		With("reason", reason).
		Errorf("%s", reason)
}

// ErrRateLimited creates an error for a session over its action budget.
func ErrRateLimited(count, limit int, window time.Duration) error {
	return oops.Code(CodeRateLimited).
		With("count", count).
		With("limit", limit).
		With("window", window.String()).
		Errorf(msgRateLimited)
}

// ErrTimestampDrift creates an error for an action stamped too far from
// server time.
func ErrTimestampDrift(drift, limit time.Duration) error {
	return oops.Code(CodeTimestampDrift).
		With("drift", drift.String()).
		With("limit", limit.String()).
		Errorf(msgTimestampDrift)
}

// ErrSequenceMismatch creates an error for an out-of-order or replayed
// action.
func ErrSequenceMismatch(expected, got int64) error {
	return oops.Code(CodeSequenceMismatch).
		With("expected", expected).
		With("got", got).
		Errorf(msgSequenceMismatch)
}

// ErrSessionNotFound creates an error for a missing or expired session.
func ErrSessionNotFound(id string) error {
	return oops.Code(CodeSessionNotFound).
		With("session_id", id).
		Errorf(msgNotFound)
}

// ErrIntegrityViolation creates the fatal error raised when a stored state
// fails its checksum.
func ErrIntegrityViolation(id string, cause error) error {
	return oops.Code(CodeIntegrityViolation).
		With("session_id", id).
		Wrapf(cause, msgIntegrity)
}

// StoreError wraps a persistence failure.
func StoreError(op, id string, cause error) error {
	return oops.Code(CodeStoreError).
		With("operation", op).
		With("session_id", id).
		Wrapf(cause, "store %s", op)
}

// ErrorCode returns the code carried by err, or "" for uncoded errors.
func ErrorCode(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	code, _ := oopsErr.Code().(string)
	return code
}

// PublicMessage returns the text shown to the client for err. Internal
// details never leak through it.
func PublicMessage(err error) string {
	if err == nil {
		return msgUnknown
	}
	switch ErrorCode(err) {
	case CodeIllegalAction, CodeInvalidRequest:
		if oopsErr, ok := oops.AsOops(err); ok {
			if reason, ok := oopsErr.Context()["reason"].(string); ok {
				return reason
			}
		}
		return msgUnknown
	case CodeRateLimited:
		return msgRateLimited
	case CodeTimestampDrift:
		return msgTimestampDrift
	case CodeSequenceMismatch:
		return msgSequenceMismatch
	case CodeIntegrityViolation:
		return msgIntegrity
	case CodeSessionNotFound:
		return msgNotFound
	case CodeStoreError:
		return msgStore
	default:
		return msgUnknown
	}
}
