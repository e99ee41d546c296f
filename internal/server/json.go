package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/davrodpin/scoundrel/internal/errutil"
	"github.com/davrodpin/scoundrel/internal/game"
)

// Codes used only at the transport edge.
const (
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeInternal     = "INTERNAL"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10))
	if err := dec.Decode(v); err != nil {
		return game.ErrInvalidRequest("Request body must be valid JSON")
	}
	return nil
}

func writeError(w http.ResponseWriter, status int, msg, code string) {
	writeJSON(w, status, ErrorResponse{Message: msg, Code: code})
}

// writeGameError maps a manager error onto its HTTP status. Only the public
// message reaches the client.
func writeGameError(w http.ResponseWriter, logger *slog.Logger, err error) {
	code := game.ErrorCode(err)
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		errutil.LogError(logger, "request failed", err)
	}
	if code == "" {
		code = CodeInternal
	}
	writeError(w, status, game.PublicMessage(err), code)
}

func statusFor(code string) int {
	switch code {
	case game.CodeIllegalAction:
		return http.StatusUnprocessableEntity
	case game.CodeInvalidRequest, game.CodeTimestampDrift:
		return http.StatusBadRequest
	case game.CodeRateLimited:
		return http.StatusTooManyRequests
	case game.CodeSequenceMismatch:
		return http.StatusConflict
	case game.CodeIntegrityViolation:
		return http.StatusGone
	case game.CodeSessionNotFound:
		return http.StatusNotFound
	case game.CodeStoreError:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
