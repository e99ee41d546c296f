package errutil_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davrodpin/scoundrel/internal/errutil"
)

func TestLogError_CodedError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	err := oops.Code("STORE_ERROR").
		With("session_id", "abc").
		With("operation", "save").
		With("attempt", 2).
		Errorf("save failed")

	errutil.LogError(logger, "handling action", err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "handling action", entry["msg"])
	assert.Equal(t, "STORE_ERROR", entry["code"])
	assert.Equal(t, "save failed", entry["error"])
	assert.Equal(t, "abc", entry["session_id"])
	assert.Equal(t, "save", entry["operation"])
	ctx, ok := entry["context"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 2.0, ctx["attempt"])
	assert.NotContains(t, ctx, "session_id")
}

func TestLogError_EmptySessionIDIsDropped(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	errutil.LogError(logger, "sweeping expired sessions",
		oops.Code("STORE_ERROR").With("session_id", "").With("operation", "sweep").Errorf("timeout"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.NotContains(t, entry, "session_id")
	assert.NotContains(t, entry, "context")
	assert.Equal(t, "sweep", entry["operation"])
}

func TestLogError_PlainError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	errutil.LogError(logger, "handling action", errors.New("boom"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "boom", entry["error"])
	assert.NotContains(t, entry, "code")
}

func TestAssertHelpers(t *testing.T) {
	err := oops.Code("RATE_LIMITED").With("limit", 60).Errorf("slow down")

	errutil.AssertErrorCode(t, err, "RATE_LIMITED")
	errutil.AssertErrorContext(t, err, "limit", 60)
}
