package errutil

import (
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireCoded(t *testing.T, err error) oops.OopsError {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "want a coded error, got %T: %v", err, err)
	return oopsErr
}

// AssertErrorCode fails unless err carries code, e.g. RATE_LIMITED.
func AssertErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	assert.Equal(t, code, requireCoded(t, err).Code())
}

// AssertErrorContext fails unless err was built with With(key, value).
func AssertErrorContext(t *testing.T, err error, key string, value any) {
	t.Helper()
	ctx := requireCoded(t, err).Context()
	require.Contains(t, ctx, key)
	assert.Equal(t, value, ctx[key])
}
