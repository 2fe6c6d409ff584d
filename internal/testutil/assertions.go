package testutil

import (
	"testing"

	"github.com/specialistvlad/rcpgrid/internal/errcode"
	"github.com/stretchr/testify/require"
)

// RequireCode fails the test unless err carries the given error code.
func RequireCode(t *testing.T, err error, want errcode.Code) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, want, errcode.Of(err), "unexpected error code for: %v", err)
}

// RequireLogged checks that the captured log output contains substr.
func RequireLogged(t *testing.T, logs *SafeBuffer, substr string) {
	t.Helper()
	require.Contains(t, logs.String(), substr, "expected log output was not found")
}
