package errors

import (
	stdErrors "errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewAndWrap(t *testing.T) {
	e := New(CyclicDependency, "cycle detected")
	require.Equal(t, CyclicDependency, e.Code)
	require.Equal(t, "cycle detected", e.Message)
	require.NotEmpty(t, e.Suggestion)
	require.NotEmpty(t, e.Stack)
	require.Contains(t, e.Error(), "cycle detected")

	base := stdErrors.New("boom")
	w := Wrap(base, Unknown, "something happened")
	require.NotNil(t, w.Cause)
	require.Contains(t, w.Error(), "boom")
}

func TestWrapPreservesExistingOvoError(t *testing.T) {
	inner := New(HashMismatch, "digest mismatch")
	wrapped := Wrap(inner, Unknown, "verify failed")
	require.Same(t, inner, wrapped)
	require.Equal(t, "verify failed: digest mismatch", wrapped.Message)
}

func TestRecoverableAndContext(t *testing.T) {
	e := New(NetworkError, "registry unreachable").WithContext("registry", "https://pkg.ovo.dev")
	require.True(t, e.Recoverable)
	require.Equal(t, "https://pkg.ovo.dev", e.Context["registry"])

	notRecoverable := New(CyclicDependency, "cycle")
	require.False(t, notRecoverable.Recoverable)
}

func TestWrapNilReturnsNil(t *testing.T) {
	require.Nil(t, Wrap(nil, Unknown, "ignored"))
}
