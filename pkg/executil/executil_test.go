package executil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRunCapturesOutput(t *testing.T) {
	res, err := Run(context.Background(), 0, "echo", "hello")
	require.NoError(t, err)
	require.Contains(t, res.Stdout, "hello")
	require.Equal(t, 0, res.ExitCode)
}

func TestRunHonoursTimeout(t *testing.T) {
	_, err := Run(context.Background(), 10*time.Millisecond, "sleep", "1")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLookPathFindsShell(t *testing.T) {
	_, ok := LookPath("sh")
	require.True(t, ok)
}

func TestLookPathMissing(t *testing.T) {
	_, ok := LookPath("ovo-definitely-not-a-real-binary")
	require.False(t, ok)
}
