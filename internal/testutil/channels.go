// Package testutil holds helpers shared by the package tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	// DefaultTestTimeout bounds waits for goroutines under test
	DefaultTestTimeout = 5 * time.Second

	// ShutdownTimeout bounds the wait for a Run loop to return after cancel
	ShutdownTimeout = 10 * time.Second
)

// Receive returns the next value from ch or fails the test after timeout.
func Receive[T any](t *testing.T, ch <-chan T, timeout time.Duration, msg string) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(timeout):
		require.FailNow(t, msg)
	}
	var zero T
	return zero
}

// WriteSegment creates a small fake audio file named name in dir and
// returns its path.
func WriteSegment(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("ID3"), 0o600))
	return path
}
