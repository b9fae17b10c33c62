package req_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/waypoint"
	"github.com/xy-planning-network/waypoint/http/req"
)

func TestNewUploads(t *testing.T) {
	u, err := req.NewUploads("", nil)
	require.ErrorIs(t, err, waypoint.ErrBadConfig)
	require.Nil(t, u)

	dir := filepath.Join(t.TempDir(), "nested", "uploads")
	u, err = req.NewUploads(dir, nil)
	require.Nil(t, err)
	require.Equal(t, dir, u.Dir())

	info, err := os.Stat(dir)
	require.Nil(t, err)
	require.True(t, info.IsDir())
}

func TestUploadsSweep(t *testing.T) {
	// Arrange
	u, err := req.NewUploads(t.TempDir(), quietLogger())
	require.Nil(t, err)

	now := time.Now()
	old := filepath.Join(u.Dir(), "old.bin")
	fresh := filepath.Join(u.Dir(), "fresh.bin")
	require.Nil(t, os.WriteFile(old, []byte("old"), 0o600))
	require.Nil(t, os.WriteFile(fresh, []byte("fresh"), 0o600))
	require.Nil(t, os.Chtimes(old, now.Add(-2*time.Hour), now.Add(-2*time.Hour)))
	require.Nil(t, os.Mkdir(filepath.Join(u.Dir(), "sub"), 0o700))

	// Act
	n, err := u.Sweep(context.Background(), now.Add(-time.Hour))

	// Assert
	require.Nil(t, err)
	require.Equal(t, 1, n)

	_, err = os.Stat(old)
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = os.Stat(fresh)
	require.Nil(t, err)
}

func TestUploadsSweepCanceled(t *testing.T) {
	// Arrange
	u, err := req.NewUploads(t.TempDir(), quietLogger())
	require.Nil(t, err)
	require.Nil(t, os.WriteFile(filepath.Join(u.Dir(), "a.bin"), nil, 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Act
	n, err := u.Sweep(ctx, time.Now().Add(time.Hour))

	// Assert
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, n)
}
