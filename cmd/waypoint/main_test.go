package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/waypoint"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	out := new(bytes.Buffer)
	cmd := newRootCmd()
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestRoutesCmd(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	require.Nil(t, os.MkdirAll(filepath.Join(dir, "admin"), 0755))
	require.Nil(t, os.WriteFile(filepath.Join(dir, "index.go"), nil, 0644))
	require.Nil(t, os.WriteFile(filepath.Join(dir, "admin", "users.go"), nil, 0644))
	require.Nil(t, os.WriteFile(filepath.Join(dir, "admin", "notes.txt"), nil, 0644))

	// Act
	out, err := execute(t, "routes", dir)

	// Assert
	require.Nil(t, err)
	require.Equal(t, []string{"admin/users", "index"}, strings.Fields(out))

	// Act
	out, err = execute(t, "routes", dir, "--ext", ".go,.txt")

	// Assert
	require.Nil(t, err)
	require.Equal(t, []string{"admin/notes", "admin/users", "index"}, strings.Fields(out))

	// Arrange
	t.Setenv("ROUTES_DIR", "")

	// Act
	_, err = execute(t, "routes")

	// Assert
	require.ErrorIs(t, err, waypoint.ErrBadConfig)
}

func TestSweepCmd(t *testing.T) {
	// Arrange
	t.Setenv("ENVIRONMENT", "testing")
	t.Setenv("SESSION_SECRET", "test-secret")
	t.Setenv("LOG_LEVEL", "error")

	// Act
	out, err := execute(t, "sweep", "--store", "memory", "--upload-dir", t.TempDir())

	// Assert
	require.Nil(t, err)
	require.Contains(t, out, "swept 0 sessions and 0 uploads")

	// Arrange
	t.Setenv("SESSION_SECRET", "")

	// Act
	_, err = execute(t, "sweep", "--store", "memory", "--upload-dir", t.TempDir())

	// Assert
	require.ErrorIs(t, err, waypoint.ErrBadConfig)
}

func TestVersionCmd(t *testing.T) {
	// Act
	out, err := execute(t, "version")

	// Assert
	require.Nil(t, err)
	require.True(t, strings.HasPrefix(out, "waypoint "+version))
}

func TestHealth(t *testing.T) {
	// Act
	val, err := health()["get$index"](nil)

	// Assert
	require.Nil(t, err)
	require.NotNil(t, val)
}
