package session_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/waypoint"
	"github.com/xy-planning-network/waypoint/http/session"
)

func newTestBody(lastCheck time.Time) *session.Body {
	return &session.Body{
		IP:        "1.1.1.1",
		Hostname:  "example.com",
		UserAgent: "test/1.0",
		LastCheck: lastCheck,
		Data:      map[string]any{"user": "ada"},
	}
}

func TestMemoryStore(t *testing.T) {
	// Arrange
	ctx := context.Background()
	s := session.NewMemoryStore()
	id := uuid.NewString()
	now := time.Now().Round(0).UTC()

	// Act
	_, err := s.Get(ctx, id)

	// Assert
	require.ErrorIs(t, err, session.ErrNotFound)

	// Act
	require.Nil(t, s.Save(ctx, id, newTestBody(now)))
	actual, err := s.Get(ctx, id)

	// Assert
	require.Nil(t, err)
	require.Equal(t, newTestBody(now), actual)
	require.Equal(t, 1, s.Len())

	// Act
	require.Nil(t, s.Delete(ctx, id))
	_, err = s.Get(ctx, id)

	// Assert
	require.ErrorIs(t, err, session.ErrNotFound)
	require.Zero(t, s.Len())
}

func TestMemoryStoreCopies(t *testing.T) {
	// Arrange
	ctx := context.Background()
	s := session.NewMemoryStore()
	id := uuid.NewString()
	b := newTestBody(time.Now())
	require.Nil(t, s.Save(ctx, id, b))

	// Act
	b.Data["user"] = "grace"

	// Assert
	actual, err := s.Get(ctx, id)
	require.Nil(t, err)
	require.Equal(t, "ada", actual.Data["user"])
}

func TestMemoryStoreConcurrent(t *testing.T) {
	// Arrange
	ctx := context.Background()
	s := session.NewMemoryStore()
	ids := make([]string, 50)
	for i := range ids {
		ids[i] = uuid.NewString()
	}

	// Act
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			require.Nil(t, s.Save(ctx, id, newTestBody(time.Now())))
			_, err := s.Get(ctx, id)
			require.Nil(t, err)
		}(id)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := s.Sweep(ctx, time.Now().Add(-time.Hour))
		require.Nil(t, err)
	}()

	wg.Wait()

	// Assert
	require.Equal(t, len(ids), s.Len())
}

func TestMemoryStoreSweep(t *testing.T) {
	// Arrange
	ctx := context.Background()
	s := session.NewMemoryStore()
	now := time.Now()
	fresh, stale := uuid.NewString(), uuid.NewString()
	require.Nil(t, s.Save(ctx, fresh, newTestBody(now)))
	require.Nil(t, s.Save(ctx, stale, newTestBody(now.Add(-2*time.Hour))))

	// Act
	n, err := s.Sweep(ctx, now.Add(-time.Hour))

	// Assert
	require.Nil(t, err)
	require.Equal(t, 1, n)

	_, err = s.Get(ctx, fresh)
	require.Nil(t, err)

	_, err = s.Get(ctx, stale)
	require.ErrorIs(t, err, session.ErrNotFound)
}

func TestNewFileStore(t *testing.T) {
	s, err := session.NewFileStore("", false)
	require.ErrorIs(t, err, waypoint.ErrBadConfig)
	require.Nil(t, s)

	dir := filepath.Join(t.TempDir(), "sessions")
	s, err = session.NewFileStore(dir, false)
	require.Nil(t, err)
	require.Equal(t, dir, s.Dir())

	info, err := os.Stat(dir)
	require.Nil(t, err)
	require.True(t, info.IsDir())
}

func TestFileStore(t *testing.T) {
	// Arrange
	ctx := context.Background()
	s, err := session.NewFileStore(t.TempDir(), true)
	require.Nil(t, err)

	id := uuid.NewString()
	now := time.Now().Round(0).UTC()

	// Act
	_, err = s.Get(ctx, id)

	// Assert
	require.ErrorIs(t, err, session.ErrNotFound)

	// Act
	require.Nil(t, s.Save(ctx, id, newTestBody(now)))
	actual, err := s.Get(ctx, id)

	// Assert
	require.Nil(t, err)
	require.Equal(t, newTestBody(now), actual)

	raw, err := os.ReadFile(filepath.Join(s.Dir(), id+".json"))
	require.Nil(t, err)
	require.Contains(t, string(raw), "\n  \"ip\": \"1.1.1.1\"")

	// Act
	require.Nil(t, s.Delete(ctx, id))
	require.Nil(t, s.Delete(ctx, id))
	_, err = s.Get(ctx, id)

	// Assert
	require.ErrorIs(t, err, session.ErrNotFound)
}

func TestFileStoreRejectsUnsafeIDs(t *testing.T) {
	// Arrange
	ctx := context.Background()
	dir := t.TempDir()
	s, err := session.NewFileStore(filepath.Join(dir, "sessions"), false)
	require.Nil(t, err)

	// Act
	err = s.Save(ctx, "../escaped", newTestBody(time.Now()))

	// Assert
	require.ErrorIs(t, err, waypoint.ErrNotValid)
	_, err = os.Stat(filepath.Join(dir, "escaped.json"))
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = s.Get(ctx, "../escaped")
	require.ErrorIs(t, err, session.ErrNotFound)
}

func TestFileStoreDeletesCorrupt(t *testing.T) {
	for _, tc := range []struct {
		name string
		raw  string
	}{
		{"Truncated", `{"ip": "1.1`},
		{"Empty", ""},
		{"Missing-LastCheck", `{"ip": "1.1.1.1", "data": {}}`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			ctx := context.Background()
			s, err := session.NewFileStore(t.TempDir(), false)
			require.Nil(t, err)

			id := uuid.NewString()
			fp := filepath.Join(s.Dir(), id+".json")
			require.Nil(t, os.WriteFile(fp, []byte(tc.raw), 0o600))

			// Act
			actual, err := s.Get(ctx, id)

			// Assert
			require.ErrorIs(t, err, session.ErrNotFound)
			require.Nil(t, actual)

			_, err = os.Stat(fp)
			require.ErrorIs(t, err, os.ErrNotExist)
		})
	}
}

func TestFileStoreSweep(t *testing.T) {
	// Arrange
	ctx := context.Background()
	s, err := session.NewFileStore(t.TempDir(), false)
	require.Nil(t, err)

	now := time.Now()
	fresh, stale, corrupt := uuid.NewString(), uuid.NewString(), uuid.NewString()
	require.Nil(t, s.Save(ctx, fresh, newTestBody(now)))
	require.Nil(t, s.Save(ctx, stale, newTestBody(now.Add(-2*time.Hour))))
	require.Nil(t, os.WriteFile(filepath.Join(s.Dir(), corrupt+".json"), []byte("{"), 0o600))
	require.Nil(t, os.WriteFile(filepath.Join(s.Dir(), "notes.txt"), []byte("keep"), 0o600))
	require.Nil(t, os.Mkdir(filepath.Join(s.Dir(), "nested.json"), 0o700))

	// Act
	n, err := s.Sweep(ctx, now.Add(-time.Hour))

	// Assert
	require.Nil(t, err)
	require.Equal(t, 2, n)

	_, err = s.Get(ctx, fresh)
	require.Nil(t, err)

	entries, err := os.ReadDir(s.Dir())
	require.Nil(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}

	require.ElementsMatch(t, []string{fresh + ".json", "notes.txt", "nested.json"}, names)
}
