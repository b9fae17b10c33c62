package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/waypoint"
	"github.com/xy-planning-network/waypoint/http/session"
)

type funcsRecorder struct {
	body    *session.Body
	getErr  error
	deleted []string
}

func (r *funcsRecorder) funcs() session.Funcs {
	return session.Funcs{
		Get: func(_ context.Context, _ string) (*session.Body, error) {
			return r.body, r.getErr
		},
		Save: func(_ context.Context, _ string, b *session.Body) error {
			r.body = b
			return nil
		},
		Delete: func(_ context.Context, id string) error {
			r.deleted = append(r.deleted, id)
			return errors.New("delete failed")
		},
	}
}

func TestNewFuncStore(t *testing.T) {
	s, err := session.NewFuncStore(session.Funcs{})
	require.ErrorIs(t, err, waypoint.ErrBadConfig)
	require.Nil(t, s)

	rec := new(funcsRecorder)
	fns := rec.funcs()
	fns.Delete = nil
	s, err = session.NewFuncStore(fns)
	require.ErrorIs(t, err, waypoint.ErrBadConfig)
	require.Nil(t, s)
}

func TestFuncStoreGet(t *testing.T) {
	now := time.Now()

	for _, tc := range []struct {
		name    string
		body    *session.Body
		getErr  error
		err     error
		deleted bool
	}{
		{name: "Found", body: newTestBody(now)},
		{name: "Nothing-Stored", err: session.ErrNotFound},
		{name: "Get-Fails", getErr: errors.New("connection refused"), err: session.ErrNotFound, deleted: true},
		{name: "Missing-LastCheck", body: &session.Body{}, err: session.ErrNotFound, deleted: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			rec := &funcsRecorder{body: tc.body, getErr: tc.getErr}
			s, err := session.NewFuncStore(rec.funcs())
			require.Nil(t, err)
			id := uuid.NewString()

			// Act
			actual, err := s.Get(context.Background(), id)

			// Assert
			if tc.deleted {
				require.Equal(t, []string{id}, rec.deleted)
			} else {
				require.Empty(t, rec.deleted)
			}

			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)
				require.Nil(t, actual)
				return
			}

			require.Nil(t, err)
			require.Equal(t, tc.body, actual)
		})
	}
}

func TestFuncStoreSweep(t *testing.T) {
	// Arrange
	rec := new(funcsRecorder)
	s, err := session.NewFuncStore(rec.funcs())
	require.Nil(t, err)

	// Act
	n, err := s.Sweep(context.Background(), time.Now())

	// Assert
	require.Nil(t, err)
	require.Zero(t, n)

	// Arrange
	var olderThan time.Time
	fns := rec.funcs()
	fns.Expire = func(_ context.Context, t time.Time) (int, error) {
		olderThan = t
		return 3, nil
	}
	s, err = session.NewFuncStore(fns)
	require.Nil(t, err)
	cutoff := time.Now().Add(-time.Hour)

	// Act
	n, err = s.Sweep(context.Background(), cutoff)

	// Assert
	require.Nil(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, cutoff, olderThan)
}
