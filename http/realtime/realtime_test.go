package realtime_test

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/waypoint"
	"github.com/xy-planning-network/waypoint/http/realtime"
	"github.com/xy-planning-network/waypoint/http/route"
	"github.com/xy-planning-network/waypoint/http/session"
	"github.com/xy-planning-network/waypoint/logger"
)

func quietLogger() logger.Logger {
	return logger.NewLogger(logger.WithLogger(log.New(io.Discard, "", 0)))
}

func newTestServer(t *testing.T) (*httptest.Server, *session.MemoryStore) {
	t.Helper()

	store := session.NewMemoryStore()
	m, err := session.NewManager(store, "test-secret", 30, session.WithLogger(quietLogger()))
	require.Nil(t, err)

	h, err := realtime.New(m, map[string]realtime.EventHandler{
		"count": func(c *route.Context, _ json.RawMessage) (any, error) {
			n, _ := c.Session.Get("count").(int)
			n++
			c.Session.Set("count", n)
			return n, nil
		},
		"echo": func(_ *route.Context, data json.RawMessage) (any, error) {
			var val any
			if err := json.Unmarshal(data, &val); err != nil {
				return nil, err
			}
			return val, nil
		},
		"quiet": func(*route.Context, json.RawMessage) (any, error) { return nil, nil },
		"fail": func(*route.Context, json.RawMessage) (any, error) {
			return nil, errors.New("boom")
		},
		"panic": func(*route.Context, json.RawMessage) (any, error) { panic("boom") },
		"unit": func(c *route.Context, _ json.RawMessage) (any, error) {
			return c.Unit, nil
		},
	}, realtime.WithLogger(quietLogger()))
	require.Nil(t, err)

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	return srv, store
}

func dial(t *testing.T, srv *httptest.Server) (*websocket.Conn, *http.Response) {
	t.Helper()

	conn, res, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.Nil(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn, res
}

func exchange(t *testing.T, conn *websocket.Conn, msg string) realtime.Message {
	t.Helper()

	require.Nil(t, conn.WriteMessage(websocket.TextMessage, []byte(msg)))

	var actual realtime.Message
	require.Nil(t, conn.ReadJSON(&actual))
	return actual
}

func TestNew(t *testing.T) {
	// Arrange
	m, err := session.NewManager(session.NewMemoryStore(), "test-secret", 30)
	require.Nil(t, err)

	// Act
	_, err = realtime.New(nil, nil)

	// Assert
	require.ErrorIs(t, err, waypoint.ErrBadConfig)

	// Act
	_, err = realtime.New(m, map[string]realtime.EventHandler{"nil": nil})

	// Assert
	require.ErrorIs(t, err, waypoint.ErrBadConfig)

	// Act
	h, err := realtime.New(m, nil)

	// Assert
	require.Nil(t, err)
	require.NotNil(t, h)
}

func TestHandlerServeHTTP(t *testing.T) {
	srv, store := newTestServer(t)
	conn, res := dial(t, srv)

	t.Run("Session-Cookie", func(t *testing.T) {
		var found bool
		for _, c := range res.Cookies() {
			if c.Name == session.CookieName {
				found = true
				require.NotEmpty(t, c.Value)
				require.True(t, c.HttpOnly)
			}
		}

		require.True(t, found)
		require.Equal(t, 1, store.Len())
	})

	tcs := []struct {
		name     string
		msg      string
		expected realtime.Message
	}{
		{"Echo", `{"event":"echo","data":"hello"}`, realtime.Message{Event: "echo", Data: "hello"}},
		{"Echo-Object", `{"event":"echo","data":{"a":1}}`, realtime.Message{Event: "echo", Data: map[string]any{"a": float64(1)}}},
		{"Unit", `{"event":"unit"}`, realtime.Message{Event: "unit", Data: realtime.UnitName}},
		{"Unknown", `{"event":"nope"}`, realtime.Message{Event: realtime.ErrorEvent}},
		{"Malformed", `not json`, realtime.Message{Event: realtime.ErrorEvent}},
		{"Missing-Event", `{"data":1}`, realtime.Message{Event: realtime.ErrorEvent}},
		{"Fail", `{"event":"fail"}`, realtime.Message{Event: realtime.ErrorEvent, Data: "fail"}},
		{"Panic", `{"event":"panic"}`, realtime.Message{Event: realtime.ErrorEvent, Data: "panic"}},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			// Act
			actual := exchange(t, conn, tc.msg)

			// Assert
			require.Equal(t, tc.expected, actual)
		})
	}

	t.Run("Session-State", func(t *testing.T) {
		// Act
		first := exchange(t, conn, `{"event":"count"}`)
		second := exchange(t, conn, `{"event":"count"}`)

		// Assert
		require.Equal(t, float64(1), first.Data)
		require.Equal(t, float64(2), second.Data)
	})

	t.Run("No-Reply", func(t *testing.T) {
		// Act
		require.Nil(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"quiet"}`)))
		actual := exchange(t, conn, `{"event":"echo","data":"after"}`)

		// Assert
		require.Equal(t, realtime.Message{Event: "echo", Data: "after"}, actual)
	})
}

func TestHandlerServeHTTPNotUpgrade(t *testing.T) {
	// Arrange
	srv, store := newTestServer(t)

	// Act
	res, err := http.Get(srv.URL)

	// Assert
	require.Nil(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusUpgradeRequired, res.StatusCode)
	require.Zero(t, store.Len())
}
