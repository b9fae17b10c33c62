package middleware_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/waypoint"
	"github.com/xy-planning-network/waypoint/http/middleware"
)

func TestLogRequest(t *testing.T) {
	// Arrange + Act
	actual := middleware.LogRequest(nil)

	// Assert
	require.Equal(t, fmt.Sprintf("%p", middleware.NoopAdapter), fmt.Sprintf("%p", actual))

	tcs := []struct {
		name        string
		method      string
		ip          string
		url         *url.URL
		expectedMsg string
		expectedURI string
	}{
		{"Zero-Value", http.MethodGet, "", &url.URL{Path: "/"}, "GET /", "/"},
		{"With-IP", http.MethodPost, "192.168.0.0", &url.URL{Path: "/"}, "POST /", "/"},
		{
			"With-Query-Params",
			http.MethodPut,
			"192.168.0.0",
			&url.URL{Path: "/hitting/the/waypoint", RawQuery: "param=true"},
			"PUT /hitting/the/waypoint?param=true",
			"/hitting/the/waypoint?param=true",
		},
		{
			"With-Query-Params-Hid",
			http.MethodGet,
			"192.168.0.0",
			&url.URL{Path: "/", RawQuery: "param=true&password=hunter2"},
			"GET /?param=true&password=" + waypoint.LogMaskVal,
			"/?param=true&password=" + waypoint.LogMaskVal,
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			l := new(recordingLogger)
			w := httptest.NewRecorder()
			r := httptest.NewRequest(tc.method, tc.url.String(), nil)
			r = r.Clone(context.WithValue(r.Context(), waypoint.RequestIDKey, "test-id"))
			r.Header.Set("User-Agent", "waypoint/test")
			if tc.ip != "" {
				r = r.Clone(context.WithValue(r.Context(), waypoint.IpAddrKey, tc.ip))
			}

			// Act
			middleware.LogRequest(l)(http.HandlerFunc(func(wx http.ResponseWriter, rx *http.Request) {
				wx.WriteHeader(http.StatusAccepted)
				fmt.Fprint(wx, "test")
			})).ServeHTTP(w, r)

			// Assert
			require.Len(t, l.msgs, 1)
			require.Equal(t, tc.expectedMsg, l.msgs[0])

			lc := l.ctxs[0]
			require.Equal(t, tc.ip, lc.Addr)
			require.Equal(t, tc.url.Path, lc.Path)
			require.Equal(t, tc.expectedURI, lc.Data["uri"])
			require.Equal(t, tc.method, lc.Data["method"])
			require.Equal(t, http.StatusAccepted, lc.Data["status"])
			require.Equal(t, len("test"), lc.Data["size"])
			require.Equal(t, "test-id", lc.Data["requestID"])
			require.Equal(t, "waypoint/test", lc.Data["userAgent"])
			require.NotContains(t, l.msgs[0], "hunter2")
		})
	}
}
