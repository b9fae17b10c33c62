package resp_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/waypoint/http/resp"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("boom") }

func TestWrite(t *testing.T) {
	for _, tc := range []struct {
		name        string
		body        any
		expected    string
		contentType string
	}{
		{"String", "hello", "hello", "text/plain; charset=utf-8"},
		{"Bytes", []byte("<html><body>hi</body></html>"), "<html><body>hi</body></html>", "text/html; charset=utf-8"},
		{"Reader", io.NopCloser(strings.NewReader("streamed")), "streamed", "text/plain; charset=utf-8"},
		{"JSON", map[string]any{"ok": true}, "{\"ok\":true}\n", "application/json"},
		{"Nil", nil, "", ""},
	} {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			w := httptest.NewRecorder()
			r := resp.Wrap(tc.body)

			// Act
			err := resp.Write(w, r)

			// Assert
			require.Nil(t, err)
			require.Equal(t, http.StatusOK, w.Code)
			require.Equal(t, tc.expected, w.Body.String())
			require.Equal(t, tc.contentType, w.Header().Get("Content-Type"))
			require.Equal(t, "no-store", w.Header().Get("Cache-Control"))
			require.Equal(t, "no-cache", w.Header().Get("Pragma"))
		})
	}
}

func TestWriteHeadersAndCookies(t *testing.T) {
	// Arrange
	w := httptest.NewRecorder()
	r := resp.Must(
		resp.Code(http.StatusTeapot),
		resp.Header("Content-Type", "text/csv"),
		resp.Cookie(&http.Cookie{Name: "hs", Value: "token", HttpOnly: true}),
		resp.CacheControl(),
		resp.Data("a,b"),
	)

	// Act
	err := resp.Write(w, r)

	// Assert
	require.Nil(t, err)
	require.Equal(t, http.StatusTeapot, w.Code)
	require.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	require.Equal(t, "max-age=2592000", w.Header().Get("Cache-Control"))
	require.Empty(t, w.Header().Get("Pragma"))
	require.Equal(t, "hs=token; HttpOnly", w.Header().Get("Set-Cookie"))
}

func TestWriteRepeatedly(t *testing.T) {
	// Arrange
	r := resp.Must(resp.Data("page"), resp.Header("X-Page", "1"))

	for i := 0; i < 3; i++ {
		// Arrange
		w := httptest.NewRecorder()

		// Act
		err := resp.Write(w, r)

		// Assert
		require.Nil(t, err)
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "page", w.Body.String())
		require.Equal(t, "1", w.Header().Get("X-Page"))
	}
}

type brokenWriter struct {
	*httptest.ResponseRecorder
}

func (brokenWriter) Write([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestWriteAfterStatus(t *testing.T) {
	// Arrange
	w := brokenWriter{httptest.NewRecorder()}

	// Act
	err := resp.Write(w, resp.Must(resp.Data("page")))

	// Assert
	require.ErrorIs(t, err, resp.ErrWritten)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestWriteLargeBody(t *testing.T) {
	// Arrange
	body := strings.Repeat("a", 1<<17)

	for i := 0; i < 2; i++ {
		// Arrange
		w := httptest.NewRecorder()

		// Act
		err := resp.Write(w, resp.Must(resp.Data(body)))

		// Assert
		require.Nil(t, err)
		require.Equal(t, len(body), w.Body.Len())
	}
}

func TestWriteRedirect(t *testing.T) {
	w := httptest.NewRecorder()
	require.Nil(t, resp.Write(w, resp.Must(resp.Redirect("/login"))))
	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, "/login", w.Header().Get("Location"))
}

func TestWriteFile(t *testing.T) {
	// Arrange
	fp := filepath.Join(t.TempDir(), "style.css")
	require.Nil(t, os.WriteFile(fp, []byte("body {}"), 0o600))
	w := httptest.NewRecorder()

	// Act
	err := resp.Write(w, resp.Must(resp.File(fp), resp.CacheControl()))

	// Assert
	require.Nil(t, err)
	require.Equal(t, "body {}", w.Body.String())
	require.Equal(t, "text/css; charset=utf-8", w.Header().Get("Content-Type"))
	require.Equal(t, "max-age=2592000", w.Header().Get("Cache-Control"))
}

func TestWriteFails(t *testing.T) {
	for _, tc := range []struct {
		name string
		r    *resp.Response
	}{
		{"Missing-File", resp.Must(resp.File("/does/not/exist.txt"))},
		{"Failing-Reader", resp.Wrap(failingReader{})},
		{"Unencodable", resp.Wrap(map[string]any{"fn": func() {}})},
	} {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			w := httptest.NewRecorder()

			// Act
			err := resp.Write(w, tc.r)

			// Assert
			require.NotNil(t, err)
			require.NotErrorIs(t, err, resp.ErrWritten)
			require.Empty(t, w.Header())
			require.Zero(t, w.Body.Len())
		})
	}
}
