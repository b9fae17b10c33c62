package logger_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/waypoint/logger"
)

func TestLogContextMarshalText(t *testing.T) {
	// Arrange
	lc := logger.LogContext{}

	// Act
	b, err := lc.MarshalText()

	// Assert
	require.Nil(t, err)
	require.Equal(t, []byte("{}"), b)

	// Arrange
	lc = logger.LogContext{Data: map[string]any{"test": "data"}}

	// Act
	b, err = lc.MarshalText()

	// Assert
	require.Nil(t, err)
	require.Equal(t, `{"data":{"test":"data"}}`, string(b))

	// Arrange
	lc = logger.LogContext{Error: errors.New("test"), SessionID: "abc"}

	// Act
	b, err = lc.MarshalText()

	// Assert
	require.Nil(t, err)
	require.Equal(t, `{"error":"test","session":"abc"}`, string(b))

	// Arrange
	expected := map[string]any{
		"request": map[string]any{
			"method": http.MethodGet,
			"url":    "https://example.com",
			"header": map[string]any{
				"Host":   []any{"example.com"},
				"Cookie": []any{"xxxxxx"},
			},
		},
	}

	r := httptest.NewRequest(http.MethodGet, "https://example.com", nil)
	r.Header.Set("Host", "example.com")
	r.Header.Set("Cookie", "hs=secret")
	lc = logger.LogContext{Request: r}

	// Act
	b, err = lc.MarshalText()

	// Assert
	require.Nil(t, err)
	m := make(map[string]any)
	require.Nil(t, json.Unmarshal(b, &m))
	require.Equal(t, expected, m)
}
