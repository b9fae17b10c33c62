package middleware

import (
	"io"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/xy-planning-network/waypoint"
	"github.com/xy-planning-network/waypoint/logger"
)

// LogRequest logs the request's method, requested URL, originating IP address
// and the status and size of the response using the enclosed implementation of logger.Logger.
//
// LogRequest scrubs the values for the following query params:
// - password
//
// if logger.Logger is nil, NoopAdapter returns and this middleware does nothing.
func LogRequest(l logger.Logger) Adapter {
	if l == nil {
		return NoopAdapter
	}

	return func(h http.Handler) http.Handler {
		return handlers.CustomLoggingHandler(io.Discard, h, func(_ io.Writer, p handlers.LogFormatterParams) {
			uri := p.URL.Path
			q := p.URL.Query()
			if q.Get("password") != "" {
				q.Set("password", waypoint.LogMaskVal)
			}

			if query := q.Encode(); query != "" {
				uri += "?" + query
			}

			ctx := p.Request.Context()
			l.Info(p.Request.Method+" "+uri, &logger.LogContext{
				Addr: waypoint.IPAddrFromContext(ctx),
				Path: p.URL.Path,
				Data: map[string]any{
					"duration":  time.Since(p.TimeStamp).String(),
					"method":    p.Request.Method,
					"requestID": waypoint.RequestIDFromContext(ctx),
					"size":      p.Size,
					"status":    p.StatusCode,
					"uri":       uri,
					"userAgent": p.Request.UserAgent(),
				},
			})
		})
	}
}
