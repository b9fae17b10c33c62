package middleware

import (
	"net/http"

	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/xy-planning-network/waypoint"
)

// ReportPanic encloses the env and returns a function that when called,
// wraps the passed in http.HandlerFunc in sentryhttp.HandleFunc
// in order to recover and report panics.
//
// Unless env is exposed, handlers are returned as is and panics reach net/http.
func ReportPanic(env waypoint.Environment) func(http.HandlerFunc) http.HandlerFunc {
	if !env.Exposed() {
		return func(handler http.HandlerFunc) http.HandlerFunc { return handler }
	}

	sh := sentryhttp.New(sentryhttp.Options{
		Repanic:         false,
		WaitForDelivery: true,
	})

	return func(handler http.HandlerFunc) http.HandlerFunc {
		return sh.HandleFunc(handler)
	}
}
