package logger

import (
	"encoding"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"

	"github.com/xy-planning-network/waypoint"
)

var (
	_ encoding.TextMarshaler = LogContext{}
)

// A LogContext provides additional information and configuration
// for a [Logger] method that cannot be tersely captured in the message itself.
type LogContext struct {
	// Caller overrides the caller file and line number with the provided value.
	//
	// Caller is not logged in the text of a LogContext.
	//
	// Caller helps goroutines identify the callers of the process that spawned it.
	Caller string

	// Data is any information pertinent at the time of the logging event.
	Data map[string]any

	// Error is the error that may or may not have instigated a logging event.
	Error error

	// Request is the *http.Request that may or may not have been open during the logging event.
	Request *http.Request

	// Addr is the remote address of the request being handled during the logging event.
	Addr string

	// Path is the requested path, when no *http.Request is at hand.
	Path string

	// SessionID identifies the session that was active during the logging event.
	SessionID string
}

// MarshalText converts LogContext into a JSON representation,
// eliminating zero-value fields or fields not requiring logging.
//
// Values in LogContext.Data that cannot be represented in JSON will cause an error to be thrown.
//
// MarshalText implements [encoding.TextMarshaler].
func (lc LogContext) MarshalText() ([]byte, error) {
	m := make(map[string]any)
	if lc.Data != nil {
		m["data"] = lc.Data
	}

	if lc.Error != nil {
		m["error"] = lc.Error.Error()
	}

	if lc.Addr != "" {
		m["addr"] = lc.Addr
	}

	if lc.Path != "" {
		m["path"] = lc.Path
	}

	if lc.SessionID != "" {
		m["session"] = lc.SessionID
	}

	if lc.Request != nil {
		r := make(map[string]any)
		r["method"] = lc.Request.Method
		r["url"] = lc.Request.URL.String()
		r["header"] = scrubHeader(lc.Request.Header)
		if lc.Request.Form != nil {
			r["form"] = lc.Request.Form
		}

		m["request"] = r
	}

	return json.Marshal(m)
}

// String stringifies LogContext as a JSON representation of it.
func (lc LogContext) String() string {
	b, err := lc.MarshalText()
	if err != nil {
		fmt.Println(err)
		return ""
	}
	return string(b)
}

// scrubHeader copies h, masking the values of headers carrying credentials.
func scrubHeader(h http.Header) http.Header {
	out := h.Clone()
	for _, k := range []string{"Authorization", "Cookie", "Set-Cookie"} {
		if out.Get(k) != "" {
			out.Set(k, waypoint.LogMaskVal)
		}
	}

	return out
}

// CurrentCaller retrieves the caller for the caller of CurrentCaller,
// formatted for using as a value in LogContext.Caller.
//
//	myFunc() { 		<- returns this caller
//		func() {
//			CurrentCaller()
//		}()
//	}
func CurrentCaller() string {
	_, file, line, _ := runtime.Caller(2)
	return fmt.Sprintf(callerTmpl, immediateFilepath(file), line)
}
