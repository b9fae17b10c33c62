package req

import (
	"net"
	"net/http"
	"net/url"
	"strings"
)

const (
	ProtocolHTTP  = "http"
	ProtocolHTTPS = "https"
)

// A Request is the transport-agnostic description of an HTTP request
// that the router dispatches.
type Request struct {
	// ID uniquely identifies the request, as set by middleware.RequestID.
	ID string

	Method string

	// Path is the escaped path of the request URL.
	Path string

	// URI is the escaped path and query of the request URL.
	URI string

	Query  url.Values
	Header http.Header

	// Cookies maps names of cookies sent with the request to their values.
	Cookies map[string]string

	// Body is the raw body, unless it was parsed into Form and Files.
	Body []byte

	// Form holds the fields of a URL-encoded or multipart body.
	Form url.Values

	// Files are the files of a multipart body, staged in the upload directory.
	Files []File

	RemoteIP string

	// Host is the Host header, port included.
	Host string

	// Hostname is Host, port excluded.
	Hostname string

	// Protocol is ProtocolHTTP or ProtocolHTTPS.
	Protocol string
}

// A File is an uploaded file staged on disk.
type File struct {
	// Field is the form field the file was uploaded under.
	Field string

	// Name is the name of the file as the client sent it.
	Name string

	// Path is where the file is staged.
	Path string

	ContentType string
	Size        int64
}

// Cookie returns the value of the cookie named name, or an empty string.
func (r *Request) Cookie(name string) string {
	return r.Cookies[name]
}

// Secure reports whether r arrived over HTTPS.
func (r *Request) Secure() bool {
	return r.Protocol == ProtocolHTTPS
}

// UserAgent returns the User-Agent header.
func (r *Request) UserAgent() string {
	return r.Header.Get("User-Agent")
}

// SecureURL returns the URL r would have been made to over HTTPS,
// with port replacing the port of r.Host unless port is empty or "443".
func (r *Request) SecureURL(port string) string {
	host := r.Hostname
	switch {
	case port != "" && port != "443":
		host = net.JoinHostPort(host, port)
	case strings.Contains(host, ":"):
		host = "[" + host + "]"
	}

	return ProtocolHTTPS + "://" + host + r.URI
}

// hostname strips any port from host.
func hostname(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}

	return strings.Trim(host, "[]")
}

// remoteIP strips the port from addr.
func remoteIP(addr string) string {
	if h, _, err := net.SplitHostPort(addr); err == nil {
		return h
	}

	return addr
}

// protocol reports whether r arrived over TLS, trusting X-Forwarded-Proto when set.
func protocol(r *http.Request) string {
	if proto := strings.ToLower(r.Header.Get("X-Forwarded-Proto")); proto == ProtocolHTTP || proto == ProtocolHTTPS {
		return proto
	}

	if r.TLS != nil {
		return ProtocolHTTPS
	}

	return ProtocolHTTP
}
