package req

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"

	"github.com/xy-planning-network/waypoint"
)

const (
	// DefaultMaxSize caps request bodies when a Parser is given none.
	DefaultMaxSize int64 = 10 << 20

	multipartMemory int64 = 1 << 20
	unknownIP             = "0.0.0.0"
)

// A Parser builds a *Request from an *http.Request.
type Parser struct {
	maxSize int64
	uploads *Uploads
}

// NewParser constructs a *Parser capping bodies at maxSize bytes
// and staging uploaded files with uploads.
//
// A non-positive maxSize uses DefaultMaxSize.
// With nil uploads, the Parser rejects multipart bodies carrying files.
func NewParser(maxSize int64, uploads *Uploads) *Parser {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}

	return &Parser{maxSize: maxSize, uploads: uploads}
}

// FromHTTP reads r into a *Request.
//
// FromHTTP consumes r.Body. A body over the Parser's limit returns ErrTooLarge;
// a body that does not match its Content-Type returns ErrBadRequest.
//
// The client's IP address is taken from r's context under waypoint.IpAddrKey,
// as middleware.InjectIPAddress puts it there, falling back to r.RemoteAddr.
func (p *Parser) FromHTTP(w http.ResponseWriter, r *http.Request) (*Request, error) {
	out := &Request{
		ID:       waypoint.RequestIDFromContext(r.Context()),
		Method:   r.Method,
		Path:     r.URL.EscapedPath(),
		URI:      r.URL.RequestURI(),
		Query:    r.URL.Query(),
		Header:   r.Header.Clone(),
		Cookies:  make(map[string]string),
		Form:     make(url.Values),
		Host:     r.Host,
		Hostname: hostname(r.Host),
		Protocol: protocol(r),
		RemoteIP: waypoint.IPAddrFromContext(r.Context()),
	}

	if out.RemoteIP == "" || out.RemoteIP == unknownIP {
		out.RemoteIP = remoteIP(r.RemoteAddr)
	}

	for _, c := range r.Cookies() {
		if _, ok := out.Cookies[c.Name]; !ok {
			out.Cookies[c.Name] = c.Value
		}
	}

	if r.Body == nil || r.Body == http.NoBody {
		return out, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, p.maxSize)
	defer r.Body.Close()

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		if err := p.parseMultipart(r, out); err != nil {
			return nil, err
		}

	case "application/x-www-form-urlencoded":
		body, err := readBody(r.Body)
		if err != nil {
			return nil, err
		}

		if out.Form, err = url.ParseQuery(string(body)); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrBadRequest, err)
		}

		out.Body = body

	default:
		body, err := readBody(r.Body)
		if err != nil {
			return nil, err
		}

		out.Body = body
	}

	return out, nil
}

func (p *Parser) parseMultipart(r *http.Request, out *Request) error {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return translateReadError(err)
	}
	defer r.MultipartForm.RemoveAll()

	for k, vals := range r.MultipartForm.Value {
		out.Form[k] = append(out.Form[k], vals...)
	}

	if len(r.MultipartForm.File) == 0 {
		return nil
	}

	if p.uploads == nil {
		return fmt.Errorf("%w: file uploads are not accepted", ErrBadRequest)
	}

	for field, headers := range r.MultipartForm.File {
		for _, fh := range headers {
			f, err := p.uploads.Stage(field, fh)
			if err != nil {
				return err
			}

			out.Files = append(out.Files, f)
		}
	}

	return nil
}

func readBody(body io.Reader) ([]byte, error) {
	b, err := io.ReadAll(body)
	if err != nil {
		return nil, translateReadError(err)
	}

	return b, nil
}

func translateReadError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return fmt.Errorf("%w: over %d bytes", ErrTooLarge, tooLarge.Limit)
	}

	return fmt.Errorf("%w: %s", ErrBadRequest, err)
}
