package resp

import (
	"fmt"
	"net/http"
	"net/url"
)

// A Fn is a functional option that mutates the state of the Response.
type Fn func(*Response) error

// A Response is the transport-agnostic envelope a handler's result is normalized into
// before Write sends it.
//
// Body may be a string, a []byte, an io.Reader, or any value that encodes to JSON.
// When File is set, Write sends the file's contents instead of Body.
// When Location is set, Write redirects to it.
type Response struct {
	Body         any
	Status       int
	StatusText   string
	Header       http.Header
	Cookies      []*http.Cookie
	CacheControl bool
	File         string
	Location     string
}

// New constructs a *Response defaulting to http.StatusOK, applying fns in order.
func New(fns ...Fn) (*Response, error) {
	r := &Response{Status: http.StatusOK, Header: make(http.Header)}
	for _, fn := range fns {
		if err := fn(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Must calls New, panicking if any Fn fails.
func Must(fns ...Fn) *Response {
	r, err := New(fns...)
	if err != nil {
		panic(err)
	}

	return r
}

// Wrap normalizes val into a *Response.
// A *Response is copied, along with its Header and Cookies,
// so one built ahead of time can answer any number of requests;
// anything else becomes the Body of a 200.
// A nil *Response becomes a 200 without a Body.
func Wrap(val any) *Response {
	r, ok := val.(*Response)
	if !ok {
		return &Response{Body: val, Status: http.StatusOK, Header: make(http.Header)}
	}

	if r == nil {
		return &Response{Status: http.StatusOK, Header: make(http.Header)}
	}

	cp := *r
	cp.Header = r.Header.Clone()
	if cp.Header == nil {
		cp.Header = make(http.Header)
	}

	cp.Cookies = append([]*http.Cookie(nil), r.Cookies...)
	if cp.Status == 0 {
		cp.Status = http.StatusOK
	}

	return &cp
}

// Error constructs a *Response for status.
// The Body is detail when show is set, otherwise the status' text.
func Error(status int, detail string, show bool) *Response {
	body := http.StatusText(status)
	if show && detail != "" {
		body = detail
	}

	return &Response{
		Body:       body,
		Status:     status,
		StatusText: http.StatusText(status),
		Header:     http.Header{"Content-Type": {"text/plain; charset=utf-8"}},
	}
}

// AddCookie appends c to the cookies r sets.
func (r *Response) AddCookie(c *http.Cookie) {
	if c != nil {
		r.Cookies = append(r.Cookies, c)
	}
}

// CacheControl marks the Response as cacheable by the client.
func CacheControl() Fn {
	return func(r *Response) error {
		r.CacheControl = true
		return nil
	}
}

// Code sets the response status code.
func Code(c int) Fn {
	return func(r *Response) error {
		if http.StatusText(c) == "" {
			return fmt.Errorf("%w: status code %d", ErrInvalid, c)
		}

		r.Status = c
		return nil
	}
}

// Cookie adds c to the cookies set by the Response.
func Cookie(c *http.Cookie) Fn {
	return func(r *Response) error {
		if c == nil || c.Name == "" {
			return fmt.Errorf("%w: cookie without a name", ErrMissingData)
		}

		r.AddCookie(c)
		return nil
	}
}

// Data stores the provided value as the body to write to the client.
func Data(d any) Fn {
	return func(r *Response) error {
		r.Body = d
		return nil
	}
}

// File sets the path of a file whose contents are written to the client.
// Its Content-Type comes from its extension.
func File(fp string) Fn {
	return func(r *Response) error {
		if fp == "" {
			return fmt.Errorf("%w: file path", ErrMissingData)
		}

		r.File = fp
		return nil
	}
}

// Header sets the response header key to val.
func Header(key, val string) Fn {
	return func(r *Response) error {
		r.Header.Set(key, val)
		return nil
	}
}

// Param adds the query parameter to the URL the Response redirects to.
//
// Used after Redirect.
func Param(key, val string) Fn {
	return func(r *Response) error {
		if r.Location == "" {
			return fmt.Errorf("%w: Redirect() has not been called", ErrMissingData)
		}

		u, err := url.Parse(r.Location)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrInvalid, err)
		}

		q := u.Query()
		q.Add(key, val)
		u.RawQuery = q.Encode()
		r.Location = u.String()
		return nil
	}
}

// Redirect sets the URL the Response redirects to, and, unless status is already a redirect,
// the status to http.StatusSeeOther.
func Redirect(u string) Fn {
	return func(r *Response) error {
		parsed, err := url.Parse(u)
		if err != nil || u == "" {
			return fmt.Errorf("%w: %q is not a valid URL: %v", ErrInvalid, u, err)
		}

		r.Location = parsed.String()
		if r.Status < http.StatusMultipleChoices || r.Status >= http.StatusBadRequest {
			r.Status = http.StatusSeeOther
		}

		return nil
	}
}

// StatusText overrides the text describing the status code.
func StatusText(text string) Fn {
	return func(r *Response) error {
		r.StatusText = text
		return nil
	}
}
