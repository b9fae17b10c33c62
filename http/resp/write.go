package resp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

const (
	cacheMaxAge = "max-age=2592000" // 30 days

	// maxPooledSize caps the capacity of buffers returned to pool.
	maxPooledSize = 1 << 16
)

// Pool of *bytes.Buffer to prerender responses into.
var pool = &sync.Pool{New: func() any { return new(bytes.Buffer) }}

// Write sends r to w, leaving r unchanged.
//
// Write renders the whole body before sending anything,
// draining an io.Reader Body and reading File,
// so that a failure leaves w untouched for an error to be written instead.
// A failure after the status has been sent wraps ErrWritten.
// Values other than strings, byte slices and readers are encoded as JSON.
//
// net/http always sends the standard text for r.Status; r.StatusText is not sent.
func Write(w http.ResponseWriter, r *Response) error {
	b := pool.Get().(*bytes.Buffer)
	b.Reset()
	defer release(b)

	contentType, err := render(b, r)
	if err != nil {
		return err
	}

	h := w.Header()
	for k, vals := range r.Header {
		h[k] = append([]string(nil), vals...)
	}

	if h.Get("Content-Type") == "" && contentType != "" {
		h.Set("Content-Type", contentType)
	}

	if h.Get("Cache-Control") == "" {
		if r.CacheControl {
			h.Set("Cache-Control", cacheMaxAge)
		} else {
			h.Set("Cache-Control", "no-store")
			h.Set("Pragma", "no-cache")
		}
	}

	if r.Location != "" {
		h.Set("Location", r.Location)
	}

	for _, c := range r.Cookies {
		http.SetCookie(w, c)
	}

	status := r.Status
	if status == 0 {
		status = http.StatusOK
	}

	if b.Len() > 0 {
		h.Set("Content-Length", strconv.Itoa(b.Len()))
	}

	w.WriteHeader(status)
	if b.Len() == 0 {
		return nil
	}

	if _, err := w.Write(b.Bytes()); err != nil {
		return fmt.Errorf("%w: %w", ErrWritten, err)
	}

	return nil
}

// release returns b to pool unless it grew past maxPooledSize.
func release(b *bytes.Buffer) {
	if b.Cap() > maxPooledSize {
		return
	}

	pool.Put(b)
}

// render writes the body of r into b, returning the Content-Type it implies, if any.
func render(b *bytes.Buffer, r *Response) (string, error) {
	if r.File != "" {
		raw, err := os.ReadFile(r.File)
		if err != nil {
			return "", fmt.Errorf("%w: reading %s: %s", ErrMissingData, r.File, err)
		}

		b.Write(raw)
		if ct := mime.TypeByExtension(filepath.Ext(r.File)); ct != "" {
			return ct, nil
		}

		return http.DetectContentType(raw), nil
	}

	switch body := r.Body.(type) {
	case nil:
		return "", nil
	case string:
		b.WriteString(body)
	case []byte:
		b.Write(body)
	case io.Reader:
		if c, ok := body.(io.Closer); ok {
			defer c.Close()
		}

		if _, err := io.Copy(b, body); err != nil {
			return "", fmt.Errorf("failed draining response body: %w", err)
		}
	default:
		if err := json.NewEncoder(b).Encode(body); err != nil {
			return "", fmt.Errorf("%w: failed encoding %T: %s", ErrInvalid, body, err)
		}

		return "application/json", nil
	}

	if b.Len() == 0 {
		return "", nil
	}

	return http.DetectContentType(b.Bytes()), nil
}
