package req

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xy-planning-network/waypoint"
	"github.com/xy-planning-network/waypoint/logger"
)

// Uploads stages uploaded files in a directory and sweeps out old ones.
type Uploads struct {
	dir string
	l   logger.Logger
}

// NewUploads constructs an *Uploads staging files in dir, creating dir if needed.
func NewUploads(dir string, l logger.Logger) (*Uploads, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: upload directory cannot be empty", waypoint.ErrBadConfig)
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("%w: %s", waypoint.ErrBadConfig, err)
	}

	if l == nil {
		l = logger.NewLogger()
	}

	return &Uploads{dir: dir, l: l}, nil
}

// Dir returns the directory files are staged in.
func (u *Uploads) Dir() string { return u.dir }

// Stage copies the file fh describes into the upload directory under a random name,
// keeping the file's extension.
func (u *Uploads) Stage(field string, fh *multipart.FileHeader) (File, error) {
	src, err := fh.Open()
	if err != nil {
		return File{}, fmt.Errorf("%w: %s", ErrBadRequest, err)
	}
	defer src.Close()

	ext := strings.ToLower(filepath.Ext(filepath.Base(fh.Filename)))
	fp := filepath.Join(u.dir, uuid.NewString()+ext)

	dst, err := os.OpenFile(fp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return File{}, err
	}

	n, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}

	if err != nil {
		os.Remove(fp)
		return File{}, translateReadError(err)
	}

	return File{
		Field:       field,
		Name:        fh.Filename,
		Path:        fp,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        n,
	}, nil
}

// Sweep removes staged files last modified before olderThan.
func (u *Uploads) Sweep(ctx context.Context, olderThan time.Time) (int, error) {
	entries, err := os.ReadDir(u.dir)
	if err != nil {
		return 0, err
	}

	var n int
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return n, err
		}

		if entry.IsDir() {
			continue
		}

		info, err := entry.Info()
		if errors.Is(err, os.ErrNotExist) {
			continue
		}

		if err != nil {
			return n, err
		}

		if !info.ModTime().Before(olderThan) {
			continue
		}

		if err := os.Remove(filepath.Join(u.dir, entry.Name())); err == nil {
			n++
		}
	}

	return n, nil
}

// Run calls Sweep every interval, removing files older than maxAge, until ctx is done.
// Run blocks; call it in its own goroutine.
func (u *Uploads) Run(ctx context.Context, interval, maxAge time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := u.Sweep(ctx, now.Add(-maxAge))
			if err != nil && !errors.Is(err, context.Canceled) {
				u.l.Error("failed sweeping uploads", &logger.LogContext{Error: err, Data: map[string]any{"dir": u.dir}})
				continue
			}

			if n > 0 {
				u.l.Debug(fmt.Sprintf("swept %d uploads", n), nil)
			}
		}
	}
}
