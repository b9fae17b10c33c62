package session

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xy-planning-network/waypoint"
)

const fileExt = ".json"

// A FileStore keeps one JSON document per session, named <id>.json, in a directory.
//
// Writes for different identifiers never contend.
// Two requests writing the same identifier race and the last write wins;
// each write replaces the file through a rename, so readers never see a partial document.
type FileStore struct {
	dir    string
	pretty bool
}

// NewFileStore constructs a *FileStore in dir, creating dir if necessary.
// When pretty is set, documents are indented.
func NewFileStore(dir string, pretty bool) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: file store requires a directory", waypoint.ErrBadConfig)
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("%w: cannot create %s: %s", waypoint.ErrBadConfig, dir, err)
	}

	return &FileStore{dir: dir, pretty: pretty}, nil
}

// Dir returns the directory the *FileStore writes to.
func (f *FileStore) Dir() string { return f.dir }

// Get reads the Body stored under id.
//
// A document that cannot be read or parsed is deleted
// and Get reports ErrNotFound.
func (f *FileStore) Get(_ context.Context, id string) (*Body, error) {
	if !ValidID(id) {
		return nil, ErrNotFound
	}

	fp := f.path(id)
	raw, err := os.ReadFile(fp)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}

	if err == nil {
		var b *Body
		if b, err = decodeBody(raw); err == nil {
			return b, nil
		}
	}

	_ = os.Remove(fp)
	return nil, fmt.Errorf("%w: %s", ErrNotFound, err)
}

// Save writes body under id.
func (f *FileStore) Save(_ context.Context, id string, body *Body) error {
	if !ValidID(id) {
		return fmt.Errorf("%w: session id %q", waypoint.ErrNotValid, id)
	}

	raw, err := encodeBody(body, f.pretty)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.dir, id+".*.tmp")
	if err != nil {
		return err
	}

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	return os.Rename(tmp.Name(), f.path(id))
}

// Delete removes the document stored under id, if any.
func (f *FileStore) Delete(_ context.Context, id string) error {
	if !ValidID(id) {
		return nil
	}

	err := os.Remove(f.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	return err
}

// Sweep scans the directory, deleting every document last checked before olderThan
// or that cannot be parsed.
func (f *FileStore) Sweep(ctx context.Context, olderThan time.Time) (int, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return 0, err
	}

	var n int
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return n, err
		}

		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}

		fp := filepath.Join(f.dir, name)
		raw, err := os.ReadFile(fp)
		if err != nil {
			continue
		}

		b, err := decodeBody(raw)
		if err != nil || b.LastCheck.Before(olderThan) {
			if err := os.Remove(fp); err == nil {
				n++
			}
		}
	}

	return n, nil
}

func (f *FileStore) path(id string) string {
	return filepath.Join(f.dir, id+fileExt)
}
