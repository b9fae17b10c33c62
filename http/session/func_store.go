package session

import (
	"context"
	"fmt"
	"time"

	"github.com/xy-planning-network/waypoint"
)

// Funcs is the set of functions backing a FuncStore.
//
// Get must return a nil *Body and a nil error when nothing is stored under id.
// Expire is optional; without it, sweeping a FuncStore does nothing.
type Funcs struct {
	Get    func(ctx context.Context, id string) (*Body, error)
	Save   func(ctx context.Context, id string, body *Body) error
	Delete func(ctx context.Context, id string) error
	Expire func(ctx context.Context, olderThan time.Time) (int, error)
}

// A FuncStore delegates storage to externally supplied Funcs,
// like those of RedisFuncs or postgres.SessionFuncs.
type FuncStore struct {
	fns Funcs
}

// NewFuncStore constructs a *FuncStore, requiring fns.Get, fns.Save, and fns.Delete.
func NewFuncStore(fns Funcs) (*FuncStore, error) {
	if fns.Get == nil || fns.Save == nil || fns.Delete == nil {
		return nil, fmt.Errorf("%w: func store requires Get, Save, and Delete", waypoint.ErrBadConfig)
	}

	return &FuncStore{fns: fns}, nil
}

// Get calls Funcs.Get.
//
// Get treats a failing Funcs.Get as if nothing were stored under id:
// it calls Funcs.Delete for id, ignoring any error from doing so,
// and reports ErrNotFound.
func (f *FuncStore) Get(ctx context.Context, id string) (*Body, error) {
	b, err := f.fns.Get(ctx, id)
	if err != nil {
		_ = f.fns.Delete(ctx, id)
		return nil, fmt.Errorf("%w: %s", ErrNotFound, err)
	}

	if b == nil {
		return nil, ErrNotFound
	}

	if b.LastCheck.IsZero() {
		_ = f.fns.Delete(ctx, id)
		return nil, fmt.Errorf("%w: missing lastCheck", ErrNotFound)
	}

	if b.Data == nil {
		b.Data = make(map[string]any)
	}

	return b, nil
}

// Save calls Funcs.Save.
func (f *FuncStore) Save(ctx context.Context, id string, body *Body) error {
	return f.fns.Save(ctx, id, body)
}

// Delete calls Funcs.Delete.
func (f *FuncStore) Delete(ctx context.Context, id string) error {
	return f.fns.Delete(ctx, id)
}

// Sweep calls Funcs.Expire, if set.
func (f *FuncStore) Sweep(ctx context.Context, olderThan time.Time) (int, error) {
	if f.fns.Expire == nil {
		return 0, nil
	}

	return f.fns.Expire(ctx, olderThan)
}
