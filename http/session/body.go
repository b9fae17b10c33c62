package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// A Body is the persisted state of a session.
//
// Data is the only part of a Body handlers read from or write to;
// the rest binds the session to the client that opened it.
//
// Since a Body round-trips through JSON in every Store,
// numeric values in Data read back as float64.
type Body struct {
	IP        string         `json:"ip"`
	Hostname  string         `json:"hostname"`
	UserAgent string         `json:"userAgent"`
	LastCheck time.Time      `json:"lastCheck"`
	Data      map[string]any `json:"data"`
}

// newBody constructs a Body bound to the client described by info.
func newBody(info Info, now time.Time) *Body {
	return &Body{
		IP:        info.IP,
		Hostname:  info.Hostname,
		UserAgent: info.UserAgent,
		LastCheck: now,
		Data:      make(map[string]any),
	}
}

// Expired reports whether b was last checked before now minus window.
// A Body checked exactly at the boundary has not expired.
// A zero window never expires.
func (b *Body) Expired(now time.Time, window time.Duration) bool {
	if window <= 0 {
		return false
	}

	return b.LastCheck.Before(now.Add(-window))
}

// BoundTo reports whether b belongs to the client described by info.
func (b *Body) BoundTo(info Info) bool {
	return b.UserAgent == info.UserAgent && b.Hostname == info.Hostname
}

// encodeBody marshals b, indenting the JSON when pretty is set.
func encodeBody(b *Body, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(b, "", "  ")
	}

	return json.Marshal(b)
}

// decodeBody unmarshals raw into a *Body, returning ErrMalformed
// for anything that is not a well-formed Body.
func decodeBody(raw []byte) (*Body, error) {
	b := new(Body)
	if err := json.Unmarshal(raw, b); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformed, err)
	}

	if b.LastCheck.IsZero() {
		return nil, fmt.Errorf("%w: missing lastCheck", ErrMalformed)
	}

	if b.Data == nil {
		b.Data = make(map[string]any)
	}

	return b, nil
}

// ValidID reports whether id has the canonical UUID shape session identifiers use.
func ValidID(id string) bool {
	if len(id) != 36 {
		return false
	}

	_, err := uuid.Parse(id)
	return err == nil
}

// randomID draws a version 4 UUID.
func randomID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}

	return id.String(), nil
}
