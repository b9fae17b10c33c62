package session

import "time"

// A Session is the session established for one request.
//
// Handlers read and write its data through Get, Set, and Delete;
// the Manager that started it persists those changes with Save.
// A Session is not safe for concurrent use.
type Session struct {
	id        string
	token     string
	body      *Body
	destroyed bool
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Token returns the freshly signed token wrapping the session identifier.
func (s *Session) Token() string { return s.token }

// LastCheck returns when the session was last validated.
func (s *Session) LastCheck() time.Time { return s.body.LastCheck }

// Destroyed reports whether the session has been destroyed by its Manager.
func (s *Session) Destroyed() bool { return s.destroyed }

// Get retrieves the value stored under key, or nil.
func (s *Session) Get(key string) any { return s.body.Data[key] }

// Set stores val under key.
func (s *Session) Set(key string, val any) { s.body.Data[key] = val }

// Delete removes the value stored under key.
func (s *Session) Delete(key string) { delete(s.body.Data, key) }

// Data returns a copy of all key-value pairs in the session.
func (s *Session) Data() map[string]any {
	out := make(map[string]any, len(s.body.Data))
	for k, v := range s.body.Data {
		out[k] = v
	}

	return out
}

var _ Sessionable = (*Session)(nil)

// The Sessionable wraps the methods handlers use to read and write session data.
type Sessionable interface {
	ID() string
	Get(key string) any
	Set(key string, val any)
	Delete(key string)
}
