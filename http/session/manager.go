package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	gorilla "github.com/gorilla/sessions"
	"github.com/xy-planning-network/waypoint"
	"github.com/xy-planning-network/waypoint/logger"
)

// CookieName names the cookie carrying the session token.
const CookieName = "hs"

// Info describes the client a session is established for.
type Info struct {
	IP        string
	Hostname  string
	UserAgent string

	// Token is the session token the client presented, if any.
	Token string
}

// A Manager establishes, validates, regenerates, and persists sessions
// in a single Store.
type Manager struct {
	store    Store
	signer   *Signer
	window   time.Duration
	sameSite http.SameSite
	l        logger.Logger
	now      func() time.Time
	newID    func() (string, error)
}

// A ManagerOpt configures a *Manager when constructing one.
type ManagerOpt func(*Manager)

// WithClock replaces time.Now as the Manager's source of the current time.
func WithClock(now func() time.Time) ManagerOpt {
	return func(m *Manager) {
		m.now = now
	}
}

// WithIDGenerator replaces the random UUID generator drawing session identifiers.
func WithIDGenerator(fn func() (string, error)) ManagerOpt {
	return func(m *Manager) {
		m.newID = fn
	}
}

// WithLogger sets the logger.Logger the Manager reports recovered failures to.
func WithLogger(l logger.Logger) ManagerOpt {
	return func(m *Manager) {
		m.l = l
	}
}

// WithSameSite sets the SameSite attribute of session cookies.
// The default is http.SameSiteLaxMode.
func WithSameSite(mode http.SameSite) ManagerOpt {
	return func(m *Manager) {
		m.sameSite = mode
	}
}

// NewManager constructs a *Manager storing sessions in store,
// signing tokens with secret, and expiring sessions unchecked for minutes.
// Zero minutes disables expiration.
func NewManager(store Store, secret string, minutes int, opts ...ManagerOpt) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: session store cannot be nil", waypoint.ErrBadConfig)
	}

	if minutes < 0 {
		return nil, fmt.Errorf("%w: minutes of expiration cannot be negative: %d", waypoint.ErrBadConfig, minutes)
	}

	signer, err := NewSigner(secret)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		store:    store,
		signer:   signer,
		window:   time.Duration(minutes) * time.Minute,
		sameSite: http.SameSiteLaxMode,
		l:        logger.NewLogger(),
		now:      time.Now,
		newID:    randomID,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

// Window returns how long a session remains valid without being checked.
func (m *Manager) Window() time.Duration { return m.window }

// Start establishes the session for the client described by info.
//
// Start verifies info.Token and loads the Body stored under the identifier it wraps.
// A missing or unverifiable token, a Body that is missing, unreadable, expired,
// or bound to another user agent or hostname, each lead to a new identifier
// and a fresh Body; data from a discarded Body never carries over.
// An identifier a client presents is never adopted without a Body stored under it.
//
// Start always persists the Body and signs a fresh token, even if the identifier did not change.
// Failing to persist is logged, not returned; errors return only when no Session can be established.
func (m *Manager) Start(ctx context.Context, info Info) (*Session, error) {
	id, err := m.signer.Verify(info.Token)
	supplied := err == nil
	if !supplied {
		if id, err = m.generateID(ctx); err != nil {
			return nil, err
		}
	}

	var body *Body
	for body == nil {
		stored, err := m.store.Get(ctx, id)
		switch {
		case err == nil && !stored.Expired(m.now(), m.window) && stored.BoundTo(info):
			stored.LastCheck = m.now()
			body = stored

		case err == nil:
			m.discard(ctx, id, errors.New("session expired or bound to another client"))
			if id, err = m.generateID(ctx); err != nil {
				return nil, err
			}

			supplied = false

		case errors.Is(err, ErrNotFound):
			if supplied {
				if id, err = m.generateID(ctx); err != nil {
					return nil, err
				}
			}

			body = newBody(info, m.now())

		default:
			m.discard(ctx, id, err)
			if id, err = m.generateID(ctx); err != nil {
				return nil, err
			}

			body = newBody(info, m.now())
		}
	}

	s := &Session{id: id, body: body}
	if err := m.store.Save(ctx, id, body); err != nil {
		m.l.Error("failed persisting session", &logger.LogContext{Error: err, Addr: info.IP, SessionID: id})
	}

	if s.token, err = m.signer.Sign(id); err != nil {
		return nil, fmt.Errorf("failed signing session token: %w", err)
	}

	return s, nil
}

// Save persists s, unless it has been destroyed.
func (m *Manager) Save(ctx context.Context, s *Session) error {
	if s == nil || s.destroyed {
		return nil
	}

	return m.store.Save(ctx, s.id, s.body)
}

// Destroy deletes s from the Store and clears its data.
// Cookie then expires the client's session cookie.
func (m *Manager) Destroy(ctx context.Context, s *Session) error {
	s.destroyed = true
	s.body.Data = make(map[string]any)
	return m.store.Delete(ctx, s.id)
}

// Cookie builds the cookie carrying the token of s.
// If s has been destroyed, the cookie instructs the client to drop it.
func (m *Manager) Cookie(s *Session) *http.Cookie {
	opts := &gorilla.Options{
		Path:     "/",
		HttpOnly: true,
		SameSite: m.sameSite,
	}

	if s.destroyed {
		opts.MaxAge = -1
		return gorilla.NewCookie(CookieName, "", opts)
	}

	opts.MaxAge = int(m.window.Seconds())
	return gorilla.NewCookie(CookieName, s.token, opts)
}

// Sweep removes every session in the Store that has gone unchecked longer than the expiration window.
func (m *Manager) Sweep(ctx context.Context) (int, error) {
	if m.window <= 0 {
		return 0, nil
	}

	return m.store.Sweep(ctx, m.now().Add(-m.window))
}

// Run calls Sweep every interval until ctx is done.
// Run blocks; call it in its own goroutine.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 || m.window <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := m.Sweep(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				m.l.Error("failed sweeping sessions", &logger.LogContext{Error: err})
				continue
			}

			if n > 0 {
				m.l.Debug(fmt.Sprintf("swept %d sessions", n), nil)
			}
		}
	}
}

// generateID draws identifiers until one is unused in the Store.
func (m *Manager) generateID(ctx context.Context) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		id, err := m.newID()
		if err != nil {
			return "", fmt.Errorf("failed generating session id: %w", err)
		}

		if _, err := m.store.Get(ctx, id); errors.Is(err, ErrNotFound) {
			return id, nil
		}
	}
}

// discard deletes the Body stored under id after it failed validation.
func (m *Manager) discard(ctx context.Context, id string, cause error) {
	m.l.Debug("discarding session", &logger.LogContext{Error: cause, SessionID: id})
	if err := m.store.Delete(ctx, id); err != nil {
		m.l.Warn("failed deleting session", &logger.LogContext{Error: err, SessionID: id})
	}
}
