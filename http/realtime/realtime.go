package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gorilla/websocket"
	"github.com/xy-planning-network/waypoint"
	"github.com/xy-planning-network/waypoint/http/req"
	"github.com/xy-planning-network/waypoint/http/route"
	"github.com/xy-planning-network/waypoint/http/session"
	"github.com/xy-planning-network/waypoint/logger"
)

// UnitName is the unit name handlers see on the *route.Context of a realtime event.
const UnitName = "realtime"

// DefaultReadLimit caps the size in bytes of a single inbound frame.
const DefaultReadLimit = 1 << 16

// A Handler upgrades requests to websocket connections
// and dispatches each message they carry to an EventHandler.
type Handler struct {
	events    map[string]EventHandler
	sessions  *session.Manager
	parser    *req.Parser
	upgrader  websocket.Upgrader
	readLimit int64
	l         logger.Logger
}

// An Option configures a *Handler.
type Option func(*Handler)

// WithCheckOrigin sets the function deciding whether an upgrade's Origin is acceptable.
// By default, only same host origins are.
func WithCheckOrigin(fn func(*http.Request) bool) Option {
	return func(h *Handler) {
		h.upgrader.CheckOrigin = fn
	}
}

// WithLogger sets the logger.Logger the *Handler logs with.
func WithLogger(l logger.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.l = l
		}
	}
}

// WithParser sets the *req.Parser normalizing upgrade requests.
func WithParser(p *req.Parser) Option {
	return func(h *Handler) {
		if p != nil {
			h.parser = p
		}
	}
}

// WithReadLimit caps the size of inbound frames.
func WithReadLimit(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.readLimit = n
		}
	}
}

// New constructs a *Handler dispatching to events,
// establishing sessions for each connection with sessions.
func New(sessions *session.Manager, events map[string]EventHandler, opts ...Option) (*Handler, error) {
	if sessions == nil {
		return nil, fmt.Errorf("%w: no session manager", waypoint.ErrBadConfig)
	}

	h := &Handler{
		events:    make(map[string]EventHandler, len(events)),
		sessions:  sessions,
		parser:    req.NewParser(0, nil),
		readLimit: DefaultReadLimit,
		l:         logger.NewLogger(),
	}

	for name, fn := range events {
		if fn == nil {
			return nil, fmt.Errorf("%w: nil handler for event %q", waypoint.ErrBadConfig, name)
		}

		h.events[name] = fn
	}

	for _, opt := range opts {
		opt(h)
	}

	return h, nil
}

// ServeHTTP starts a session for the request, upgrades it
// and reads messages until the client goes away.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		http.Error(w, "websocket upgrade required", http.StatusUpgradeRequired)
		return
	}

	rq, err := h.parser.FromHTTP(w, r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	s, err := h.sessions.Start(ctx, session.Info{
		IP:        rq.RemoteIP,
		Hostname:  rq.Hostname,
		UserAgent: rq.UserAgent(),
		Token:     rq.Cookie(session.CookieName),
	})
	if err != nil {
		h.l.Error("failed starting session", &logger.LogContext{Error: err, Addr: rq.RemoteIP, Path: rq.Path})
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if err := h.sessions.Save(ctx, s); err != nil {
		h.l.Error("failed saving session", h.logContext(rq, s, err))
	}

	header := http.Header{}
	header.Add("Set-Cookie", h.sessions.Cookie(s).String())
	conn, err := h.upgrader.Upgrade(w, r, header)
	if err != nil {
		// Upgrade already answered the client.
		h.l.Warn("failed upgrading connection", h.logContext(rq, s, err))
		return
	}
	defer conn.Close()

	conn.SetReadLimit(h.readLimit)
	h.serve(ctx, conn, route.NewContext(ctx, rq, s, UnitName))
}

// serve reads messages off conn until it closes.
func (h *Handler) serve(ctx context.Context, conn *websocket.Conn, rc *route.Context) {
	for {
		typ, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.l.Warn("realtime connection closed", h.logContext(rc.Request, rc.Session, err))
			}
			return
		}

		if typ != websocket.TextMessage {
			continue
		}

		reply := h.handle(rc, raw)
		if err := h.sessions.Save(ctx, rc.Session); err != nil {
			h.l.Error("failed saving session", h.logContext(rc.Request, rc.Session, err))
		}

		if reply == nil {
			continue
		}

		if err := conn.WriteJSON(reply); err != nil {
			h.l.Warn("failed writing realtime reply", h.logContext(rc.Request, rc.Session, err))
			return
		}
	}
}

// handle dispatches a single raw message, returning the Message to reply with, if any.
func (h *Handler) handle(rc *route.Context, raw []byte) *Message {
	in, err := decodeMessage(raw)
	if err != nil {
		h.l.Debug(err.Error(), h.logContext(rc.Request, rc.Session, err))
		return &Message{Event: ErrorEvent}
	}

	fn, ok := h.events[in.Event]
	if !ok {
		h.l.Debug(ErrUnknownEvent.Error(), &logger.LogContext{
			Addr: rc.Request.RemoteIP,
			Data: map[string]any{"event": in.Event},
		})
		return &Message{Event: ErrorEvent}
	}

	out, err := call(fn, rc, in.Data)
	if err != nil {
		lc := h.logContext(rc.Request, rc.Session, err)
		lc.Data = map[string]any{"event": in.Event}
		h.l.Error("failed handling realtime event", lc)
		return &Message{Event: ErrorEvent, Data: in.Event}
	}

	if out == nil {
		return nil
	}

	return &Message{Event: in.Event, Data: out}
}

// call runs fn, converting a panic into an error.
func call(fn EventHandler, rc *route.Context, data json.RawMessage) (out any, err error) {
	defer func() {
		if p := recover(); p != nil {
			out, err = nil, fmt.Errorf("%w: %v\n%s", ErrPanic, p, debug.Stack())
		}
	}()

	return fn(rc, data)
}

func (h *Handler) logContext(r *req.Request, s *session.Session, err error) *logger.LogContext {
	lc := &logger.LogContext{Error: err}
	if r != nil {
		lc.Addr, lc.Path = r.RemoteIP, r.Path
	}

	if s != nil {
		lc.SessionID = s.ID()
	}

	return lc
}
