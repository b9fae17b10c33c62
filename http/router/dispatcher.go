package router

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/xy-planning-network/waypoint"
	"github.com/xy-planning-network/waypoint/http/req"
	"github.com/xy-planning-network/waypoint/http/resp"
	"github.com/xy-planning-network/waypoint/http/route"
	"github.com/xy-planning-network/waypoint/http/session"
	"github.com/xy-planning-network/waypoint/logger"
)

type public struct {
	prefix string
	dir    string
}

// A Dispatcher answers requests with the Units of a route.Tree,
// establishing a session for each.
//
// Handle runs these phases in order, any of which may answer the request:
//
//  1. redirect requests not made over HTTPS, if configured;
//  2. the RequestReceived hook;
//  3. serve public files;
//  4. start the session and resolve the Unit, or answer with the NotFound hook or a 404;
//  5. refuse clients the Unit does not allow with a 401;
//  6. the BeforeExecute hook;
//  7. call the member of the Unit handling the request;
//  8. call Finally on the Unit, once, whatever happened in 7;
//  9. normalize the result into a *resp.Response;
//  10. persist the session and set its cookie.
//
// A failure in any phase is logged and answered without stopping the Dispatcher,
// panics in Units and hooks included.
type Dispatcher struct {
	tree     *route.Tree
	sessions *session.Manager

	hooks          Hooks
	l              logger.Logger
	metrics        *Metrics
	normalizer     route.Normalizer
	parser         *req.Parser
	public         *public
	secureRedirect bool
	securePort     string
	showErrors     bool
}

// NewDispatcher constructs a *Dispatcher resolving requests against tree
// and establishing sessions with sessions.
func NewDispatcher(tree *route.Tree, sessions *session.Manager, opts ...DispatcherOpt) (*Dispatcher, error) {
	if tree == nil {
		return nil, fmt.Errorf("%w: route tree cannot be nil", waypoint.ErrBadConfig)
	}

	if sessions == nil {
		return nil, fmt.Errorf("%w: session manager cannot be nil", waypoint.ErrBadConfig)
	}

	d := &Dispatcher{
		tree:     tree,
		sessions: sessions,
		l:        logger.NewLogger(),
		parser:   req.NewParser(0, nil),
	}

	for _, opt := range opts {
		opt(d)
	}

	if d.public != nil {
		if d.public.dir == "" || !strings.HasPrefix(d.public.prefix, "/") {
			return nil, fmt.Errorf("%w: public prefix %q and directory %q", waypoint.ErrBadConfig, d.public.prefix, d.public.dir)
		}
	}

	return d, nil
}

// ServeHTTP reads r with the Dispatcher's *req.Parser, calls Handle,
// and writes the result to w.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rq, err := d.parser.FromHTTP(w, r)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, req.ErrTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}

		d.l.Warn("failed reading request", &logger.LogContext{Error: err, Request: r})
		d.write(w, resp.Error(status, err.Error(), d.showErrors), nil)
		return
	}

	d.write(w, d.Handle(r.Context(), rq), rq)
}

// Handle answers r.
//
// Cancelling ctx does not abort handling r; only its values are used.
func (d *Dispatcher) Handle(ctx context.Context, r *req.Request) *resp.Response {
	start := time.Now()
	res, outcome := d.handle(detached{ctx}, r)
	d.metrics.observe(r.Method, outcome, res.Status, start)
	return res
}

func (d *Dispatcher) handle(ctx context.Context, r *req.Request) (*resp.Response, string) {
	if d.secureRedirect && !r.Secure() {
		res, err := resp.New(resp.Code(http.StatusPermanentRedirect), resp.Redirect(r.SecureURL(d.securePort)))
		if err != nil {
			return d.fail(r, nil, http.StatusBadRequest, err), OutcomeError
		}

		return res, OutcomeRedirect
	}

	if fn := d.hooks.RequestReceived; fn != nil {
		var res *resp.Response
		err := guard(func() (err error) {
			res, err = fn(ctx, r)
			return err
		})

		if err != nil {
			return d.fail(r, nil, http.StatusServiceUnavailable, fmt.Errorf("%w: request received: %w", ErrHook, err)), OutcomeError
		}

		if res != nil {
			return resp.Wrap(res), OutcomeShortCircuit
		}
	}

	if res := d.static(r); res != nil {
		return res, OutcomeStatic
	}

	s, err := d.sessions.Start(ctx, session.Info{
		IP:        r.RemoteIP,
		Hostname:  r.Hostname,
		UserAgent: r.UserAgent(),
		Token:     r.Cookie(session.CookieName),
	})
	if err != nil {
		return d.fail(r, nil, http.StatusInternalServerError, fmt.Errorf("failed starting session: %w", err)), OutcomeError
	}

	res, outcome := d.dispatch(ctx, r, s)

	if err := d.sessions.Save(ctx, s); err != nil {
		d.l.Error("failed saving session", d.logContext(r, s, err))
	}

	res.AddCookie(d.sessions.Cookie(s))
	return res, outcome
}

// dispatch runs the phases of Handle that have a session.
func (d *Dispatcher) dispatch(ctx context.Context, r *req.Request, s *session.Session) (*resp.Response, string) {
	c := route.NewContext(ctx, r, s, "")

	m, err := d.tree.Resolve(d.normalizer.Normalize(r.Path))
	if err != nil {
		return d.notFound(c, err)
	}

	c.Unit = m.Unit

	var u route.Unit
	if err := guard(func() error {
		u = m.Factory(c)
		return nil
	}); err != nil || u == nil {
		if err == nil {
			err = fmt.Errorf("factory for %q returned no unit", m.Unit)
		}

		return d.fail(r, s, http.StatusInternalServerError, err), OutcomeError
	}

	if !allowed(u, r.RemoteIP) {
		err := fmt.Errorf("%w: %s to %q", ErrAccessDenied, r.RemoteIP, m.Unit)
		return d.fail(r, s, http.StatusUnauthorized, err), OutcomeDenied
	}

	if fn := d.hooks.BeforeExecute; fn != nil {
		var res *resp.Response
		err := guard(func() (err error) {
			res, err = fn(c, u)
			return err
		})

		if err != nil {
			return d.fail(r, s, http.StatusInternalServerError, fmt.Errorf("%w: before execute: %w", ErrHook, err)), OutcomeError
		}

		if res != nil {
			return resp.Wrap(res), OutcomeShortCircuit
		}
	}

	res, outcome := d.execute(c, m, u)

	if f, ok := u.(route.Finalizer); ok {
		if err := guard(func() error { return f.Finally(c) }); err != nil {
			return d.fail(r, s, http.StatusInternalServerError, fmt.Errorf("finally in %q: %w", m.Unit, err)), OutcomeError
		}
	}

	return res, outcome
}

// execute looks up and calls the member of u handling the request.
func (d *Dispatcher) execute(c *route.Context, m *route.Match, u route.Unit) (*resp.Response, string) {
	r, s := c.Request, c.Session

	call, err := m.Lookup(u, r.Method)
	if errors.Is(err, route.ErrNotFound) {
		return d.notFound(c, err)
	}

	if err != nil {
		return d.fail(r, s, http.StatusInternalServerError, err), OutcomeError
	}

	var val any
	if err := guard(func() (err error) {
		val, err = call.Invoke(c)
		return err
	}); err != nil {
		return d.fail(r, s, http.StatusInternalServerError, fmt.Errorf("%s in %q: %w", call.Name, m.Unit, err)), OutcomeError
	}

	return resp.Wrap(val), OutcomeOK
}

func (d *Dispatcher) notFound(c *route.Context, cause error) (*resp.Response, string) {
	r, s := c.Request, c.Session
	d.l.Debug("route not found", d.logContext(r, s, cause))

	if fn := d.hooks.NotFound; fn != nil {
		var res *resp.Response
		err := guard(func() (err error) {
			res, err = fn(c, cause)
			return err
		})

		if err != nil {
			return d.fail(r, s, http.StatusInternalServerError, fmt.Errorf("%w: not found: %w", ErrHook, err)), OutcomeError
		}

		if res != nil {
			return resp.Wrap(res), OutcomeNotFound
		}
	}

	return resp.Error(http.StatusNotFound, cause.Error(), d.showErrors), OutcomeNotFound
}

// static answers r with a public file, if r asks for one that exists.
func (d *Dispatcher) static(r *req.Request) *resp.Response {
	if d.public == nil {
		return nil
	}

	p := d.normalizer.StripBase(r.Path)
	prefix := strings.TrimSuffix(d.public.prefix, "/")
	if p != prefix && !strings.HasPrefix(p, prefix+"/") {
		return nil
	}

	segs := route.Segments(strings.TrimPrefix(p, prefix))
	if len(segs) == 0 {
		return nil
	}

	fp := filepath.Join(append([]string{d.public.dir}, segs...)...)
	info, err := os.Stat(fp)
	if err != nil || !info.Mode().IsRegular() {
		return nil
	}

	return resp.Must(resp.File(fp), resp.CacheControl())
}

// fail logs err and converts it into a *resp.Response with status.
func (d *Dispatcher) fail(r *req.Request, s *session.Session, status int, err error) *resp.Response {
	lc := d.logContext(r, s, err)
	lc.Data["status"] = status
	switch {
	case status >= http.StatusInternalServerError:
		d.l.Error(http.StatusText(status), lc)
	default:
		d.l.Warn(http.StatusText(status), lc)
	}

	return resp.Error(status, err.Error(), d.showErrors)
}

// write sends res to w, answering with a 500 instead if res cannot be sent.
func (d *Dispatcher) write(w http.ResponseWriter, res *resp.Response, r *req.Request) {
	err := resp.Write(w, res)
	if err == nil {
		return
	}

	lc := &logger.LogContext{Error: err}
	if r != nil {
		lc.Addr, lc.Path = r.RemoteIP, r.Path
	}

	d.l.Error("failed writing response", lc)
	if errors.Is(err, resp.ErrWritten) {
		return
	}

	fallback := resp.Error(http.StatusInternalServerError, err.Error(), d.showErrors)
	fallback.Cookies = res.Cookies
	if err := resp.Write(w, fallback); err != nil {
		d.l.Error("failed writing response", &logger.LogContext{Error: err})
	}
}

func (d *Dispatcher) logContext(r *req.Request, s *session.Session, err error) *logger.LogContext {
	lc := &logger.LogContext{Error: err, Addr: r.RemoteIP, Path: r.Path, Data: make(map[string]any)}
	if s != nil {
		lc.SessionID = s.ID()
	}

	if r.ID != "" {
		lc.Data["requestID"] = r.ID
	}

	return lc
}

// guard calls fn, converting a panic into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v\n%s", ErrPanic, p, debug.Stack())
		}
	}()

	return fn()
}

// detached is a context.Context whose values are those of its parent
// but that is never done.
type detached struct {
	context.Context
}

func (detached) Deadline() (time.Time, bool) { return time.Time{}, false }
func (detached) Done() <-chan struct{}       { return nil }
func (detached) Err() error                  { return nil }
