package basecamp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/handlers"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xy-planning-network/waypoint"
	"github.com/xy-planning-network/waypoint/http/middleware"
	"github.com/xy-planning-network/waypoint/http/realtime"
	"github.com/xy-planning-network/waypoint/http/req"
	"github.com/xy-planning-network/waypoint/http/route"
	"github.com/xy-planning-network/waypoint/http/router"
	"github.com/xy-planning-network/waypoint/http/session"
	"github.com/xy-planning-network/waypoint/logger"
	"gorm.io/gorm"
)

// A Basecamp assembles and runs a waypoint app:
// its route tree, session manager, dispatcher, and listeners.
type Basecamp struct {
	Config

	ctx      context.Context
	db       *gorm.DB
	hooks    router.Hooks
	l        logger.Logger
	redis    redis.UniversalClient
	registry *prometheus.Registry
	tree     *route.Tree
	units    map[string]route.Factory

	// allowUnbound downgrades scanned routes without a unit from an error to a warning.
	allowUnbound bool

	dispatcher *router.Dispatcher
	handler    http.Handler
	sessions   *session.Manager
	store      session.Store
	uploads    *req.Uploads
	listeners  []listener
	closers    []func() error
}

// A listener is a server and whether it serves TLS.
type listener struct {
	srv    *http.Server
	secure bool
}

// New constructs a *Basecamp from the environment and the provided options.
// Options supplied to New overwrite configuration read from the environment.
//
// New fails with waypoint.ErrBadConfig when the resulting Config is invalid
// or when a component cannot be assembled from it.
func New(opts ...Option) (*Basecamp, error) {
	b := &Basecamp{
		Config:   NewConfig(),
		ctx:      context.Background(),
		registry: prometheus.NewRegistry(),
		tree:     route.NewTree(),
		units:    make(map[string]route.Factory),
	}

	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, fmt.Errorf("%w: %s", waypoint.ErrBadConfig, err)
		}
	}

	if err := b.validate(); err != nil {
		return nil, err
	}

	if b.l == nil {
		b.l = defaultLogger(b.Env)
	}

	if err := b.assemble(); err != nil {
		b.close()
		return nil, err
	}

	return b, nil
}

func (b *Basecamp) validate() error {
	err := b.Config.Validate()
	if b.Session.Store == StoreRedis && b.Session.RedisURL == "" && b.redis == nil {
		err = errors.Join(err, fmt.Errorf("%w: redis session store requires %s", waypoint.ErrBadConfig, redisURLEnvVar))
	}

	return err
}

// assemble builds every component from b.Config.
func (b *Basecamp) assemble() error {
	if err := b.buildTree(); err != nil {
		return err
	}

	store, err := b.buildStore()
	if err != nil {
		return err
	}
	b.store = store

	b.sessions, err = session.NewManager(
		store,
		b.Session.Secret,
		b.Session.Minutes,
		session.WithLogger(b.l),
		session.WithSameSite(b.Session.SameSite),
	)
	if err != nil {
		return err
	}

	b.uploads, err = req.NewUploads(b.UploadDir, b.l)
	if err != nil {
		return err
	}

	if err := b.buildHandler(); err != nil {
		return err
	}

	if b.Port != "" {
		b.listeners = append(b.listeners, listener{srv: defaultServer(b.ctx, b.Host, b.Port, b.handler)})
	}

	if b.SecurePort != "" {
		b.listeners = append(b.listeners, listener{srv: defaultServer(b.ctx, b.Host, b.SecurePort, b.handler), secure: true})
	}

	return nil
}

// buildTree scans b.RoutesDir, if any, and registers every unit.
// Scanned leaves without a unit are a waypoint.ErrBadConfig
// unless WithUnboundRoutes is set, in which case they are logged.
func (b *Basecamp) buildTree() error {
	if b.RoutesDir != "" {
		if err := b.tree.Scan(os.DirFS(b.RoutesDir), b.RouteExtensions...); err != nil {
			return fmt.Errorf("%w: scanning routes: %s", waypoint.ErrBadConfig, err)
		}
	}

	for p, f := range b.units {
		if err := b.tree.Register(p, f); err != nil {
			return err
		}
	}

	unbound := b.tree.Unbound()
	if len(unbound) > 0 && !b.allowUnbound {
		return fmt.Errorf("%w: no unit registered for routes %v", waypoint.ErrBadConfig, unbound)
	}

	for _, p := range unbound {
		b.l.Warn("route has no unit registered", &logger.LogContext{Path: p})
	}

	return nil
}

// buildHandler assembles the dispatcher and the router serving it.
func (b *Basecamp) buildHandler() error {
	var rewrites []route.Rewrite
	for _, rw := range b.Rewrites {
		r, err := route.NewRewrite(rw.Pattern, rw.Replacement)
		if err != nil {
			return err
		}

		rewrites = append(rewrites, r)
	}

	err := b.registry.Register(collectors.NewGoCollector())
	if err == nil {
		err = b.registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	if err != nil {
		return fmt.Errorf("%w: registering runtime metrics: %s", waypoint.ErrBadConfig, err)
	}

	metrics, err := router.NewMetrics(b.registry)
	if err != nil {
		return fmt.Errorf("%w: registering metrics: %s", waypoint.ErrBadConfig, err)
	}

	parser := req.NewParser(b.MaxRequestSize, b.uploads)
	opts := []router.DispatcherOpt{
		router.WithHooks(b.hooks),
		router.WithLogger(b.l),
		router.WithMetrics(metrics),
		router.WithNormalizer(route.Normalizer{BasePath: b.BasePath, DefaultRoute: b.DefaultRoute, Rewrites: rewrites}),
		router.WithParser(parser),
		router.WithShowErrors(b.ShowErrors),
	}

	if b.PublicPrefix != "" {
		opts = append(opts, router.WithPublic(b.PublicPrefix, b.PublicDir))
	}

	if b.SecurePort != "" {
		opts = append(opts, router.WithSecureRedirect(b.SecurePort))
	}

	b.dispatcher, err = router.NewDispatcher(b.tree, b.sessions, opts...)
	if err != nil {
		return err
	}

	rt := router.New(b.Env)
	rt.OnEveryRequest(
		middleware.RequestID(),
		middleware.InjectIPAddress(),
		middleware.LogRequest(b.l),
		middleware.RateLimit(middleware.NewVisitors(b.RateLimit, b.RateBurst)),
		middleware.CORS(b.CORSOrigin),
	)

	var routes []router.Route
	if b.MetricsPath != "" {
		routes = append(routes, router.Route{
			Path:    b.MetricsPath,
			Method:  http.MethodGet,
			Handler: promhttp.HandlerFor(b.registry, promhttp.HandlerOpts{Registry: b.registry}),
		})
	}

	if b.Realtime != nil {
		h, err := realtime.New(b.sessions, b.Realtime.Events, realtime.WithLogger(b.l), realtime.WithParser(parser))
		if err != nil {
			return err
		}

		routes = append(routes, router.Route{Path: b.Realtime.Path, Method: http.MethodGet, Handler: h})
	}

	rt.HandleRoutes(routes)
	rt.CatchAll(b.dispatcher)

	b.handler = handlers.ProxyHeaders(rt)
	return nil
}

// Handler is the http.Handler every listener serves.
func (b *Basecamp) Handler() http.Handler { return b.handler }

// Dispatcher exposes the *router.Dispatcher answering requests.
func (b *Basecamp) Dispatcher() *router.Dispatcher { return b.dispatcher }

// Logger exposes the logger.Logger the app logs with.
func (b *Basecamp) Logger() logger.Logger { return b.l }

// Sessions exposes the *session.Manager establishing sessions.
func (b *Basecamp) Sessions() *session.Manager { return b.sessions }

// Tree exposes the *route.Tree requests are resolved against.
func (b *Basecamp) Tree() *route.Tree { return b.tree }

// Uploads exposes where uploaded files are staged.
func (b *Basecamp) Uploads() *req.Uploads { return b.uploads }

// Sweep removes expired sessions and staged uploads older than UploadMaxAge once.
func (b *Basecamp) Sweep(ctx context.Context) (sessions, uploads int, err error) {
	sessions, err = b.sessions.Sweep(ctx)
	if err != nil {
		return sessions, 0, fmt.Errorf("failed sweeping sessions: %w", err)
	}

	uploads, err = b.uploads.Sweep(ctx, time.Now().Add(-b.UploadMaxAge))
	if err != nil {
		return sessions, uploads, fmt.Errorf("failed sweeping uploads: %w", err)
	}

	return sessions, uploads, nil
}

// Guide begins the web servers and the periodic sweeps.
//
// These, and cancelling the context set by WithContext, stop Guide:
//
// - os.Interrupt
// - syscall.SIGHUP
// - syscall.SIGINT
// - syscall.SIGQUIT
// - syscall.SIGTERM
func (b *Basecamp) Guide() error {
	ctx, cancel := context.WithCancel(b.ctx)
	defer cancel()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		b.sessions.Run(ctx, b.Session.SweepInterval)
	}()
	go func() {
		defer wg.Done()
		b.uploads.Run(ctx, b.UploadSweepInterval, b.UploadMaxAge)
	}()

	errs := make(chan error, len(b.listeners))
	for _, ln := range b.listeners {
		ln := ln
		go func() {
			b.l.Info(fmt.Sprintf("running web server at %s", ln.srv.Addr), nil)

			var err error
			if ln.secure {
				err = ln.srv.ListenAndServeTLS(b.CertFile, b.KeyFile)
			} else {
				err = ln.srv.ListenAndServe()
			}

			if !errors.Is(err, http.ErrServerClosed) {
				errs <- fmt.Errorf("could not listen on %s: %w", ln.srv.Addr, err)
			}
		}()
	}

	var err error
	select {
	case <-ctx.Done():
		b.l.Info("received shutdown signal", nil)
	case err = <-errs:
		b.l.Error(err.Error(), nil)
	}

	cancel()
	wg.Wait()

	return errors.Join(err, b.Shutdown())
}

// Shutdown shuts down the web servers and closes connections to session backends.
func (b *Basecamp) Shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	b.l.Info("shutting down web server", nil)

	var errs []error
	for _, ln := range b.listeners {
		if err := ln.srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs = append(errs, fmt.Errorf("could not shutdown %s: %w", ln.srv.Addr, err))
		}
	}

	errs = append(errs, b.close())
	if err := errors.Join(errs...); err != nil {
		return err
	}

	b.l.Info("web server shutdown successfully", nil)
	return nil
}

// close releases connections opened while assembling b.
func (b *Basecamp) close() error {
	var errs []error
	for _, fn := range b.closers {
		errs = append(errs, fn())
	}

	b.closers = nil
	return errors.Join(errs...)
}
