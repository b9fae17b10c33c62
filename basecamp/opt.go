package basecamp

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/xy-planning-network/waypoint"
	"github.com/xy-planning-network/waypoint/http/realtime"
	"github.com/xy-planning-network/waypoint/http/route"
	"github.com/xy-planning-network/waypoint/http/router"
	"github.com/xy-planning-network/waypoint/http/session"
	"github.com/xy-planning-network/waypoint/logger"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// An Option configures a *Basecamp under construction.
// Options run after the environment is read and before the Config is validated.
type Option func(b *Basecamp) error

// WithConfig replaces the Config read from the environment.
func WithConfig(cfg Config) Option {
	return func(b *Basecamp) error {
		b.Config = cfg
		return nil
	}
}

// WithContext exposes the provided context.Context to the waypoint app.
// Cancelling it stops Guide.
func WithContext(ctx context.Context) Option {
	return func(b *Basecamp) error {
		if ctx == nil {
			return fmt.Errorf("nil context")
		}

		b.ctx = ctx
		return nil
	}
}

// WithDB backs StorePostgres with an already established connection.
func WithDB(db *gorm.DB) Option {
	return func(b *Basecamp) error {
		b.db = db
		return nil
	}
}

// WithEnv sets the Environment the app runs in.
func WithEnv(env waypoint.Environment) Option {
	return func(b *Basecamp) error {
		if err := env.Valid(); err != nil {
			return fmt.Errorf("environment %q: %w", env, err)
		}

		b.Env = env
		return nil
	}
}

// WithHooks sets the lifecycle hooks the dispatcher calls.
func WithHooks(h router.Hooks) Option {
	return func(b *Basecamp) error {
		b.hooks = h
		return nil
	}
}

// WithListener sets the port of the plain listener. An empty port disables it.
func WithListener(host, port string) Option {
	return func(b *Basecamp) error {
		b.Host, b.Port = host, port
		return nil
	}
}

// WithLogger exposes the provided logger.Logger to the waypoint app.
func WithLogger(l logger.Logger) Option {
	return func(b *Basecamp) error {
		b.l = l
		return nil
	}
}

// WithPublic serves files in dir for request paths starting with prefix.
func WithPublic(prefix, dir string) Option {
	return func(b *Basecamp) error {
		b.PublicPrefix, b.PublicDir = prefix, dir
		return nil
	}
}

// WithRateLimit limits each client to r requests per second with bursts of up to burst.
func WithRateLimit(r rate.Limit, burst int) Option {
	return func(b *Basecamp) error {
		b.RateLimit, b.RateBurst = r, burst
		return nil
	}
}

// WithRealtime serves the websocket channel at path, dispatching to events.
func WithRealtime(path string, events map[string]realtime.EventHandler) Option {
	return func(b *Basecamp) error {
		b.Realtime = &Realtime{Path: path, Events: events}
		return nil
	}
}

// WithRedis backs StoreRedis with an already established client.
func WithRedis(client redis.UniversalClient) Option {
	return func(b *Basecamp) error {
		b.redis = client
		return nil
	}
}

// WithRewrite appends a rewrite rule; rules are tried in the order added.
func WithRewrite(pattern, replacement string) Option {
	return func(b *Basecamp) error {
		b.Rewrites = append(b.Rewrites, Rewrite{Pattern: pattern, Replacement: replacement})
		return nil
	}
}

// WithRouting sets the route to resolve for empty paths and the prefix stripped from every path.
func WithRouting(defaultRoute, basePath string) Option {
	return func(b *Basecamp) error {
		b.DefaultRoute, b.BasePath = defaultRoute, basePath
		return nil
	}
}

// WithRoutesDir scans dir for route leaves: files with one of exts,
// or route.DefaultExtensions when none are given.
func WithRoutesDir(dir string, exts ...string) Option {
	return func(b *Basecamp) error {
		b.RoutesDir, b.RouteExtensions = dir, exts
		return nil
	}
}

// WithSecureListener sets the port, certificate, and key of the TLS listener.
// Requests reaching the plain listener are redirected to it.
func WithSecureListener(port, certFile, keyFile string) Option {
	return func(b *Basecamp) error {
		b.SecurePort, b.CertFile, b.KeyFile = port, certFile, keyFile
		return nil
	}
}

// WithSession sets how sessions are signed and how long they last.
func WithSession(secret string, minutes int, sameSite http.SameSite) Option {
	return func(b *Basecamp) error {
		b.Session.Secret, b.Session.Minutes, b.Session.SameSite = secret, minutes, sameSite
		return nil
	}
}

// WithSessionFuncs stores sessions with fns.
func WithSessionFuncs(fns session.Funcs) Option {
	return func(b *Basecamp) error {
		b.Session.Store, b.Session.Funcs = StoreFuncs, &fns
		return nil
	}
}

// WithSessionStore sets the store mode and, for StoreFiles, its directory.
func WithSessionStore(mode StoreMode, dir string) Option {
	return func(b *Basecamp) error {
		b.Session.Store, b.Session.Dir = mode, dir
		return nil
	}
}

// WithShowErrors sets whether failures are answered with their detail.
func WithShowErrors(show bool) Option {
	return func(b *Basecamp) error {
		b.ShowErrors = show
		return nil
	}
}

// WithSweeps sets how often expired sessions and old uploads are removed,
// and how old an upload must be to be removed.
func WithSweeps(sessionInterval, uploadInterval, uploadMaxAge time.Duration) Option {
	return func(b *Basecamp) error {
		b.Session.SweepInterval = sessionInterval
		b.UploadSweepInterval, b.UploadMaxAge = uploadInterval, uploadMaxAge
		return nil
	}
}

// WithUnboundRoutes lets scanned routes without a unit through;
// requests for them are not found.
func WithUnboundRoutes() Option {
	return func(b *Basecamp) error {
		b.allowUnbound = true
		return nil
	}
}

// WithUnit registers the Factory constructing the units handling p.
func WithUnit(p string, f route.Factory) Option {
	return func(b *Basecamp) error {
		if _, ok := b.units[p]; ok {
			return fmt.Errorf("unit %q already registered", p)
		}

		b.units[p] = f
		return nil
	}
}

// WithUnits registers every Factory in units.
func WithUnits(units map[string]route.Factory) Option {
	return func(b *Basecamp) error {
		for p, f := range units {
			if err := WithUnit(p, f)(b); err != nil {
				return err
			}
		}

		return nil
	}
}

// WithUploads sets where uploads are staged and caps the size of request bodies.
func WithUploads(dir string, maxRequestSize int64) Option {
	return func(b *Basecamp) error {
		b.UploadDir, b.MaxRequestSize = dir, maxRequestSize
		return nil
	}
}
