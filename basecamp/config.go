package basecamp

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/xy-planning-network/waypoint"
	"github.com/xy-planning-network/waypoint/http/realtime"
	"github.com/xy-planning-network/waypoint/http/route"
	"github.com/xy-planning-network/waypoint/http/session"
	"golang.org/x/time/rate"
)

// A StoreMode names where sessions are stored.
type StoreMode string

const (
	StoreFiles    StoreMode = "files"
	StoreMemory   StoreMode = "memory"
	StoreFuncs    StoreMode = "funcs"
	StoreRedis    StoreMode = "redis"
	StorePostgres StoreMode = "postgres"
)

// Realtime configures the websocket channel.
type Realtime struct {
	Path   string
	Events map[string]realtime.EventHandler
}

// A Rewrite replaces request paths matching Pattern with Replacement.
type Rewrite struct {
	Pattern     string
	Replacement string
}

// SessionConfig configures how sessions are established and stored.
type SessionConfig struct {
	Store StoreMode

	// Dir holds session files when Store is StoreFiles.
	Dir string

	// Funcs backs sessions when Store is StoreFuncs.
	Funcs *session.Funcs

	Secret string

	// Minutes is the expiration window; 0 never expires sessions.
	Minutes int

	SameSite      http.SameSite
	SweepInterval time.Duration
	RedisURL      string
	RedisPrefix   string
}

// Config is everything a *Basecamp is assembled from.
type Config struct {
	Env waypoint.Environment

	Host string

	// Port is the plain listener's; empty disables it.
	Port string

	// SecurePort is the TLS listener's; empty disables it.
	SecurePort string
	CertFile   string
	KeyFile    string

	Realtime *Realtime

	// RoutesDir is scanned for leaves with RouteExtensions.
	RoutesDir       string
	RouteExtensions []string

	DefaultRoute string
	BasePath     string
	Rewrites     []Rewrite

	PublicPrefix string
	PublicDir    string

	Session SessionConfig

	UploadDir           string
	UploadSweepInterval time.Duration
	UploadMaxAge        time.Duration

	MaxRequestSize int64
	ShowErrors     bool

	CORSOrigin  string
	RateLimit   rate.Limit
	RateBurst   int
	MetricsPath string
}

// NewConfig reads a Config from the environment.
func NewConfig() Config {
	env := waypoint.EnvVarOrEnv(environmentEnvVar, waypoint.Development)

	return Config{
		Env:                 env,
		Host:                os.Getenv(hostEnvVar),
		Port:                waypoint.EnvVarOrString(portEnvVar, DefaultPort),
		SecurePort:          os.Getenv(securePortEnvVar),
		CertFile:            os.Getenv(certFileEnvVar),
		KeyFile:             os.Getenv(keyFileEnvVar),
		RoutesDir:           os.Getenv(routesDirEnvVar),
		DefaultRoute:        waypoint.EnvVarOrString(defaultRouteEnvVar, DefaultRoute),
		BasePath:            os.Getenv(basePathEnvVar),
		PublicPrefix:        os.Getenv(publicPrefixEnvVar),
		PublicDir:           os.Getenv(publicDirEnvVar),
		UploadDir:           waypoint.EnvVarOrString(uploadDirEnvVar, defaultUploadDir),
		UploadSweepInterval: waypoint.EnvVarOrDuration(uploadSweepIntervalEnvVar, DefaultUploadSweepInterval),
		UploadMaxAge:        waypoint.EnvVarOrDuration(uploadMaxAgeEnvVar, DefaultUploadMaxAge),
		MaxRequestSize:      waypoint.EnvVarOrInt64(maxReqSizeEnvVar, 0),
		ShowErrors:          waypoint.EnvVarOrBool(showErrorsEnvVar, !env.Exposed()),
		CORSOrigin:          os.Getenv(corsOriginEnvVar),
		RateLimit:           rate.Limit(envVarOrFloat(rateLimitEnvVar, 0)),
		RateBurst:           waypoint.EnvVarOrInt(rateBurstEnvVar, 0),
		MetricsPath:         waypoint.EnvVarOrString(metricsPathEnvVar, DefaultMetricsPath),
		Session: SessionConfig{
			Store:         StoreMode(strings.ToLower(waypoint.EnvVarOrString(sessionStoreEnvVar, string(DefaultStoreMode)))),
			Dir:           waypoint.EnvVarOrString(sessionDirEnvVar, defaultSessionDir),
			Secret:        os.Getenv(sessionSecretEnvVar),
			Minutes:       waypoint.EnvVarOrInt(sessionMinutesEnvVar, DefaultSessionMinutes),
			SameSite:      envVarOrSameSite(sessionSameSiteEnvVar, http.SameSiteLaxMode),
			SweepInterval: waypoint.EnvVarOrDuration(sessionSweepIntervalEnvVar, DefaultSessionSweepInterval),
			RedisURL:      os.Getenv(redisURLEnvVar),
			RedisPrefix:   waypoint.EnvVarOrString(sessionRedisPrefixEnvVar, DefaultSessionRedisPrefix),
		},
	}
}

// Validate checks c can be assembled into a *Basecamp,
// joining every problem found under waypoint.ErrBadConfig.
func (c Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{waypoint.ErrBadConfig}, args...)...))
	}

	if err := c.Env.Valid(); err != nil {
		bad("environment %q", c.Env)
	}

	if c.Port == "" && c.SecurePort == "" {
		bad("no plain or secure listener")
	}

	if c.SecurePort != "" && (c.CertFile == "" || c.KeyFile == "") {
		bad("secure listener requires a certificate and key")
	}

	if c.Realtime != nil && !strings.HasPrefix(c.Realtime.Path, "/") {
		bad("realtime path %q must start with /", c.Realtime.Path)
	}

	if strings.HasPrefix(c.DefaultRoute, "/") {
		bad("default route %q starts with /", c.DefaultRoute)
	}

	if c.PublicPrefix != "" || c.PublicDir != "" {
		if c.PublicDir == "" || !strings.HasPrefix(c.PublicPrefix, "/") {
			bad("public prefix %q and directory %q", c.PublicPrefix, c.PublicDir)
		}
	}

	for _, rw := range c.Rewrites {
		if _, err := route.NewRewrite(rw.Pattern, rw.Replacement); err != nil {
			errs = append(errs, err)
		}
	}

	if c.MaxRequestSize < 0 {
		bad("max request size %d", c.MaxRequestSize)
	}

	if c.UploadDir == "" {
		bad("no upload directory")
	}

	if c.RateLimit < 0 || c.RateBurst < 0 {
		bad("rate limit %v with burst %d", c.RateLimit, c.RateBurst)
	}

	if c.MetricsPath != "" && !strings.HasPrefix(c.MetricsPath, "/") {
		bad("metrics path %q must start with /", c.MetricsPath)
	}

	if err := c.Session.validate(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (c SessionConfig) validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{waypoint.ErrBadConfig}, args...)...))
	}

	if c.Minutes < 0 {
		bad("session minutes %d", c.Minutes)
	}

	if c.Secret == "" {
		bad("no session secret")
	}

	if !sessionStoreModes[c.Store] {
		bad("unknown session store %q", c.Store)
	}

	switch c.Store {
	case StoreFiles:
		if c.Dir == "" {
			bad("files session store requires a directory")
		}

	case StoreFuncs:
		if c.Funcs == nil {
			bad("funcs session store requires Funcs")
		}
	}

	return errors.Join(errs...)
}
