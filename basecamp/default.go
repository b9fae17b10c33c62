package basecamp

import (
	"context"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/xy-planning-network/waypoint"
	"github.com/xy-planning-network/waypoint/logger"
	"github.com/xy-planning-network/waypoint/postgres"
)

const (
	// Environment defaults
	environmentEnvVar = "ENVIRONMENT"

	// Log defaults
	logLevelEnvVar = "LOG_LEVEL"
	defaultLogLvl  = logger.LogLevelInfo

	// Listener defaults
	hostEnvVar       = "HOST"
	portEnvVar       = "PORT"
	DefaultPort      = "3000"
	securePortEnvVar = "SECURE_PORT"
	certFileEnvVar   = "TLS_CERT_FILE"
	keyFileEnvVar    = "TLS_KEY_FILE"

	serverReadTimeoutEnvVar   = "SERVER_READ_TIMEOUT"
	DefaultServerReadTimeout  = 5 * time.Second
	serverIdleTimeoutEnvVar   = "SERVER_IDLE_TIMEOUT"
	DefaultServerIdleTimeout  = 120 * time.Second
	serverWriteTimeoutEnvVar  = "SERVER_WRITE_TIMEOUT"
	DefaultServerWriteTimeout = 10 * time.Second
	shutdownTimeout           = 5 * time.Second

	// Routing defaults
	routesDirEnvVar    = "ROUTES_DIR"
	defaultRouteEnvVar = "DEFAULT_ROUTE"
	DefaultRoute       = "index"
	basePathEnvVar     = "BASE_PATH"
	publicPrefixEnvVar = "PUBLIC_PREFIX"
	publicDirEnvVar    = "PUBLIC_DIR"
	showErrorsEnvVar   = "SHOW_ERRORS"
	maxReqSizeEnvVar   = "MAX_REQUEST_SIZE"
	metricsPathEnvVar  = "METRICS_PATH"
	DefaultMetricsPath = "/metrics"

	// Upload defaults
	uploadDirEnvVar            = "UPLOAD_DIR"
	defaultUploadDir           = "uploads"
	uploadSweepIntervalEnvVar  = "UPLOAD_SWEEP_INTERVAL"
	DefaultUploadSweepInterval = time.Hour
	uploadMaxAgeEnvVar         = "UPLOAD_MAX_AGE"
	DefaultUploadMaxAge        = 24 * time.Hour

	// Session defaults
	sessionStoreEnvVar          = "SESSION_STORE"
	DefaultStoreMode            = StoreFiles
	sessionDirEnvVar            = "SESSION_DIR"
	defaultSessionDir           = "sessions"
	sessionSecretEnvVar         = "SESSION_SECRET"
	sessionMinutesEnvVar        = "SESSION_MINUTES"
	DefaultSessionMinutes       = 60 * 24
	sessionSameSiteEnvVar       = "SESSION_SAME_SITE"
	sessionSweepIntervalEnvVar  = "SESSION_SWEEP_INTERVAL"
	DefaultSessionSweepInterval = 10 * time.Minute
	sessionRedisPrefixEnvVar    = "SESSION_REDIS_PREFIX"
	DefaultSessionRedisPrefix   = "waypoint:session:"
	redisURLEnvVar              = "REDIS_URL"

	// Middleware defaults
	corsOriginEnvVar = "CORS_ORIGIN"
	rateLimitEnvVar  = "RATE_LIMIT"
	rateBurstEnvVar  = "RATE_BURST"

	// Database defaults
	dbHostEnvVar         = "DATABASE_HOST"
	defaultDBHost        = "localhost"
	dbNameEnvVar         = "DATABASE_NAME"
	dbPassEnvVar         = "DATABASE_PASSWORD"
	dbPortEnvVar         = "DATABASE_PORT"
	defaultDBPort        = "5432"
	dbSSLModeEnvVar      = "DATABASE_SSLMODE"
	defaultDBSSLMode     = "prefer"
	dbURLEnvVar          = "DATABASE_URL"
	dbUserEnvVar         = "DATABASE_USER"
	dbMaxIdleCxnsEnvVar  = "DATABASE_MAX_IDLE_CXNS"
	defaultDBMaxIdleCxns = 1

	// Test database defaults
	dbTestURLEnvVar = "DATABASE_TEST_URL"
)

// NewPostgresConfig constructs a *postgres.CxnConfig appropriate to the given environment.
// Confer the DATABASE env vars for usage.
func NewPostgresConfig(env waypoint.Environment) *postgres.CxnConfig {
	var cfg *postgres.CxnConfig
	url := os.Getenv(dbURLEnvVar)
	switch {
	case env.IsTesting():
		cfg = &postgres.CxnConfig{IsTestDB: true, URL: os.Getenv(dbTestURLEnvVar)}

	case url == "":
		cfg = &postgres.CxnConfig{
			Host:     waypoint.EnvVarOrString(dbHostEnvVar, defaultDBHost),
			Name:     os.Getenv(dbNameEnvVar),
			Password: os.Getenv(dbPassEnvVar),
			Port:     waypoint.EnvVarOrString(dbPortEnvVar, defaultDBPort),
			SSLMode:  waypoint.EnvVarOrString(dbSSLModeEnvVar, defaultDBSSLMode),
			User:     os.Getenv(dbUserEnvVar),
		}

	default:
		cfg = &postgres.CxnConfig{URL: url}
	}

	cfg.MaxIdleCxns = waypoint.EnvVarOrInt(dbMaxIdleCxnsEnvVar, defaultDBMaxIdleCxns)

	return cfg
}

// defaultLogger constructs the logger.Logger used throughout the app.
func defaultLogger(env waypoint.Environment) logger.Logger {
	l := logger.NewLogger(
		logger.WithEnv(env.String()),
		logger.WithLevel(envVarOrLogLevel(logLevelEnvVar, defaultLogLvl)),
	)

	l.Debug("setting up logger", nil)
	return l
}

// defaultServer constructs a default *http.Server listening on host and port.
func defaultServer(ctx context.Context, host, port string, h http.Handler) *http.Server {
	srv := &http.Server{
		Addr:         net.JoinHostPort(host, strings.TrimPrefix(port, ":")),
		Handler:      h,
		IdleTimeout:  waypoint.EnvVarOrDuration(serverIdleTimeoutEnvVar, DefaultServerIdleTimeout),
		ReadTimeout:  waypoint.EnvVarOrDuration(serverReadTimeoutEnvVar, DefaultServerReadTimeout),
		WriteTimeout: waypoint.EnvVarOrDuration(serverWriteTimeoutEnvVar, DefaultServerWriteTimeout),
	}
	if ctx != nil {
		srv.BaseContext = func(_ net.Listener) context.Context { return ctx }
	}

	return srv
}

// envVarOrLogLevel gets the environment variable from the provided key,
// creates a logger.LogLevel from the retrieved value,
// or returns the provided default logger.LogLevel
// if the value is an unknown logger.LogLevel.
func envVarOrLogLevel(key string, def logger.LogLevel) logger.LogLevel {
	ll := logger.NewLogLevel(strings.ToUpper(os.Getenv(key)))
	if ll == logger.LogLevelUnk {
		return def
	}

	return ll
}

// envVarOrFloat gets the environment variable from the provided key as a float64
// or returns the provided default.
func envVarOrFloat(key string, def float64) float64 {
	val, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return def
	}

	return val
}

// envVarOrSameSite maps the environment variable from the provided key
// to an http.SameSite mode, or returns the provided default.
func envVarOrSameSite(key string, def http.SameSite) http.SameSite {
	mode, ok := sameSiteModes[strings.ToLower(os.Getenv(key))]
	if !ok {
		return def
	}

	return mode
}

var sameSiteModes = map[string]http.SameSite{
	"lax":    http.SameSiteLaxMode,
	"strict": http.SameSiteStrictMode,
	"none":   http.SameSiteNoneMode,
}

// sessionStoreModes are the values SESSION_STORE accepts.
var sessionStoreModes = map[StoreMode]bool{
	StoreFiles:    true,
	StoreMemory:   true,
	StoreFuncs:    true,
	StoreRedis:    true,
	StorePostgres: true,
}
