package waypoint

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// An Environment names where a waypoint server is deployed.
type Environment string

const (
	Demo        Environment = "DEMO"
	Development Environment = "DEVELOPMENT"
	Production  Environment = "PRODUCTION"
	Review      Environment = "REVIEW"
	Staging     Environment = "STAGING"
	Testing     Environment = "TESTING"
)

func (e Environment) String() string { return string(e) }

// Valid returns ErrNotValid unless e is one of the declared Environments.
func (e Environment) Valid() error {
	switch e {
	case Demo, Development, Production, Review, Staging, Testing:
		return nil
	default:
		return ErrNotValid
	}
}

// Exposed reports whether e serves clients other than its developers.
// Exposed environments hide error details, write compact session files
// and report panics to Sentry.
func (e Environment) Exposed() bool {
	switch e {
	case Demo, Production, Review, Staging:
		return true
	default:
		return false
	}
}

func (e Environment) IsDevelopment() bool { return e == Development }

func (e Environment) IsTesting() bool { return e == Testing }

// lookup returns the trimmed value of key and whether it is set to anything.
func lookup(key string) (string, bool) {
	val := strings.TrimSpace(os.Getenv(key))
	return val, val != ""
}

// EnvVarOrBool parses key with strconv.ParseBool, returning def if it is unset or unparsable.
func EnvVarOrBool(key string, def bool) bool {
	val, ok := lookup(key)
	if !ok {
		return def
	}

	b, err := strconv.ParseBool(val)
	if err != nil {
		return def
	}

	return b
}

// EnvVarOrDuration parses key with time.ParseDuration, returning def if it is unset or unparsable.
func EnvVarOrDuration(key string, def time.Duration) time.Duration {
	val, ok := lookup(key)
	if !ok {
		return def
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		return def
	}

	return d
}

// EnvVarOrEnv reads key as an Environment, in any case, returning def unless it is Valid.
func EnvVarOrEnv(key string, def Environment) Environment {
	val, ok := lookup(key)
	if !ok {
		return def
	}

	env := Environment(strings.ToUpper(val))
	if env.Valid() != nil {
		return def
	}

	return env
}

// EnvVarOrInt parses key as a base 10 int, returning def if it is unset or unparsable.
func EnvVarOrInt(key string, def int) int {
	return int(envVarOrInt(key, int64(def), strconv.IntSize))
}

// EnvVarOrInt64 is EnvVarOrInt for int64 values, like byte sizes.
func EnvVarOrInt64(key string, def int64) int64 {
	return envVarOrInt(key, def, 64)
}

func envVarOrInt(key string, def int64, bits int) int64 {
	val, ok := lookup(key)
	if !ok {
		return def
	}

	n, err := strconv.ParseInt(val, 10, bits)
	if err != nil {
		return def
	}

	return n
}

// EnvVarOrString returns the value of key, or def if it is unset or blank.
func EnvVarOrString(key, def string) string {
	if val, ok := lookup(key); ok {
		return val
	}

	return def
}
