package middleware

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultRate is the number of requests per second a Visitor refills.
	DefaultRate rate.Limit = 5

	// DefaultBurst is the number of requests a Visitor can make at once.
	DefaultBurst = 20

	visitorTTL = 60 * time.Minute
)

// A Visitor tracks a rate limiter and last seen time.
type Visitor struct {
	LastSeen time.Time
	Limiter  *rate.Limiter
}

// A Visitors maps a Visitor to an IP address.
type Visitors struct {
	burst     int
	limit     rate.Limit
	lastSweep time.Time
	val       map[string]Visitor
	sync.Mutex
}

// NewVisitors constructs a *Visitors handing out limiters refilling at r per second
// with bursts of up to burst.
//
// Non-positive values fall back to DefaultRate and DefaultBurst.
func NewVisitors(r rate.Limit, burst int) *Visitors {
	if r <= 0 {
		r = DefaultRate
	}

	if burst <= 0 {
		burst = DefaultBurst
	}

	return &Visitors{burst: burst, limit: r, lastSweep: time.Now(), val: make(map[string]Visitor)}
}

// Fetch retrieves the Visitor for the given ip creating a new Visitor if not seen.
func (vs *Visitors) Fetch(ip string) Visitor {
	vs.Lock()
	defer vs.Unlock()

	v, ok := vs.val[ip]
	if !ok {
		v = Visitor{Limiter: rate.NewLimiter(vs.limit, vs.burst)}
	}

	v.LastSeen = time.Now().UTC()
	vs.val[ip] = v
	return v
}

// Len is the number of Visitors being tracked.
func (vs *Visitors) Len() int {
	vs.Lock()
	defer vs.Unlock()
	return len(vs.val)
}

// cleanup deletes a Visitor from Visitors if they have not been seen in over an hour.
//
// cleanup walks the map at most once a minute.
func (vs *Visitors) cleanup() {
	vs.Lock()
	defer vs.Unlock()
	if time.Since(vs.lastSweep) < time.Minute {
		return
	}

	vs.lastSweep = time.Now()
	for ip, v := range vs.val {
		if time.Since(v.LastSeen) > visitorTTL {
			delete(vs.val, ip)
		}
	}
}

// RateLimit encloses the Visitors map and serves the http.Handler
// only while the client's Visitor has tokens left.
//
// NOTE: implementation found here:
// https://www.alexedwards.net/blog/how-to-rate-limit-http-requests
//
// If visitors is nil, NoopAdapter returns and this middleware does nothing.
func RateLimit(visitors *Visitors) Adapter {
	if visitors == nil {
		return NoopAdapter
	}

	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer visitors.cleanup()
			if !visitors.Fetch(clientIP(r)).Limiter.Allow() {
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}

			h.ServeHTTP(w, r)
		})
	}
}
