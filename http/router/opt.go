package router

import (
	"github.com/xy-planning-network/waypoint/http/req"
	"github.com/xy-planning-network/waypoint/http/route"
	"github.com/xy-planning-network/waypoint/logger"
)

// A DispatcherOpt configures a *Dispatcher when constructing one.
type DispatcherOpt func(*Dispatcher)

// WithHooks sets the Hooks the Dispatcher calls.
func WithHooks(h Hooks) DispatcherOpt {
	return func(d *Dispatcher) {
		d.hooks = h
	}
}

// WithLogger sets the logger.Logger the Dispatcher reports failures to.
func WithLogger(l logger.Logger) DispatcherOpt {
	return func(d *Dispatcher) {
		d.l = l
	}
}

// WithMetrics sets the Metrics the Dispatcher records requests in.
func WithMetrics(m *Metrics) DispatcherOpt {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// WithNormalizer sets how the Dispatcher turns request paths into routes.
func WithNormalizer(n route.Normalizer) DispatcherOpt {
	return func(d *Dispatcher) {
		d.normalizer = n
	}
}

// WithParser sets the *req.Parser ServeHTTP reads requests with.
func WithParser(p *req.Parser) DispatcherOpt {
	return func(d *Dispatcher) {
		d.parser = p
	}
}

// WithPublic serves files in dir for request paths starting with prefix.
func WithPublic(prefix, dir string) DispatcherOpt {
	return func(d *Dispatcher) {
		d.public = &public{prefix: prefix, dir: dir}
	}
}

// WithSecureRedirect redirects requests not made over HTTPS
// to the same URL over HTTPS on port.
func WithSecureRedirect(port string) DispatcherOpt {
	return func(d *Dispatcher) {
		d.secureRedirect = true
		d.securePort = port
	}
}

// WithShowErrors sets whether failures are answered with their detail
// or with the text of their status.
func WithShowErrors(show bool) DispatcherOpt {
	return func(d *Dispatcher) {
		d.showErrors = show
	}
}
