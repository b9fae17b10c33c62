package route

import (
	"context"

	"github.com/xy-planning-network/waypoint/http/req"
	"github.com/xy-planning-network/waypoint/http/session"
)

// A Handler is a callable member of a Unit.
//
// params are the path segments left over after resolving the Unit and the Handler,
// percent-decoded and trimmed, in the order they appear in the path.
// A Handler returns either a *resp.Response or any other value,
// which is sent as the body of a 200.
type Handler func(c *Context, params ...string) (any, error)

// A Unit is constructed per request by the Factory registered for its path.
//
// Handlers keys its members by convention:
//
//	"<method>$<segment>"  e.g. "post$login", only for requests using that method
//	"$<segment>"          e.g. "$login", for any method
//	"$index"              the default, taking the next segment as a parameter
//
// Methods are lowercased. A key present with a nil Handler is not callable.
type Unit interface {
	Handlers() map[string]Handler
}

// A Factory constructs the Unit handling a single request.
type Factory func(c *Context) Unit

// An AccessLister is a Unit restricting which client IP addresses may call it.
//
// A client listed by DenyIPs is refused. When AllowIPs is not empty,
// any client it does not list is refused too.
type AccessLister interface {
	AllowIPs() []string
	DenyIPs() []string
}

// A Finalizer is a Unit that has Finally called once its Handler returns,
// whether the Handler succeeded or not.
type Finalizer interface {
	Finally(c *Context) error
}

// Handlers is a Unit whose members are fixed at construction.
type Handlers map[string]Handler

// Handlers returns h.
func (h Handlers) Handlers() map[string]Handler { return h }

// Static constructs a Factory returning u for every request.
func Static(u Unit) Factory {
	return func(*Context) Unit { return u }
}

// Context is the request a Unit is constructed for.
type Context struct {
	ctx     context.Context
	Request *req.Request
	Session *session.Session

	// Unit is the path the Unit is registered under, e.g. "admin/users".
	Unit string
}

// NewContext constructs a *Context.
func NewContext(ctx context.Context, r *req.Request, s *session.Session, unit string) *Context {
	return &Context{ctx: ctx, Request: r, Session: s, Unit: unit}
}

// Context returns the context.Context of the request.
func (c *Context) Context() context.Context {
	if c.ctx == nil {
		return context.Background()
	}

	return c.ctx
}
