package router

import (
	"context"

	"github.com/xy-planning-network/waypoint/http/req"
	"github.com/xy-planning-network/waypoint/http/resp"
	"github.com/xy-planning-network/waypoint/http/route"
)

// Hooks are called by a Dispatcher at points in handling a request.
// Each is optional.
//
// A hook returning a non-nil *resp.Response short-circuits the request,
// which is answered with that Response.
// A hook returning an error fails the request.
type Hooks struct {
	// RequestReceived is called first, before any static file or session.
	// Its failure is answered with a 503.
	RequestReceived func(ctx context.Context, r *req.Request) (*resp.Response, error)

	// NotFound is called when no Unit or no member of one handles the request.
	// Returning a nil Response answers with a 404.
	// Its failure is answered with a 500.
	NotFound func(c *route.Context, cause error) (*resp.Response, error)

	// BeforeExecute is called once the Unit handling the request is constructed and
	// has allowed the client's IP address.
	// Its failure is answered with a 500.
	BeforeExecute func(c *route.Context, u route.Unit) (*resp.Response, error)
}
