package router

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/xy-planning-network/waypoint"
	"github.com/xy-planning-network/waypoint/http/middleware"
)

// A Route maps a path and HTTP method to an [http.Handler].
// Additional [middleware.Adapter] can be called when a server handles
// a request matching the Route.
type Route struct {
	Path        string
	Method      string
	Handler     http.Handler
	Middlewares []middleware.Adapter
}

// Router mounts fixed endpoints, like metrics or the realtime channel,
// in front of a catch-all [http.Handler], usually a [*Dispatcher].
type Router struct {
	Env           waypoint.Environment
	everyReqStack []middleware.Adapter
	r             *mux.Router
}

// New constructs a [*Router] for the given environment.
func New(env waypoint.Environment) *Router {
	return &Router{Env: env, r: mux.NewRouter()}
}

// CatchAll sets up a handler for all requests no other Route matches.
//
// Call CatchAll after registering every other Route.
func (r *Router) CatchAll(handler http.Handler) {
	r.r.PathPrefix("/").Handler(
		middleware.Chain(
			middleware.ReportPanic(r.Env)(handler.ServeHTTP),
			r.everyReqStack...,
		),
	)
}

// Handle applies the [Route] to the [*Router].
func (r *Router) Handle(route Route) {
	r.HandleRoutes([]Route{route})
}

// HandleRoutes registers the set of Routes on the Router
// and includes all the [middleware.Adapter] on each Route.
// Any [middleware.Adapter] already assigned to a Route is appended to middlewares,
// so are called after the default set.
//
// A Route without a Method matches every method.
func (r *Router) HandleRoutes(routes []Route, middlewares ...middleware.Adapter) {
	for _, route := range routes {
		mws := append(append([]middleware.Adapter(nil), r.everyReqStack...), middlewares...)
		mws = append(mws, route.Middlewares...)
		handler := middleware.Chain(middleware.ReportPanic(r.Env)(route.Handler.ServeHTTP), mws...)

		rt := r.r.Handle(route.Path, handler)
		if route.Method != "" {
			rt.Methods(route.Method)
		}
	}
}

// OnEveryRequest appends the middlewares to the existing stack
// that the [*Router] will apply to every request.
func (r *Router) OnEveryRequest(middlewares ...middleware.Adapter) {
	r.everyReqStack = append(r.everyReqStack, middlewares...)
}

// ServeHTTP responds to an HTTP request.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.r.ServeHTTP(w, req)
}
