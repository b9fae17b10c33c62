/*
Package router dispatches HTTP requests to the Units of a route tree.

A [Dispatcher] is the core of a waypoint server.
For every request it establishes a session, resolves the [route.Unit] handling the path,
checks the Unit's IP access lists, calls the Unit's handler and its Finally,
and answers with the result, setting the session cookie.
[Hooks] let an application step in before a request is handled,
before a Unit is called, and when nothing handles a request.

A [Router] sits in front of a Dispatcher.
It applies middlewares to every request and mounts endpoints
that are not Units, like metrics, ahead of the Dispatcher,
which it registers as its catch-all:

	r := router.New(env)
	r.OnEveryRequest(middleware.RequestID(), middleware.InjectIPAddress())
	r.Handle(router.Route{Path: "/metrics", Method: http.MethodGet, Handler: promhttp.Handler()})
	r.CatchAll(dispatcher)
*/
package router
