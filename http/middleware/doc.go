/*
The middleware package defines what a middleware is in waypoint and a set of basic middlewares.

The available middlewares are:
- CORS
- InjectIPAddress
- LogRequest
- RateLimit
- RequestID

ReportPanic is applied by the router to each handler it mounts.

basecamp assembles these in the following order:

	vs := middleware.NewVisitors(middleware.DefaultRate, middleware.DefaultBurst)
	adpts := []middleware.Adapter{
		middleware.RequestID(),
		middleware.InjectIPAddress(),
		middleware.LogRequest(log),
		middleware.RateLimit(vs),
		middleware.CORS(origin),
	}
*/
package middleware
