/*
Package basecamp assembles a waypoint app from configuration and runs it.

Configuration is read from the environment, loading a .env file if present,
and overridden by Options:

	b, err := basecamp.New(
		basecamp.WithRoutesDir("routes"),
		basecamp.WithUnit("admin/users", users.New),
		basecamp.WithRealtime("/ws", events),
	)
	if err != nil {
		log.Fatal(err)
	}

	log.Fatal(b.Guide())

Every problem with the configuration is reported at once by New, wrapped in waypoint.ErrBadConfig.

Guide serves the dispatcher behind these middlewares, in order:
RequestID, InjectIPAddress, LogRequest, RateLimit and CORS.
Prometheus metrics are served at METRICS_PATH and the realtime channel at its configured path.
Expired sessions and old uploads are swept on their own intervals until Guide returns.
*/
package basecamp
