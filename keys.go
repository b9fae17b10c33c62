package waypoint

import "context"

type Key string

const (
	// IpAddrKey stashes the IP address of an HTTP request being handled by waypoint.
	IpAddrKey Key = "IpAddrKey"

	// RequestIDKey stashes a unique UUID for each HTTP request.
	RequestIDKey Key = "RequestIDKey"
)

// String formats the stringified key with additional contextual information
func (k Key) String() string {
	return "waypoint context key: " + string(k)
}

// RequestIDFromContext retrieves the request ID stashed under RequestIDKey, if any.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// IPAddrFromContext retrieves the IP address stashed under IpAddrKey, if any.
func IPAddrFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(IpAddrKey).(string)
	return ip
}
