package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/xy-planning-network/waypoint"
)

// UnknownIPAddress is what GetIPAddress returns when no header carries a public address.
const UnknownIPAddress = "0.0.0.0"

// IANA defined non-public ranges not covered by net.IP.IsPrivate
var reservedRanges = func() []*net.IPNet {
	var out []*net.IPNet
	for _, cidr := range []string{
		"100.64.0.0/10",
		"192.0.0.0/24",
		"198.18.0.0/15",
	} {
		_, n, _ := net.ParseCIDR(cidr)
		out = append(out, n)
	}

	return out
}()

// InjectIPAddress grabs the IP address in the *http.Request.Header
// and promotes it to *http.Request.Context under waypoint.IpAddrKey.
//
// When no header carries a public address, the address of the connection is used.
func InjectIPAddress() Adapter {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r = r.Clone(context.WithValue(r.Context(), waypoint.IpAddrKey, clientIP(r)))
			h.ServeHTTP(w, r)
		})
	}
}

// GetIPAddress parses "X-Forward-For" and "X-Real-Ip" headers for the IP address
// from the request.
//
// GetIPAddress skips addresses from non-public ranges.
func GetIPAddress(hm http.Header) string {
	for _, h := range []string{"X-Forwarded-For", "X-Real-Ip"} {
		addresses := strings.Split(hm.Get(h), ",")
		// march from right to left until we get a public address
		// that will be the address right before our proxy.
		for i := len(addresses) - 1; i >= 0; i-- {
			ip := strings.TrimSpace(addresses[i])
			realIP := net.ParseIP(ip)
			if !realIP.IsGlobalUnicast() || isPrivateSubnet(realIP) {
				continue
			}
			return ip
		}
	}
	return UnknownIPAddress
}

// clientIP is the address already in r's context, the one GetIPAddress finds,
// or else the address of the connection.
func clientIP(r *http.Request) string {
	if ip := waypoint.IPAddrFromContext(r.Context()); ip != "" && ip != UnknownIPAddress {
		return ip
	}

	if ip := GetIPAddress(r.Header); ip != UnknownIPAddress {
		return ip
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}

	return r.RemoteAddr
}

// isPrivateSubnet checks whether the IP address is in a private subnet.
func isPrivateSubnet(ipAddress net.IP) bool {
	if ipAddress.IsPrivate() {
		return true
	}

	for _, n := range reservedRanges {
		if n.Contains(ipAddress) {
			return true
		}
	}

	return false
}
