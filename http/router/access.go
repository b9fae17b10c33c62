package router

import (
	"net"

	"github.com/xy-planning-network/waypoint/http/route"
)

// allowed reports whether ip may call u.
//
// Entries of the lists may be addresses or CIDR ranges.
// A denied ip is refused even if it is also allowed.
func allowed(u route.Unit, ip string) bool {
	al, ok := u.(route.AccessLister)
	if !ok {
		return true
	}

	addr := net.ParseIP(ip)
	if listed(al.DenyIPs(), ip, addr) {
		return false
	}

	allow := al.AllowIPs()
	return len(allow) == 0 || listed(allow, ip, addr)
}

func listed(list []string, ip string, addr net.IP) bool {
	for _, entry := range list {
		if entry == ip {
			return true
		}

		if addr == nil {
			continue
		}

		if _, network, err := net.ParseCIDR(entry); err == nil && network.Contains(addr) {
			return true
		}

		if other := net.ParseIP(entry); other != nil && other.Equal(addr) {
			return true
		}
	}

	return false
}
