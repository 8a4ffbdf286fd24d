package common

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the address used to identify the caller. The TCP peer
// address is used unless trustProxy is set, in which case the last
// X-Forwarded-For hop, appended by the proxy in front of the service, wins,
// then X-Real-IP. Earlier X-Forwarded-For entries are client supplied.
func ClientIP(r *http.Request, trustProxy bool) string {
	if r == nil {
		return ""
	}
	if trustProxy {
		if xff := r.Header.Values("X-Forwarded-For"); len(xff) > 0 {
			hops := strings.Split(xff[len(xff)-1], ",")
			if last := strings.TrimSpace(hops[len(hops)-1]); last != "" {
				return last
			}
		}
		if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
			return ip
		}
	}
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
