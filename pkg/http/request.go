package http

import (
	"net"
	"net/http"
	"strings"
)

// ExtractClientIP extracts the real client IP address from the request.
// X-Forwarded-For and X-Real-IP are only honored when the request arrives
// from a proxy listed in trustedProxies (CIDR ranges); anything else falls
// back to RemoteAddr so a client cannot spoof its address via headers.
func ExtractClientIP(r *http.Request, trustedProxies []string) string {
	remoteIP := remoteAddr(r)

	if !isTrustedProxy(remoteIP, trustedProxies) {
		return remoteIP
	}

	// X-Forwarded-For may chain several hops; the first valid entry is
	// the original client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for _, ip := range strings.Split(xff, ",") {
			ip = strings.TrimSpace(ip)
			if net.ParseIP(ip) != nil {
				return ip
			}
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if net.ParseIP(xri) != nil {
			return xri
		}
	}

	return remoteIP
}

// remoteAddr extracts the IP address from RemoteAddr, removing the port
// if present.
func remoteAddr(r *http.Request) string {
	if r.RemoteAddr == "" {
		return "unknown"
	}
	if ip, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return ip
	}
	return r.RemoteAddr
}

// isTrustedProxy checks if an IP address is within any of the trusted
// proxy CIDR ranges. Invalid CIDR entries are skipped, which fails closed.
func isTrustedProxy(ip string, trustedProxies []string) bool {
	if len(trustedProxies) == 0 {
		return false
	}

	clientIP := net.ParseIP(ip)
	if clientIP == nil {
		return false
	}

	for _, cidr := range trustedProxies {
		_, ipNet, err := net.ParseCIDR(cidr)
		if err != nil {
			continue
		}
		if ipNet.Contains(clientIP) {
			return true
		}
	}

	return false
}
