package http

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
)

// securityMetrics counts throttled and suspicious requests. The counters
// surface through logs; there is no metrics endpoint.
type securityMetrics struct {
	rateLimitHits      atomic.Int64
	suspiciousRequests atomic.Int64
}

// Only these networks may set forwarding headers; anything else claiming
// an X-Forwarded-For is taken at its peer address.
var trustedProxyNets = mustParseCIDRs(
	"127.0.0.0/8",
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
)

func mustParseCIDRs(cidrs ...string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, cidr := range cidrs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(fmt.Sprintf("bad trusted proxy CIDR %s: %v", cidr, err))
		}
		nets = append(nets, network)
	}
	return nets
}

func fromTrustedProxy(ip net.IP) bool {
	for _, network := range trustedProxyNets {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// extractClientIP resolves the originating client address. Forwarding
// headers are honored only when the direct peer is a trusted proxy.
func extractClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	peer := net.ParseIP(host)
	if peer == nil || !fromTrustedProxy(peer) {
		return host
	}

	// Leftmost X-Forwarded-For hop is the client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip.String()
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		if ip := net.ParseIP(xri); ip != nil {
			return ip.String()
		}
	}
	return host
}

// The app serves a handful of form routes under /users/{id}/ plus /static;
// probes for admin panels, dotfiles or injection payloads are scanner
// traffic. Matches are logged and counted, never blocked.
var attackMarkers = []string{
	"../", "..\\", "etc/passwd",
	"/.env", "/.git", "/.ssh",
	"wp-admin", "phpmyadmin", ".php",
	"<script", "javascript:", "union select", "eval(",
}

var scannerAgents = []string{
	"sqlmap", "nikto", "nmap", "gobuster", "dirb", "masscan", "scanner",
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// detectSuspiciousRequest flags requests that do not look like traffic
// from the app's own forms and pages.
func detectSuspiciousRequest(r *http.Request, metrics *securityMetrics) bool {
	suspicious := false

	// Scan the percent-decoded target so markers split by %20 or %2e
	// still match.
	target := strings.ToLower(r.URL.Path + "?" + r.URL.RawQuery)
	if decoded, err := url.QueryUnescape(target); err == nil {
		target = decoded
	}
	if containsAny(target, attackMarkers) {
		suspicious = true
	}

	if containsAny(strings.ToLower(r.Header.Get("User-Agent")), scannerAgents) {
		suspicious = true
	}

	switch r.Method {
	case "TRACE", "TRACK", "CONNECT":
		suspicious = true
	}

	// The longest legitimate URL here is a report query with a month
	// parameter; anything near the header limit is a probe.
	if len(r.URL.String()) > 2048 {
		suspicious = true
	}

	// A forged forwarding chain shows up as an implausibly long XFF list.
	if xff := r.Header.Get("X-Forwarded-For"); strings.Count(xff, ",") > 5 {
		suspicious = true
	}

	if suspicious && metrics != nil {
		metrics.suspiciousRequests.Add(1)
	}
	return suspicious
}
