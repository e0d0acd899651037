package http

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
)

// securityMetrics counts security-relevant events for the lifetime of the
// server process.
type securityMetrics struct {
	rateLimitHits      int64
	suspiciousRequests int64
}

// trustedProxies are the networks whose forwarding headers we believe. The
// API is expected to sit behind a reverse proxy on a private network.
var trustedProxies = []*net.IPNet{
	mustParseCIDR("127.0.0.0/8"),
	mustParseCIDR("10.0.0.0/8"),
	mustParseCIDR("172.16.0.0/12"),
	mustParseCIDR("192.168.0.0/16"),
}

func mustParseCIDR(cidr string) *net.IPNet {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		panic(fmt.Sprintf("parse trusted proxy CIDR %s: %v", cidr, err))
	}
	return network
}

func isTrustedProxy(ip net.IP) bool {
	for _, network := range trustedProxies {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// extractClientIP returns the client IP used for rate limiting. Forwarding
// headers are honored only when the direct peer is a trusted proxy, so
// external callers cannot spoof their way past the limiter.
func extractClientIP(r *http.Request) string {
	directIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		directIP = r.RemoteAddr
	}

	parsedDirectIP := net.ParseIP(directIP)
	if parsedDirectIP == nil {
		return directIP
	}

	if isTrustedProxy(parsedDirectIP) {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			clientIP := strings.TrimSpace(strings.Split(xff, ",")[0])
			if net.ParseIP(clientIP) != nil {
				return clientIP
			}
		}

		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			if net.ParseIP(xri) != nil {
				return xri
			}
		}
	}

	return directIP
}

// suspiciousFragments are probe signatures that never occur in legitimate
// calls to this JSON API: traversal, dotfile reads, injection attempts and
// scanner sweeps for admin panels that do not exist here.
var suspiciousFragments = []string{
	"../", "..\\", "etc/passwd",
	".env", ".git", ".ssh",
	"union select", "<script", "javascript:", "eval(",
	"wp-admin", "phpmyadmin", "admin.php", "config.php", "cmd.exe",
}

// scannerAgents identify automated vulnerability scanners. Generic HTTP
// clients (curl, language SDKs) are legitimate API consumers and are not
// listed.
var scannerAgents = []string{
	"sqlmap", "nikto", "nmap", "gobuster", "dirb", "masscan",
}

// detectSuspiciousRequest flags probe traffic so it can be logged and
// counted. It never blocks on its own; the rate limiter does the blocking.
func detectSuspiciousRequest(r *http.Request, metrics *securityMetrics) bool {
	suspicious := false

	path := strings.ToLower(r.URL.Path)
	query := r.URL.RawQuery
	if decoded, err := url.QueryUnescape(query); err == nil {
		query = decoded
	}
	query = strings.ToLower(query)
	for _, fragment := range suspiciousFragments {
		if strings.Contains(path, fragment) || strings.Contains(query, fragment) {
			suspicious = true
			break
		}
	}

	userAgent := strings.ToLower(r.Header.Get("User-Agent"))
	for _, agent := range scannerAgents {
		if strings.Contains(userAgent, agent) {
			suspicious = true
			break
		}
	}

	switch r.Method {
	case "TRACE", "TRACK", "DEBUG", "CONNECT":
		suspicious = true
	}

	// Every real endpoint here has a short path and at most an ownerId
	// query parameter.
	if len(r.URL.String()) > 2048 {
		suspicious = true
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" && r.Header.Get("X-Real-IP") != "" {
		if strings.Count(xff, ",") > 5 {
			suspicious = true
		}
	}

	if suspicious && metrics != nil {
		atomic.AddInt64(&metrics.suspiciousRequests, 1)
	}

	return suspicious
}
