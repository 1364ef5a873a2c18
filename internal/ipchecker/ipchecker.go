// Package ipchecker restricts internal endpoints to clients from a trusted subnet.
package ipchecker

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/patric-chuzhbe/wanderlust/internal/logger"
)

// IPChecker matches client addresses against an optional trusted subnet.
type IPChecker struct {
	trustedSubnet *net.IPNet
}

// New parses trustedSubnet in CIDR notation (e.g. "192.168.1.0/24").
// An empty string yields a checker that trusts nobody.
func New(trustedSubnet string) (*IPChecker, error) {
	if trustedSubnet == "" {
		return &IPChecker{}, nil
	}

	_, allowedNet, err := net.ParseCIDR(trustedSubnet)
	if err != nil {
		return nil, fmt.Errorf("in internal/ipchecker/ipchecker.go/New(): error while `net.ParseCIDR()` calling: %w", err)
	}

	return &IPChecker{trustedSubnet: allowedNet}, nil
}

// Check reports whether clientIP belongs to the trusted subnet.
func (checker *IPChecker) Check(clientIP net.IP) bool {
	return checker.trustedSubnet != nil && clientIP != nil && checker.trustedSubnet.Contains(clientIP)
}

// ClientIP extracts the client's address from X-Real-IP, then the first
// X-Forwarded-For entry, then RemoteAddr. RemoteAddr may come without a port
// when a proxy-aware middleware already rewrote it.
func (checker *IPChecker) ClientIP(request *http.Request) (net.IP, error) {
	if ip := net.ParseIP(strings.TrimSpace(request.Header.Get("X-Real-IP"))); ip != nil {
		return ip, nil
	}

	if xff := request.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip, nil
		}
	}

	if ip := net.ParseIP(request.RemoteAddr); ip != nil {
		return ip, nil
	}

	host, _, err := net.SplitHostPort(request.RemoteAddr)
	if err != nil {
		return nil, fmt.Errorf("in internal/ipchecker/ipchecker.go/ClientIP(): error while `net.SplitHostPort()` calling: %w", err)
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return nil, fmt.Errorf("in internal/ipchecker/ipchecker.go/ClientIP(): %q is not an IP address", host)
	}

	return ip, nil
}

// TrustedOnly answers 403 to every client outside the trusted subnet.
func (checker *IPChecker) TrustedOnly(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		clientIP, err := checker.ClientIP(request)
		if err != nil {
			logger.Log.Debugw("client IP is not available", "error", err)
			response.WriteHeader(http.StatusForbidden)
			return
		}

		if !checker.Check(clientIP) {
			response.WriteHeader(http.StatusForbidden)
			return
		}

		h.ServeHTTP(response, request)
	}

	return http.HandlerFunc(middleware)
}
