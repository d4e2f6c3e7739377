// Package middleware provides HTTP middleware components.
package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/yasinhessnawi1/timeguard/internal/constants"
	"github.com/yasinhessnawi1/timeguard/internal/utils"
)

type clientIPKey struct{}

// ClientIP resolves the caller's address. Proxy headers are only consulted
// when trustProxy is set; otherwise the socket address is used.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get(constants.HeaderXForwardedFor); xff != "" {
			// leftmost entry is the original client
			first, _, _ := strings.Cut(xff, ",")
			if ip := normalizeIP(first); ip != "" {
				return ip
			}
		}
		if ip := normalizeIP(r.Header.Get(constants.HeaderXRealIP)); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if ip := normalizeIP(host); ip != "" {
		return ip
	}
	return utils.TruncateString(host, constants.MaxRemoteIPLength)
}

// normalizeIP returns the canonical form of s, or "" if s is not an address.
// IPv4-mapped IPv6 addresses are unmapped so one client has one key.
func normalizeIP(s string) string {
	ip, _ := utils.CanonicalIP(s)
	return ip
}

func withClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// ClientIPFromContext returns the address resolved by the audit middleware.
func ClientIPFromContext(ctx context.Context) (string, bool) {
	ip, ok := ctx.Value(clientIPKey{}).(string)
	return ip, ok
}

func requestClientIP(r *http.Request, trustProxy bool) string {
	if ip, ok := ClientIPFromContext(r.Context()); ok {
		return ip
	}
	return ClientIP(r, trustProxy)
}
