// Package utils provides utility functions and helpers for common operations
// used throughout the application: the error taxonomy, the JSON response
// envelope, request validation, logging and small string helpers.
package utils

import (
	"net/netip"
	"strings"
)

// TruncateString truncates a string to the given maximum length and adds an ellipsis if necessary.
// Access log columns use it to bound attacker-controlled header values.
//
// Parameters:
//   - s: the string to truncate
//   - maxLen: the maximum length of the resulting string (including ellipsis if added)
//
// Returns:
//   - the truncated string, with ellipsis appended if truncation occurred
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// ContainsFold reports whether slice contains str, ignoring case.
func ContainsFold(slice []string, str string) bool {
	for _, item := range slice {
		if strings.EqualFold(item, str) {
			return true
		}
	}
	return false
}

// HasPrefixFold reports whether s begins with prefix, ignoring case.
func HasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// CanonicalIP returns the form every IP-keyed table is stored under:
// lower-case, zone stripped, IPv4-mapped IPv6 unmapped. ok is false when s
// is not an address.
func CanonicalIP(s string) (ip string, ok bool) {
	addr, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil {
		return "", false
	}
	return addr.WithZone("").Unmap().String(), true
}
