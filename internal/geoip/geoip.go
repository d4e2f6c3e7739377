// Package geoip decides whether a client address resolves to an allowed country.
//
// The filter fails open: a disabled filter, an unparsable address, a lookup
// error or an address without a country all count as allowed.
package geoip

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/oschwald/geoip2-golang"
	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/timeguard/internal/config"
	"github.com/yasinhessnawi1/timeguard/internal/constants"
)

// Filter decides whether requests from an IP address are admitted.
type Filter interface {
	IsAllowedCountry(ip string) bool
	Enabled() bool
	Close() error
}

// Disabled is the no-op filter used when no geo database is configured.
type Disabled struct{}

// IsAllowedCountry always returns true.
func (Disabled) IsAllowedCountry(string) bool { return true }

// Enabled returns false.
func (Disabled) Enabled() bool { return false }

// Close does nothing.
func (Disabled) Close() error { return nil }

// countryReader is the part of *geoip2.Reader used by the filter.
type countryReader interface {
	Country(ip net.IP) (*geoip2.Country, error)
	Close() error
}

// MaxMindFilter resolves countries with a MaxMind GeoIP2/GeoLite2 database.
type MaxMindFilter struct {
	reader  countryReader
	allowed map[string]struct{}
	cache   *expirable.LRU[netip.Addr, string]
}

// New returns a MaxMindFilter when a database is configured and can be
// opened, and Disabled otherwise.
func New(cfg *config.SecuritySettings) Filter {
	if !cfg.GeoEnabled() {
		log.Info().Msg("Geo-IP filtering disabled: no database configured")
		return Disabled{}
	}

	reader, err := geoip2.Open(cfg.GeoIPDatabase)
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.GeoIPDatabase).Msg("Failed to open geo-IP database, filtering disabled")
		return Disabled{}
	}

	f := newMaxMindFilter(reader, cfg.AllowedCountries, cfg.GeoCacheSize, cfg.GeoCacheTTL)
	log.Info().
		Str("path", cfg.GeoIPDatabase).
		Strs("allowed_countries", cfg.AllowedCountries).
		Msg("Geo-IP filtering enabled")
	return f
}

func newMaxMindFilter(reader countryReader, countries []string, cacheSize int, cacheTTL time.Duration) *MaxMindFilter {
	if len(countries) == 0 {
		countries = []string{constants.DefaultAllowedCountry}
	}
	allowed := make(map[string]struct{}, len(countries))
	for _, c := range countries {
		allowed[strings.ToUpper(strings.TrimSpace(c))] = struct{}{}
	}
	if cacheSize <= 0 {
		cacheSize = constants.DefaultGeoCacheSize
	}
	if cacheTTL <= 0 {
		cacheTTL = constants.DefaultGeoCacheTTL
	}

	return &MaxMindFilter{
		reader:  reader,
		allowed: allowed,
		cache:   expirable.NewLRU[netip.Addr, string](cacheSize, nil, cacheTTL),
	}
}

// IsAllowedCountry reports whether ip resolves to an allowed country.
func (f *MaxMindFilter) IsAllowedCountry(ip string) bool {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		log.Debug().Str("ip", ip).Msg("Geo-IP check skipped for unparsable address")
		return true
	}
	addr = addr.Unmap()

	code, err := f.countryCode(addr)
	if err != nil {
		log.Warn().Err(err).Str("ip", ip).Msg("Geo-IP lookup failed, allowing request")
		return true
	}
	if code == "" {
		return true
	}

	_, ok := f.allowed[code]
	return ok
}

// countryCode returns the upper-case ISO code for addr, consulting the cache first.
func (f *MaxMindFilter) countryCode(addr netip.Addr) (string, error) {
	if code, ok := f.cache.Get(addr); ok {
		return code, nil
	}

	record, err := f.reader.Country(net.IP(addr.AsSlice()))
	if err != nil {
		return "", fmt.Errorf("country lookup: %w", err)
	}
	if record == nil {
		return "", errors.New("country lookup returned no record")
	}

	code := strings.ToUpper(record.Country.IsoCode)
	f.cache.Add(addr, code)
	return code, nil
}

// Enabled returns true.
func (f *MaxMindFilter) Enabled() bool { return true }

// Close releases the database.
func (f *MaxMindFilter) Close() error {
	return f.reader.Close()
}
