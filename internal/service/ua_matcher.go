package service

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/yasinhessnawi1/timeguard/internal/constants"
	"github.com/yasinhessnawi1/timeguard/internal/models"
	"github.com/yasinhessnawi1/timeguard/internal/repository"
)

// uaRule is a rule prepared for matching. A regex rule whose pattern did
// not compile has a nil re and never matches.
type uaRule struct {
	pattern   string
	matchType models.MatchType
	re        *regexp.Regexp
}

// uaSnapshot is an immutable set of rules. It is replaced as a whole.
// generation is the matcher generation the load started under.
type uaSnapshot struct {
	rules      []uaRule
	loadedAt   time.Time
	generation uint64
}

// UAMatcher decides whether a User-Agent header hits an active blacklist rule.
// Rules are cached and reloaded from storage once the cache is older than ttl.
type UAMatcher struct {
	repo     repository.UARuleRepository
	ttl      time.Duration
	snapshot atomic.Pointer[uaSnapshot]
	group    singleflight.Group
	now      func() time.Time

	// generation is bumped by Invalidate. A snapshot from an older
	// generation is stale regardless of its age.
	generation atomic.Uint64
}

// NewUAMatcher creates a matcher with an empty cache; the first call loads the rules.
func NewUAMatcher(repo repository.UARuleRepository, ttl time.Duration) *UAMatcher {
	if ttl <= 0 {
		ttl = constants.DefaultUARuleCacheTTL
	}
	return &UAMatcher{
		repo: repo,
		ttl:  ttl,
		now:  time.Now,
	}
}

// Matches reports whether userAgent hits any active rule. A blank header
// never matches. If rules cannot be loaded the previous snapshot is used.
func (m *UAMatcher) Matches(ctx context.Context, userAgent string) bool {
	if strings.TrimSpace(userAgent) == "" {
		return false
	}

	for _, rule := range m.rules(ctx).rules {
		if rule.matches(userAgent) {
			return true
		}
	}
	return false
}

// Invalidate makes the next Matches call reload the rules, including when a
// reload is already in flight.
func (m *UAMatcher) Invalidate() {
	m.generation.Add(1)
}

func (m *UAMatcher) rules(ctx context.Context) *uaSnapshot {
	gen := m.generation.Load()
	current := m.snapshot.Load()
	if current != nil && current.generation == gen && m.now().Sub(current.loadedAt) <= m.ttl {
		return current
	}

	// Concurrent callers of one generation share one reload.
	v, _, _ := m.group.Do(strconv.FormatUint(gen, 10), func() (interface{}, error) {
		return m.reload(ctx, current, gen), nil
	})
	return v.(*uaSnapshot)
}

func (m *UAMatcher) reload(ctx context.Context, previous *uaSnapshot, gen uint64) *uaSnapshot {
	rows, err := m.repo.ListActive(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to reload user agent rules, keeping previous rules")
		if previous == nil {
			return &uaSnapshot{}
		}
		// Retry after another ttl rather than on every request.
		kept := &uaSnapshot{rules: previous.rules, loadedAt: m.now(), generation: gen}
		m.publish(kept)
		return kept
	}

	snap := &uaSnapshot{
		rules:      make([]uaRule, 0, len(rows)),
		loadedAt:   m.now(),
		generation: gen,
	}
	for _, row := range rows {
		snap.rules = append(snap.rules, compileUARule(row))
	}
	m.publish(snap)

	log.Debug().Int("rules", len(snap.rules)).Msg("User agent rules loaded")
	return snap
}

// publish stores snap unless a newer generation is already cached.
func (m *UAMatcher) publish(snap *uaSnapshot) {
	for {
		current := m.snapshot.Load()
		if current != nil && current.generation > snap.generation {
			return
		}
		if m.snapshot.CompareAndSwap(current, snap) {
			return
		}
	}
}

func compileUARule(row *models.UARule) uaRule {
	rule := uaRule{pattern: row.Pattern, matchType: row.MatchType}
	if row.MatchType == models.MatchRegex {
		re, err := regexp.Compile("(?i)" + row.Pattern)
		if err != nil {
			log.Warn().Err(err).Int64("rule_id", row.ID).Str("pattern", row.Pattern).
				Msg("User agent rule has an invalid pattern and will never match")
		}
		rule.re = re
	}
	return rule
}

func (r uaRule) matches(userAgent string) bool {
	switch r.matchType {
	case models.MatchExact:
		return strings.EqualFold(userAgent, r.pattern)
	case models.MatchPrefix:
		return len(userAgent) >= len(r.pattern) && strings.EqualFold(userAgent[:len(r.pattern)], r.pattern)
	case models.MatchRegex:
		return r.re != nil && r.re.MatchString(userAgent)
	}
	return false
}
