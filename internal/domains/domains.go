// Package domains derives the runtime provider-detection lookups: an exact
// hostname index and a list of compiled wildcard patterns.
package domains

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/oisplabs/registrar/internal/specconf"
)

// Collision records an exact-index entry that was overwritten by a later
// source. The later source wins; collisions are surfaced so callers can warn.
type Collision struct {
	Domain      string
	OldProvider string
	NewProvider string
}

// Pattern is a wildcard domain rule with its compiled matcher. The matcher
// is anchored: it must cover the entire hostname, not a substring.
type Pattern struct {
	Glob     string
	Provider string
	re       *regexp.Regexp
}

// Matches reports whether host satisfies the pattern.
func (p *Pattern) Matches(host string) bool {
	return p.re.MatchString(host)
}

// Regex returns the compiled form for serialization into the bundle.
func (p *Pattern) Regex() string {
	return p.re.String()
}

// Compile builds a Pattern from a glob. All regex metacharacters are escaped
// except *, which matches any run of characters.
func Compile(glob, provider string) (*Pattern, error) {
	expr := "^" + strings.ReplaceAll(regexp.QuoteMeta(glob), `\*`, `.*`) + "$"
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("compiling domain pattern %q: %w", glob, err)
	}
	return &Pattern{Glob: glob, Provider: provider, re: re}, nil
}

// ExactIndex builds the exact hostname → provider table from the registry
// domain_lookup plus every provider config base URL. Sources are applied in
// a fixed order (registry first, then provider configs sorted by id) so the
// later-wins collision policy is deterministic.
func ExactIndex(set *specconf.Set) (map[string]string, []Collision) {
	index := make(map[string]string)
	var collisions []Collision

	add := func(domain, provider string) {
		domain = strings.ToLower(domain)
		if old, ok := index[domain]; ok && old != provider {
			collisions = append(collisions, Collision{Domain: domain, OldProvider: old, NewProvider: provider})
		}
		index[domain] = provider
	}

	for domain, provider := range set.Registry.DomainLookup {
		index[strings.ToLower(domain)] = provider
	}

	for _, id := range set.ProviderIDs() {
		for _, u := range set.Providers[id].BaseURLs {
			if host := hostFromURL(u); host != "" {
				add(host, id)
			}
		}
	}

	return index, collisions
}

// Patterns compiles every wildcard domain rule, in declaration order:
// registry.yaml patterns first, then provider config domains containing *.
// A pattern that fails to compile is logged and skipped, never fatal.
func Patterns(set *specconf.Set) []*Pattern {
	var patterns []*Pattern

	for _, pc := range set.Registry.DomainPatterns {
		p, err := Compile(pc.Pattern, pc.Provider)
		if err != nil {
			slog.Warn("skipping domain pattern", "pattern", pc.Pattern, "error", err)
			continue
		}
		patterns = append(patterns, p)
	}

	for _, id := range set.ProviderIDs() {
		for _, domain := range set.Providers[id].Domains {
			if !strings.Contains(domain, "*") {
				continue
			}
			p, err := Compile(domain, id)
			if err != nil {
				slog.Warn("skipping domain pattern", "pattern", domain, "provider", id, "error", err)
				continue
			}
			patterns = append(patterns, p)
		}
	}

	return patterns
}

// Match returns the provider for the first pattern matching host. Patterns
// are evaluated in declaration order; first match wins.
func Match(patterns []*Pattern, host string) (string, bool) {
	for _, p := range patterns {
		if p.Matches(host) {
			return p.Provider, true
		}
	}
	return "", false
}

// hostFromURL strips the scheme and any path from a base URL, leaving the
// bare lowercase hostname.
func hostFromURL(u string) string {
	for _, scheme := range []string{"https://", "http://"} {
		if strings.HasPrefix(u, scheme) {
			u = u[len(scheme):]
			break
		}
	}
	if i := strings.IndexByte(u, '/'); i >= 0 {
		u = u[:i]
	}
	return strings.ToLower(strings.TrimSpace(u))
}
