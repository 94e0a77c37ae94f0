// Package normalize converts upstream catalog entries into canonical model
// records. Exclusion, translation, and numeric rules live here; the mapping
// tables themselves are data in tables.go.
package normalize

import (
	"log/slog"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/oisplabs/registrar/internal/registry"
	"github.com/oisplabs/registrar/internal/upstream"
)

// sizeVariantRe matches image-generation size variants like
// "1024-x-1024/dall-e-2". These are billing dimensions of one model, not
// distinct models, and are excluded from the canonical schema.
var sizeVariantRe = regexp.MustCompile(`^\d+-x-\d+/`)

// sentinelKeys are documentation placeholders in the upstream catalog.
var sentinelKeys = map[string]bool{
	"sample_spec": true,
}

// Normalizer translates upstream entries using injected mapping tables.
type Normalizer struct {
	mappings Mappings
}

// New creates a Normalizer with the given mapping tables.
func New(m Mappings) *Normalizer {
	return &Normalizer{mappings: m}
}

// Result holds the outcome of one normalization run, including skip counters
// surfaced in run output.
type Result struct {
	Records           []registry.ModelRecord
	SkippedSentinel   int
	SkippedVariant    int
	SkippedNoProvider int
	SkippedMalformed  int
}

// Skipped returns the total number of excluded upstream entries.
func (r *Result) Skipped() int {
	return r.SkippedSentinel + r.SkippedVariant + r.SkippedNoProvider + r.SkippedMalformed
}

// Run normalizes every entry in the upstream catalog. Entries are processed
// in sorted key order so that downstream collision resolution is
// deterministic across runs. Per-entry failures are logged and skipped; they
// never abort the run.
func (n *Normalizer) Run(cat upstream.Catalog) *Result {
	res := &Result{}

	ids := make([]string, 0, len(cat))
	for id := range cat {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if sentinelKeys[id] {
			res.SkippedSentinel++
			continue
		}
		if sizeVariantRe.MatchString(id) {
			res.SkippedVariant++
			continue
		}

		entry, err := cat.Decode(id)
		if err != nil {
			slog.Warn("skipping malformed upstream entry", "id", id, "error", err)
			res.SkippedMalformed++
			continue
		}

		rec := n.Record(id, entry)
		if rec == nil {
			res.SkippedNoProvider++
			continue
		}
		res.Records = append(res.Records, *rec)
	}

	return res
}

// Record converts one upstream entry into a canonical record, or nil when
// the entry cannot be attributed to a provider. Exclusions keyed on the
// identifier alone (sentinel keys, size variants) are the caller's job.
func (n *Normalizer) Record(upstreamID string, e *upstream.Entry) *registry.ModelRecord {
	if e.Provider == "" {
		return nil
	}

	provider := n.mappings.CanonicalProvider(e.Provider)

	// Strip at most one provider prefix: the raw upstream tag first, then
	// the canonical id.
	id := upstreamID
	for _, prefix := range []string{e.Provider + "/", provider + "/"} {
		if strings.HasPrefix(id, prefix) {
			id = id[len(prefix):]
			break
		}
	}

	rec := &registry.ModelRecord{
		ID:         id,
		UpstreamID: upstreamID,
		Provider:   provider,
		Mode:       n.mappings.CanonicalMode(e.Mode),
	}

	if e.MaxInputTokens > 0 {
		rec.MaxInputTokens = int(e.MaxInputTokens)
	} else if e.MaxTokens > 0 {
		// Older upstream entries carry only max_tokens.
		rec.MaxInputTokens = int(e.MaxTokens)
	}
	if e.MaxOutputTokens > 0 {
		rec.MaxOutputTokens = int(e.MaxOutputTokens)
	}

	// Upstream prices are per single token; canonical is per 1000 tokens.
	// Zero-cost and missing-cost are treated identically, matching the
	// upstream source's conflation of "free" and "unknown".
	if e.InputCostPerToken != 0 {
		rec.InputCostPer1K = roundTo8(e.InputCostPerToken * 1000)
	}
	if e.OutputCostPerToken != 0 {
		rec.OutputCostPer1K = roundTo8(e.OutputCostPerToken * 1000)
	}

	for _, cf := range n.mappings.Capabilities {
		if e.Flag(cf.Flag) {
			rec.Capabilities = append(rec.Capabilities, cf.Tag)
		}
	}

	if e.DeprecationDate != "" {
		rec.Deprecated = true
		rec.DeprecationDate = e.DeprecationDate
	}

	return rec
}

func roundTo8(v float64) float64 {
	return math.Round(v*1e8) / 1e8
}
