package registry

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"
)

// ModelRecord is one AI model as offered by one provider, in the canonical
// schema. Costs are per 1000 tokens; a zero cost is omitted on the wire,
// which deliberately conflates "free" and "unknown" to match the upstream
// source behavior.
type ModelRecord struct {
	ID              string   `json:"id" yaml:"id"`
	UpstreamID      string   `json:"upstream_id,omitempty" yaml:"upstream_id,omitempty"`
	Provider        string   `json:"provider" yaml:"provider"`
	Mode            string   `json:"mode" yaml:"mode"`
	MaxInputTokens  int      `json:"max_input_tokens,omitempty" yaml:"max_input_tokens,omitempty"`
	MaxOutputTokens int      `json:"max_output_tokens,omitempty" yaml:"max_output_tokens,omitempty"`
	InputCostPer1K  float64  `json:"input_cost_per_1k,omitempty" yaml:"input_cost_per_1k,omitempty"`
	OutputCostPer1K float64  `json:"output_cost_per_1k,omitempty" yaml:"output_cost_per_1k,omitempty"`
	Capabilities    []string `json:"capabilities,omitempty" yaml:"capabilities,omitempty,flow"`
	Deprecated      bool     `json:"deprecated,omitempty" yaml:"deprecated,omitempty"`
	DeprecationDate string   `json:"deprecation_date,omitempty" yaml:"deprecation_date,omitempty"`
}

// Key returns the registry lookup key "{provider}/{id}".
func (m *ModelRecord) Key() string {
	return m.Provider + "/" + m.ID
}

// ProviderSummary summarizes one provider group. Models is sorted by id for
// deterministic, diff-friendly output.
type ProviderSummary struct {
	ModelCount int      `json:"model_count" yaml:"model_count"`
	Models     []string `json:"models" yaml:"models"`
}

// Stats holds aggregate counts.
type Stats struct {
	TotalModels int `json:"total_models" yaml:"total_models"`
	Providers   int `json:"providers" yaml:"providers"`
}

// Registry is the canonical top-level artifact. It is immutable once
// written; a sync run supersedes it wholesale.
type Registry struct {
	Version     string                     `json:"version" yaml:"version"`
	GeneratedAt string                     `json:"generated_at" yaml:"generated_at"`
	Source      string                     `json:"source" yaml:"source"`
	SourceURL   string                     `json:"source_url" yaml:"source_url"`
	Stats       Stats                      `json:"stats" yaml:"stats"`
	Providers   map[string]ProviderSummary `json:"providers" yaml:"providers"`
	Models      map[string]ModelRecord     `json:"models" yaml:"models"`
}

// Build assembles a Registry from normalized records. Records are grouped by
// provider and each group is sorted by model id. When two records normalize
// to the same "{provider}/{id}" key, the last record in input order wins;
// the Normalizer feeds records in sorted upstream-key order, so the winner
// is the entry with the lexicographically last upstream identifier.
func Build(records []ModelRecord, version, source, sourceURL string, now time.Time) *Registry {
	reg := &Registry{
		Version:     version,
		GeneratedAt: now.UTC().Format(time.RFC3339),
		Source:      source,
		SourceURL:   sourceURL,
		Providers:   make(map[string]ProviderSummary),
		Models:      make(map[string]ModelRecord, len(records)),
	}

	byProvider := make(map[string][]string)
	for _, rec := range records {
		key := rec.Key()
		if _, exists := reg.Models[key]; exists {
			slog.Warn("duplicate registry key, keeping later record", "key", key)
		} else {
			byProvider[rec.Provider] = append(byProvider[rec.Provider], rec.ID)
		}
		reg.Models[key] = rec
	}

	for provider, ids := range byProvider {
		sort.Strings(ids)
		reg.Providers[provider] = ProviderSummary{ModelCount: len(ids), Models: ids}
	}

	reg.Stats = Stats{TotalModels: len(reg.Models), Providers: len(reg.Providers)}
	return reg
}

// Load reads a previously written registry from disk. A missing file or a
// document without the models mapping is a fatal precondition failure.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading registry: %w", err)
	}

	var reg Registry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parsing registry %s: %w", path, err)
	}
	if reg.Models == nil {
		return nil, fmt.Errorf("registry %s: missing models mapping", path)
	}
	return &reg, nil
}

// ProviderIDs returns the sorted set of provider ids, derived from the
// providers mapping with the model keys as a fallback for older documents.
func (r *Registry) ProviderIDs() []string {
	seen := make(map[string]bool)
	for id := range r.Providers {
		seen[id] = true
	}
	for key := range r.Models {
		if p, _, ok := SplitKey(key); ok {
			seen[p] = true
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SplitKey splits a "{provider}/{id}" key. Model ids may themselves contain
// slashes, so the split happens at the first one.
func SplitKey(key string) (provider, id string, ok bool) {
	for i := 0; i < len(key); i++ {
		if key[i] == '/' {
			return key[:i], key[i+1:], true
		}
	}
	return "", "", false
}
