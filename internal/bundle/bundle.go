// Package bundle compiles the canonical registry and provider configuration
// into the single versioned document sensors fetch at runtime.
package bundle

import (
	"log/slog"
	"time"

	"github.com/oisplabs/registrar/internal/domains"
	"github.com/oisplabs/registrar/internal/registry"
	"github.com/oisplabs/registrar/internal/specconf"
)

// BundleVersion tracks the bundle's own wire format, independent of the
// registry schema version. Bump it whenever fields are added, removed, or
// renamed so consumers can detect incompatible bundles before parsing deeply.
const BundleVersion = "1.0.0"

// ProviderInfo is the per-provider metadata block.
type ProviderInfo struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Type        string         `json:"type"`
	Domains     []string       `json:"domains"`
	Features    []string       `json:"features"`
	Auth        map[string]any `json:"auth"`
	APIEndpoint string         `json:"api_endpoint,omitempty"`
	ModelsDevID string         `json:"models_dev_id,omitempty"`
}

// PatternEntry is one wildcard domain rule in serialized form.
type PatternEntry struct {
	Pattern  string `json:"pattern"`
	Provider string `json:"provider"`
	Regex    string `json:"regex"`
}

// EndpointRules is one endpoint's parsing recipe. The extraction maps are
// opaque to the compiler.
type EndpointRules struct {
	Path               string         `json:"path"`
	Method             string         `json:"method"`
	RequestType        string         `json:"request_type"`
	Streaming          map[string]any `json:"streaming"`
	RequestExtraction  map[string]any `json:"request_extraction"`
	ResponseExtraction map[string]any `json:"response_extraction"`
}

// ParserRules holds one provider's request/response parsing metadata.
type ParserRules struct {
	Endpoints       map[string]EndpointRules `json:"endpoints"`
	Auth            map[string]any           `json:"auth"`
	ResponseHeaders map[string]any           `json:"response_headers"`
	ModelFamilies   map[string]any           `json:"model_families"`
	Features        map[string]any           `json:"features"`
}

// Document is the compiled runtime artifact. It is a derived, disposable
// view: never mutated in place, only regenerated.
type Document struct {
	Schema         string                          `json:"$schema"`
	Version        string                          `json:"version"`
	BundleVersion  string                          `json:"bundle_version"`
	GeneratedAt    string                          `json:"generated_at"`
	Source         string                          `json:"source"`
	SourceURL      string                          `json:"source_url"`
	Stats          registry.Stats                  `json:"stats"`
	Providers      map[string]ProviderInfo         `json:"providers"`
	DomainLookup   map[string]string               `json:"domain_lookup"`
	DomainPatterns []PatternEntry                  `json:"domain_patterns"`
	Parsers        map[string]ParserRules          `json:"parsers"`
	Fingerprints   map[string]map[string]any       `json:"fingerprints"`
	Models         map[string]registry.ModelRecord `json:"models"`
}

// Compiler assembles bundle documents.
type Compiler struct {
	schemaURI string
	now       func() time.Time
}

// NewCompiler creates a Compiler that stamps documents with the given
// schema URI.
func NewCompiler(schemaURI string) *Compiler {
	return &Compiler{schemaURI: schemaURI, now: time.Now}
}

// Compile is a pure function from registry + provider configuration to one
// bundle document. Identical inputs produce identical documents except for
// the generated_at timestamp.
func (c *Compiler) Compile(reg *registry.Registry, set *specconf.Set) *Document {
	doc := &Document{
		Schema:         c.schemaURI,
		Version:        reg.Version,
		BundleVersion:  BundleVersion,
		GeneratedAt:    c.now().UTC().Format(time.RFC3339),
		Source:         reg.Source,
		SourceURL:      reg.SourceURL,
		Stats:          reg.Stats,
		Providers:      make(map[string]ProviderInfo),
		DomainPatterns: []PatternEntry{},
		Parsers:        make(map[string]ParserRules),
		Fingerprints:   make(map[string]map[string]any),
		Models:         reg.Models,
	}

	for id, meta := range set.Registry.Providers {
		doc.Providers[id] = ProviderInfo{
			ID:          id,
			DisplayName: displayNameOr(meta.DisplayName, id),
			Type:        typeOr(meta.Type),
			Domains:     meta.Domains,
			Features:    meta.Features,
			Auth:        meta.Auth,
			APIEndpoint: meta.APIEndpoint,
			ModelsDevID: meta.ModelsDevID,
		}
	}

	index, collisions := domains.ExactIndex(set)
	for _, col := range collisions {
		slog.Warn("domain index collision, later source wins",
			"domain", col.Domain, "old", col.OldProvider, "new", col.NewProvider)
	}
	doc.DomainLookup = index

	for _, p := range domains.Patterns(set) {
		doc.DomainPatterns = append(doc.DomainPatterns, PatternEntry{
			Pattern:  p.Glob,
			Provider: p.Provider,
			Regex:    p.Regex(),
		})
	}

	for _, id := range set.ProviderIDs() {
		pc := set.Providers[id]
		if len(pc.Fingerprints) > 0 {
			doc.Fingerprints[id] = pc.Fingerprints
		}
		if len(pc.Endpoints) == 0 {
			continue
		}
		rules := ParserRules{
			Endpoints:       make(map[string]EndpointRules, len(pc.Endpoints)),
			Auth:            pc.Auth,
			ResponseHeaders: pc.ResponseHeaders,
			ModelFamilies:   pc.ModelFamilies,
			Features:        pc.Features,
		}
		for name, ep := range pc.Endpoints {
			rules.Endpoints[name] = EndpointRules{
				Path:               ep.Path,
				Method:             methodOr(ep.Method),
				RequestType:        requestTypeOr(ep.RequestType),
				Streaming:          ep.Streaming,
				RequestExtraction:  ep.RequestExtraction,
				ResponseExtraction: ep.ResponseExtraction,
			}
		}
		doc.Parsers[id] = rules
	}

	return doc
}

func displayNameOr(name, id string) string {
	if name != "" {
		return name
	}
	return id
}

func typeOr(t string) string {
	if t != "" {
		return t
	}
	return "cloud"
}

func methodOr(m string) string {
	if m != "" {
		return m
	}
	return "POST"
}

func requestTypeOr(t string) string {
	if t != "" {
		return t
	}
	return "chat"
}
