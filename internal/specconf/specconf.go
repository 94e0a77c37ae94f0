// Package specconf loads the static provider configuration: registry.yaml
// plus one YAML file per provider. The endpoint extraction recipes and
// fingerprint rules inside those files are opaque to the pipeline; they are
// carried into the bundle untouched.
package specconf

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// PatternConf is a wildcard domain rule declared in registry.yaml.
type PatternConf struct {
	Pattern  string `yaml:"pattern"`
	Provider string `yaml:"provider"`
}

// ProviderMeta is the registry-level metadata for one provider.
type ProviderMeta struct {
	DisplayName string         `yaml:"display_name"`
	Type        string         `yaml:"type"`
	Domains     []string       `yaml:"domains"`
	Features    []string       `yaml:"features"`
	Auth        map[string]any `yaml:"auth"`
	APIEndpoint string         `yaml:"api_endpoint"`
	ModelsDevID string         `yaml:"models_dev_id"`
}

// RegistryConf is the parsed registry.yaml.
type RegistryConf struct {
	Version        string                  `yaml:"version"`
	Providers      map[string]ProviderMeta `yaml:"providers"`
	DomainLookup   map[string]string       `yaml:"domain_lookup"`
	DomainPatterns []PatternConf           `yaml:"domain_patterns"`
}

// EndpointConf describes one provider endpoint and its extraction recipes.
type EndpointConf struct {
	Path               string         `yaml:"path"`
	Method             string         `yaml:"method"`
	RequestType        string         `yaml:"request_type"`
	Streaming          map[string]any `yaml:"streaming"`
	RequestExtraction  map[string]any `yaml:"request_extraction"`
	ResponseExtraction map[string]any `yaml:"response_extraction"`
}

// ProviderConf is one provider's YAML file.
type ProviderConf struct {
	Provider        string                  `yaml:"provider"`
	BaseURLs        []string                `yaml:"base_urls"`
	Domains         []string                `yaml:"domains"`
	Endpoints       map[string]EndpointConf `yaml:"endpoints"`
	Auth            map[string]any          `yaml:"auth"`
	ResponseHeaders map[string]any          `yaml:"response_headers"`
	ModelFamilies   map[string]any          `yaml:"model_families"`
	Features        map[string]any          `yaml:"features"`
	Fingerprints    map[string]any          `yaml:"fingerprints"`
}

// Set holds the complete static configuration for one compile.
type Set struct {
	Registry  RegistryConf
	Providers map[string]ProviderConf
}

// ProviderIDs returns the provider config ids in sorted order, so that
// consumers iterating the set produce deterministic output.
func (s *Set) ProviderIDs() []string {
	ids := make([]string, 0, len(s.Providers))
	for id := range s.Providers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Load reads registry.yaml and every provider YAML file in dir. A missing or
// unreadable registry.yaml is fatal; a provider file that fails to parse is
// logged and skipped.
func Load(dir string) (*Set, error) {
	set := &Set{Providers: make(map[string]ProviderConf)}

	regPath := filepath.Join(dir, "registry.yaml")
	data, err := os.ReadFile(regPath)
	if err != nil {
		return nil, fmt.Errorf("reading registry.yaml: %w", err)
	}
	if err := yaml.Unmarshal(data, &set.Registry); err != nil {
		return nil, fmt.Errorf("parsing registry.yaml: %w", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading spec dir: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".yaml") || name == "registry.yaml" {
			continue
		}

		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			slog.Warn("skipping unreadable provider config", "file", name, "error", err)
			continue
		}

		var pc ProviderConf
		if err := yaml.Unmarshal(data, &pc); err != nil {
			slog.Warn("skipping malformed provider config", "file", name, "error", err)
			continue
		}
		if pc.Provider == "" {
			continue
		}
		set.Providers[pc.Provider] = pc
	}

	return set, nil
}
