package bundle

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/oisplabs/registrar/internal/registry"
	"github.com/oisplabs/registrar/internal/specconf"
)

func testInputs() (*registry.Registry, *specconf.Set) {
	reg := registry.Build([]registry.ModelRecord{
		{ID: "gpt-4", Provider: "openai", Mode: "chat", InputCostPer1K: 0.03},
		{ID: "claude-3-opus", Provider: "anthropic", Mode: "chat"},
	}, "0.1", "litellm", "https://example.com/models.json", time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC))

	set := &specconf.Set{
		Registry: specconf.RegistryConf{
			Version: "0.1",
			Providers: map[string]specconf.ProviderMeta{
				"openai": {
					DisplayName: "OpenAI",
					Type:        "cloud",
					Domains:     []string{"api.openai.com"},
					Features:    []string{"streaming"},
				},
				"anthropic": {},
			},
			DomainLookup: map[string]string{
				"api.openai.com": "openai",
			},
			DomainPatterns: []specconf.PatternConf{
				{Pattern: "*.openai.azure.com", Provider: "azure_openai"},
			},
		},
		Providers: map[string]specconf.ProviderConf{
			"openai": {
				Provider: "openai",
				BaseURLs: []string{"https://api.openai.com/v1"},
				Endpoints: map[string]specconf.EndpointConf{
					"chat": {
						Path:        "/v1/chat/completions",
						RequestType: "chat",
					},
				},
				Fingerprints: map[string]any{
					"response_headers": []any{"openai-organization"},
				},
			},
		},
	}

	return reg, set
}

func fixedCompiler(schemaURI string) *Compiler {
	c := NewCompiler(schemaURI)
	c.now = func() time.Time { return time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC) }
	return c
}

func TestCompileDocument(t *testing.T) {
	reg, set := testInputs()
	doc := fixedCompiler("https://example.com/bundle.schema.json").Compile(reg, set)

	if doc.Schema != "https://example.com/bundle.schema.json" {
		t.Errorf("unexpected schema URI %q", doc.Schema)
	}
	if doc.BundleVersion != BundleVersion {
		t.Errorf("unexpected bundle version %q", doc.BundleVersion)
	}
	if doc.Version != "0.1" {
		t.Errorf("registry version must carry through, got %q", doc.Version)
	}
	if doc.Stats.TotalModels != 2 {
		t.Errorf("expected 2 models, got %d", doc.Stats.TotalModels)
	}

	openai := doc.Providers["openai"]
	if openai.DisplayName != "OpenAI" || openai.Type != "cloud" {
		t.Errorf("unexpected provider info %+v", openai)
	}

	// Empty metadata falls back to defaults.
	anthropic := doc.Providers["anthropic"]
	if anthropic.DisplayName != "anthropic" || anthropic.Type != "cloud" {
		t.Errorf("expected id and cloud defaults, got %+v", anthropic)
	}

	if doc.DomainLookup["api.openai.com"] != "openai" {
		t.Errorf("expected domain lookup entry, got %v", doc.DomainLookup)
	}
	if len(doc.DomainPatterns) != 1 || doc.DomainPatterns[0].Regex == "" {
		t.Errorf("expected compiled pattern entry, got %v", doc.DomainPatterns)
	}

	chat := doc.Parsers["openai"].Endpoints["chat"]
	if chat.Method != "POST" {
		t.Errorf("expected default POST method, got %q", chat.Method)
	}
	if chat.RequestType != "chat" {
		t.Errorf("expected chat request type, got %q", chat.RequestType)
	}

	if _, ok := doc.Fingerprints["openai"]; !ok {
		t.Error("expected openai fingerprints carried into bundle")
	}
	if _, ok := doc.Fingerprints["anthropic"]; ok {
		t.Error("providers without fingerprints must be absent from the map")
	}
}

func TestCompileDeterministic(t *testing.T) {
	reg, set := testInputs()
	c := fixedCompiler("https://example.com/schema.json")

	first, _, err := Encode(c.Compile(reg, set))
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		next, _, err := Encode(c.Compile(reg, set))
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(first, next) {
			t.Fatalf("compile %d produced different bytes", i)
		}
	}
}

func TestEncodeSortsKeys(t *testing.T) {
	reg, set := testInputs()
	pretty, minified, err := Encode(fixedCompiler("s").Compile(reg, set))
	if err != nil {
		t.Fatal(err)
	}

	// $schema sorts before every other top-level key.
	if !bytes.HasPrefix(pretty, []byte("{\n  \"$schema\"")) {
		t.Errorf("expected $schema first, got %q", pretty[:30])
	}

	if bytes.ContainsRune(minified, '\n') {
		t.Error("minified encoding must not contain newlines")
	}

	var generic map[string]any
	if err := json.Unmarshal(minified, &generic); err != nil {
		t.Fatalf("minified bundle is not valid JSON: %v", err)
	}
}

func TestEmptyPatternsSerializeAsArray(t *testing.T) {
	reg, set := testInputs()
	set.Registry.DomainPatterns = nil

	pretty, _, err := Encode(fixedCompiler("s").Compile(reg, set))
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(pretty, []byte(`"domain_patterns": null`)) {
		t.Error("expected empty array, not null")
	}
	if !bytes.Contains(pretty, []byte(`"domain_patterns": []`)) {
		t.Errorf("expected empty domain_patterns array in output")
	}
}

func TestWriteProducesMinifiedTwin(t *testing.T) {
	reg, set := testInputs()
	doc := fixedCompiler("s").Compile(reg, set)

	dir := t.TempDir()
	path := filepath.Join(dir, "bundle.json")
	if err := Write(doc, path); err != nil {
		t.Fatal(err)
	}

	pretty, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	minified, err := os.ReadFile(filepath.Join(dir, "bundle.min.json"))
	if err != nil {
		t.Fatal(err)
	}

	var a, b map[string]any
	if err := json.Unmarshal(pretty, &a); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(minified, &b); err != nil {
		t.Fatal(err)
	}
	if len(a) != len(b) {
		t.Errorf("twins disagree: %d vs %d top-level keys", len(a), len(b))
	}
	if len(minified) >= len(pretty) {
		t.Errorf("minified twin should be smaller: %d vs %d bytes", len(minified), len(pretty))
	}
}

func TestMinPath(t *testing.T) {
	if got := MinPath("dist/bundle.json"); got != "dist/bundle.min.json" {
		t.Errorf("unexpected min path %q", got)
	}
	if got := MinPath("dist/bundle"); got != "dist/bundle.min" {
		t.Errorf("unexpected min path %q", got)
	}
}
