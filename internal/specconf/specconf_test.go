package specconf

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestLoadSet(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"registry.yaml": `
version: "0.1"
providers:
  openai:
    display_name: OpenAI
    type: cloud
    domains: [api.openai.com]
domain_lookup:
  api.openai.com: openai
domain_patterns:
  - pattern: "*.openai.azure.com"
    provider: azure_openai
`,
		"openai.yaml": `
provider: openai
base_urls:
  - https://api.openai.com/v1
endpoints:
  chat:
    path: /v1/chat/completions
    method: POST
    request_type: chat
`,
	})

	set, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}

	if set.Registry.Version != "0.1" {
		t.Errorf("unexpected version %q", set.Registry.Version)
	}
	if set.Registry.Providers["openai"].DisplayName != "OpenAI" {
		t.Errorf("unexpected provider meta %+v", set.Registry.Providers["openai"])
	}
	if len(set.Registry.DomainPatterns) != 1 {
		t.Errorf("expected 1 domain pattern, got %d", len(set.Registry.DomainPatterns))
	}

	pc, ok := set.Providers["openai"]
	if !ok {
		t.Fatal("expected openai provider config")
	}
	if !reflect.DeepEqual(pc.BaseURLs, []string{"https://api.openai.com/v1"}) {
		t.Errorf("unexpected base urls %v", pc.BaseURLs)
	}
	if pc.Endpoints["chat"].Path != "/v1/chat/completions" {
		t.Errorf("unexpected endpoint %+v", pc.Endpoints["chat"])
	}
}

func TestMissingRegistryIsFatal(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Error("expected error for missing registry.yaml")
	}
}

func TestMalformedProviderFileSkipped(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"registry.yaml": `version: "0.1"`,
		"broken.yaml":   "provider: [not: valid",
		"openai.yaml":   "provider: openai",
	})

	set, err := Load(dir)
	if err != nil {
		t.Fatalf("malformed provider file must not be fatal: %v", err)
	}
	if len(set.Providers) != 1 {
		t.Errorf("expected 1 provider, got %d", len(set.Providers))
	}
}

func TestProviderFileWithoutIDSkipped(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"registry.yaml": `version: "0.1"`,
		"notes.yaml":    "base_urls: [https://example.com]",
	})

	set, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(set.Providers) != 0 {
		t.Errorf("expected file without provider field skipped, got %v", set.Providers)
	}
}

func TestProviderIDsSorted(t *testing.T) {
	set := &Set{Providers: map[string]ProviderConf{
		"openai":    {},
		"anthropic": {},
		"google":    {},
	}}
	got := set.ProviderIDs()
	want := []string{"anthropic", "google", "openai"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}
