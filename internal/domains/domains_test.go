package domains

import (
	"testing"

	"github.com/oisplabs/registrar/internal/specconf"
)

func TestWildcardAnchoring(t *testing.T) {
	p, err := Compile("*.azure.example.com", "azure_openai")
	if err != nil {
		t.Fatal(err)
	}

	if !p.Matches("foo.azure.example.com") {
		t.Error("expected subdomain to match")
	}
	if !p.Matches("a.b.azure.example.com") {
		t.Error("expected nested subdomain to match")
	}
	if p.Matches("azure.example.com") {
		t.Error("bare domain must not match a *. pattern")
	}
	if p.Matches("foo.azure.example.com.evil.net") {
		t.Error("trailing suffix must not match an anchored pattern")
	}
	if p.Matches("prefix-azure.example.com") {
		t.Error("dot before the wildcard tail must be literal")
	}
}

func TestDotsAreLiteral(t *testing.T) {
	p, err := Compile("api.openai.com", "openai")
	if err != nil {
		t.Fatal(err)
	}
	if !p.Matches("api.openai.com") {
		t.Error("expected exact host to match")
	}
	if p.Matches("apiXopenaiXcom") {
		t.Error("dots must not match arbitrary characters")
	}
}

func TestRegexSerialization(t *testing.T) {
	p, err := Compile("*.googleapis.com", "google")
	if err != nil {
		t.Fatal(err)
	}
	want := `^.*\.googleapis\.com$`
	if p.Regex() != want {
		t.Errorf("expected regex %q, got %q", want, p.Regex())
	}
}

func TestExactIndexMergesSources(t *testing.T) {
	set := &specconf.Set{
		Registry: specconf.RegistryConf{
			DomainLookup: map[string]string{
				"API.OpenAI.com": "openai",
			},
		},
		Providers: map[string]specconf.ProviderConf{
			"anthropic": {
				Provider: "anthropic",
				BaseURLs: []string{"https://api.anthropic.com/v1"},
			},
		},
	}

	index, collisions := ExactIndex(set)

	if index["api.openai.com"] != "openai" {
		t.Errorf("expected lowercased registry domain, got %v", index)
	}
	if index["api.anthropic.com"] != "anthropic" {
		t.Errorf("expected host extracted from base URL, got %v", index)
	}
	if len(collisions) != 0 {
		t.Errorf("expected no collisions, got %v", collisions)
	}
}

func TestExactIndexCollisionLaterWins(t *testing.T) {
	set := &specconf.Set{
		Registry: specconf.RegistryConf{
			DomainLookup: map[string]string{
				"api.example.com": "openai",
			},
		},
		Providers: map[string]specconf.ProviderConf{
			"other": {
				Provider: "other",
				BaseURLs: []string{"https://api.example.com"},
			},
		},
	}

	index, collisions := ExactIndex(set)

	if index["api.example.com"] != "other" {
		t.Errorf("expected later source to win, got %q", index["api.example.com"])
	}
	if len(collisions) != 1 {
		t.Fatalf("expected 1 collision, got %d", len(collisions))
	}
	c := collisions[0]
	if c.Domain != "api.example.com" || c.OldProvider != "openai" || c.NewProvider != "other" {
		t.Errorf("unexpected collision record: %+v", c)
	}
}

func TestPatternsOrderAndMatch(t *testing.T) {
	set := &specconf.Set{
		Registry: specconf.RegistryConf{
			DomainPatterns: []specconf.PatternConf{
				{Pattern: "*.openai.azure.com", Provider: "azure_openai"},
			},
		},
		Providers: map[string]specconf.ProviderConf{
			"google": {
				Provider: "google",
				Domains:  []string{"generativelanguage.googleapis.com", "*.googleapis.com"},
			},
		},
	}

	patterns := Patterns(set)

	// Registry patterns first, then provider wildcard domains; exact
	// provider domains are not patterns.
	if len(patterns) != 2 {
		t.Fatalf("expected 2 patterns, got %d", len(patterns))
	}
	if patterns[0].Glob != "*.openai.azure.com" {
		t.Errorf("expected registry pattern first, got %q", patterns[0].Glob)
	}

	provider, ok := Match(patterns, "myorg.openai.azure.com")
	if !ok || provider != "azure_openai" {
		t.Errorf("expected azure_openai, got %q (ok=%v)", provider, ok)
	}
	provider, ok = Match(patterns, "storage.googleapis.com")
	if !ok || provider != "google" {
		t.Errorf("expected google, got %q (ok=%v)", provider, ok)
	}
	if _, ok := Match(patterns, "api.openai.com"); ok {
		t.Error("expected no match for unlisted host")
	}
}

func TestHostFromURL(t *testing.T) {
	cases := map[string]string{
		"https://api.anthropic.com/v1/messages": "api.anthropic.com",
		"http://localhost:11434":                "localhost:11434",
		"API.Example.COM/path":                  "api.example.com",
	}
	for in, want := range cases {
		if got := hostFromURL(in); got != want {
			t.Errorf("hostFromURL(%q) = %q, want %q", in, got, want)
		}
	}
}
