package validate

import (
	"strings"
	"testing"
	"time"

	"github.com/oisplabs/registrar/internal/registry"
)

func TestValidRecordPasses(t *testing.T) {
	m := &registry.ModelRecord{
		ID:             "gpt-4",
		Provider:       "openai",
		Mode:           "chat",
		InputCostPer1K: 0.03,
		Capabilities:   []string{"vision", "function_calling"},
	}
	r := ValidateRecord("openai/gpt-4", m)
	if len(r.Issues) != 0 {
		t.Errorf("expected no issues, got %v", r.Issues)
	}
}

func TestMissingRequiredFields(t *testing.T) {
	r := ValidateRecord("openai/gpt-4", &registry.ModelRecord{})
	if !r.HasErrors() {
		t.Fatal("expected errors for empty record")
	}
	if len(r.Errors()) != 3 {
		t.Errorf("expected 3 errors (id, provider, mode), got %d: %v", len(r.Errors()), r.Errors())
	}
}

func TestKeyMismatchIsError(t *testing.T) {
	m := &registry.ModelRecord{ID: "gpt-4", Provider: "openai", Mode: "chat"}
	r := ValidateRecord("anthropic/gpt-4", m)
	if !r.HasErrors() {
		t.Error("expected error for key not matching record fields")
	}
}

func TestUnknownModeWarns(t *testing.T) {
	m := &registry.ModelRecord{ID: "m", Provider: "p", Mode: "telepathy"}
	r := ValidateRecord("p/m", m)
	if r.HasErrors() {
		t.Errorf("unknown mode must not block, got %v", r.Errors())
	}
	if len(r.Warnings()) != 1 {
		t.Errorf("expected 1 warning, got %v", r.Warnings())
	}
}

func TestNegativeCostIsError(t *testing.T) {
	m := &registry.ModelRecord{ID: "m", Provider: "p", Mode: "chat", InputCostPer1K: -0.01}
	if !ValidateRecord("p/m", m).HasErrors() {
		t.Error("expected error for negative cost")
	}
}

func TestHighPriceWarns(t *testing.T) {
	m := &registry.ModelRecord{ID: "m", Provider: "p", Mode: "chat", OutputCostPer1K: 30}
	r := ValidateRecord("p/m", m)
	if r.HasErrors() {
		t.Errorf("suspicious price must not block, got %v", r.Errors())
	}
	if len(r.Warnings()) != 1 {
		t.Errorf("expected 1 warning, got %v", r.Warnings())
	}
}

func TestDeprecationDateFormat(t *testing.T) {
	m := &registry.ModelRecord{ID: "m", Provider: "p", Mode: "chat", Deprecated: true, DeprecationDate: "06/13/2024"}
	r := ValidateRecord("p/m", m)
	if len(r.Warnings()) != 1 {
		t.Errorf("expected date format warning, got %v", r.Issues)
	}

	m = &registry.ModelRecord{ID: "m", Provider: "p", Mode: "chat", DeprecationDate: "2024-06-13"}
	r = ValidateRecord("p/m", m)
	if len(r.Warnings()) != 1 {
		t.Errorf("expected warning for date without deprecated flag, got %v", r.Issues)
	}
}

func TestUnknownCapabilityWarns(t *testing.T) {
	m := &registry.ModelRecord{ID: "m", Provider: "p", Mode: "chat", Capabilities: []string{"levitation"}}
	r := ValidateRecord("p/m", m)
	if len(r.Warnings()) != 1 {
		t.Errorf("expected 1 warning, got %v", r.Issues)
	}
}

func TestValidateRegistryAgreement(t *testing.T) {
	reg := registry.Build([]registry.ModelRecord{
		{ID: "gpt-4", Provider: "openai", Mode: "chat"},
		{ID: "claude-3", Provider: "anthropic", Mode: "chat"},
	}, "0.1", "litellm", "", time.Now())

	r := ValidateRegistry(reg)
	if len(r.Issues) != 0 {
		t.Errorf("expected a built registry to validate clean, got %v", r.Issues)
	}
}

func TestValidateRegistryCountMismatch(t *testing.T) {
	reg := registry.Build([]registry.ModelRecord{
		{ID: "gpt-4", Provider: "openai", Mode: "chat"},
	}, "0.1", "litellm", "", time.Now())
	reg.Stats.TotalModels = 99

	r := ValidateRegistry(reg)
	if !r.HasErrors() {
		t.Error("expected error for stats disagreement")
	}
}

func TestFormatResult(t *testing.T) {
	r := &Result{Issues: []Issue{
		{SeverityError, "openai/gpt-4", "mode", "required field is empty"},
		{SeverityWarning, "openai/gpt-4", "mode", "unknown mode"},
	}}
	out := FormatResult(r)
	if !strings.Contains(out, "Errors (1):") || !strings.Contains(out, "Warnings (1):") {
		t.Errorf("unexpected format:\n%s", out)
	}

	if got := FormatResult(&Result{}); !strings.Contains(got, "no issues") {
		t.Errorf("unexpected clean format %q", got)
	}
}
