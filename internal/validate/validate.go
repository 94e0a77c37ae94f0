package validate

import (
	"fmt"
	"strings"
	"time"

	"github.com/oisplabs/registrar/internal/registry"
)

// Severity classifies validation issues.
type Severity int

const (
	SeverityError   Severity = iota // Blocks the write
	SeverityWarning                 // Reported but doesn't block
)

// Issue represents a single validation problem.
type Issue struct {
	Severity Severity
	Model    string
	Field    string
	Message  string
}

func (i Issue) String() string {
	sev := "ERROR"
	if i.Severity == SeverityWarning {
		sev = "WARN"
	}
	return fmt.Sprintf("[%s] %s: %s — %s", sev, i.Model, i.Field, i.Message)
}

// Result holds all validation issues.
type Result struct {
	Issues []Issue
}

// HasErrors returns true if there are any blocking errors.
func (r *Result) HasErrors() bool {
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errors returns only error-severity issues.
func (r *Result) Errors() []Issue {
	var errs []Issue
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			errs = append(errs, i)
		}
	}
	return errs
}

// Warnings returns only warning-severity issues.
func (r *Result) Warnings() []Issue {
	var warns []Issue
	for _, i := range r.Issues {
		if i.Severity == SeverityWarning {
			warns = append(warns, i)
		}
	}
	return warns
}

// Known canonical modes. Unknown modes warn rather than block; the
// Normalizer passes unmapped upstream modes through unchanged.
var knownModes = map[string]bool{
	"chat":                true,
	"completion":          true,
	"embedding":           true,
	"image":               true,
	"audio_transcription": true,
	"audio_speech":        true,
	"moderation":          true,
	"rerank":              true,
}

// Known canonical capability tags.
var knownCapabilities = map[string]bool{
	"vision":                    true,
	"function_calling":          true,
	"parallel_function_calling": true,
	"system_messages":           true,
	"json_mode":                 true,
	"prompt_caching":            true,
	"reasoning":                 true,
	"web_search":                true,
	"audio_input":               true,
	"audio_output":              true,
}

// ValidateRecord checks a single canonical record under its registry key.
func ValidateRecord(key string, m *registry.ModelRecord) *Result {
	r := &Result{}

	if m.ID == "" {
		r.Issues = append(r.Issues, Issue{SeverityError, key, "id", "required field is empty"})
	}
	if m.Provider == "" {
		r.Issues = append(r.Issues, Issue{SeverityError, key, "provider", "required field is empty"})
	}
	if m.Mode == "" {
		r.Issues = append(r.Issues, Issue{SeverityError, key, "mode", "required field is empty"})
	}

	// Key consistency: the mapping key must agree with the record fields.
	if m.ID != "" && m.Provider != "" && key != m.Key() {
		r.Issues = append(r.Issues, Issue{SeverityError, key, "key",
			fmt.Sprintf("key %q does not match record %q", key, m.Key())})
	}

	if m.Mode != "" && !knownModes[m.Mode] {
		r.Issues = append(r.Issues, Issue{SeverityWarning, key, "mode",
			fmt.Sprintf("unknown mode %q", m.Mode)})
	}

	if m.InputCostPer1K < 0 {
		r.Issues = append(r.Issues, Issue{SeverityError, key, "input_cost_per_1k",
			fmt.Sprintf("negative value %.8f", m.InputCostPer1K)})
	}
	if m.OutputCostPer1K < 0 {
		r.Issues = append(r.Issues, Issue{SeverityError, key, "output_cost_per_1k",
			fmt.Sprintf("negative value %.8f", m.OutputCostPer1K)})
	}
	// Per-1k prices above $1 almost always mean a unit mix-up upstream.
	if m.InputCostPer1K > 1.0 {
		r.Issues = append(r.Issues, Issue{SeverityWarning, key, "input_cost_per_1k",
			fmt.Sprintf("value %.6f unusually high for a per-1k price", m.InputCostPer1K)})
	}
	if m.OutputCostPer1K > 1.0 {
		r.Issues = append(r.Issues, Issue{SeverityWarning, key, "output_cost_per_1k",
			fmt.Sprintf("value %.6f unusually high for a per-1k price", m.OutputCostPer1K)})
	}

	if m.MaxInputTokens < 0 {
		r.Issues = append(r.Issues, Issue{SeverityError, key, "max_input_tokens",
			fmt.Sprintf("negative value %d", m.MaxInputTokens)})
	}
	if m.MaxOutputTokens < 0 {
		r.Issues = append(r.Issues, Issue{SeverityError, key, "max_output_tokens",
			fmt.Sprintf("negative value %d", m.MaxOutputTokens)})
	}

	for _, capability := range m.Capabilities {
		if !knownCapabilities[capability] {
			r.Issues = append(r.Issues, Issue{SeverityWarning, key, "capabilities",
				fmt.Sprintf("unknown capability %q", capability)})
		}
	}

	if m.Deprecated && m.DeprecationDate != "" {
		if _, err := time.Parse("2006-01-02", m.DeprecationDate); err != nil {
			r.Issues = append(r.Issues, Issue{SeverityWarning, key, "deprecation_date",
				fmt.Sprintf("date %q is not YYYY-MM-DD", m.DeprecationDate)})
		}
	}
	if !m.Deprecated && m.DeprecationDate != "" {
		r.Issues = append(r.Issues, Issue{SeverityWarning, key, "deprecation_date",
			"date present on a non-deprecated model"})
	}

	return r
}

// ValidateRegistry validates the whole registry document, including
// agreement between the provider summaries and the flat models mapping.
func ValidateRegistry(reg *registry.Registry) *Result {
	r := &Result{}

	for key := range reg.Models {
		m := reg.Models[key]
		rec := ValidateRecord(key, &m)
		r.Issues = append(r.Issues, rec.Issues...)
	}

	counts := make(map[string]int)
	for key := range reg.Models {
		if provider, _, ok := registry.SplitKey(key); ok {
			counts[provider]++
		}
	}
	for provider, summary := range reg.Providers {
		if summary.ModelCount != len(summary.Models) {
			r.Issues = append(r.Issues, Issue{SeverityError, provider, "model_count",
				fmt.Sprintf("model_count %d does not match models list length %d", summary.ModelCount, len(summary.Models))})
		}
		if counts[provider] != summary.ModelCount {
			r.Issues = append(r.Issues, Issue{SeverityError, provider, "model_count",
				fmt.Sprintf("summary count %d does not match %d models in flat mapping", summary.ModelCount, counts[provider])})
		}
	}

	if reg.Stats.TotalModels != len(reg.Models) {
		r.Issues = append(r.Issues, Issue{SeverityError, "registry", "stats.total_models",
			fmt.Sprintf("stats say %d, models mapping has %d", reg.Stats.TotalModels, len(reg.Models))})
	}
	if reg.Stats.Providers != len(reg.Providers) {
		r.Issues = append(r.Issues, Issue{SeverityError, "registry", "stats.providers",
			fmt.Sprintf("stats say %d, providers mapping has %d", reg.Stats.Providers, len(reg.Providers))})
	}

	return r
}

// FormatResult formats validation results for display.
func FormatResult(r *Result) string {
	if len(r.Issues) == 0 {
		return "Validation passed: no issues found."
	}

	var b strings.Builder
	errors := r.Errors()
	warnings := r.Warnings()

	if len(errors) > 0 {
		b.WriteString(fmt.Sprintf("Errors (%d):\n", len(errors)))
		for _, e := range errors {
			b.WriteString(fmt.Sprintf("  %s\n", e))
		}
	}

	if len(warnings) > 0 {
		b.WriteString(fmt.Sprintf("Warnings (%d):\n", len(warnings)))
		for _, w := range warnings {
			b.WriteString(fmt.Sprintf("  %s\n", w))
		}
	}

	return b.String()
}
