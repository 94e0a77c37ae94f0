package drift

import (
	"fmt"
	"strings"
	"time"

	"github.com/oisplabs/registrar/internal/registry"
)

// Section caps keep the report readable when upstream churns heavily.
const (
	maxNewModels      = 30
	maxRemovedModels  = 20
	maxPricingChanges = 20
)

// RenderMarkdown renders the human-facing drift report. The report is not
// re-consumed programmatically.
func RenderMarkdown(r *Report, now time.Time) string {
	var b strings.Builder

	b.WriteString("# Model Registry Drift Report\n\n")
	fmt.Fprintf(&b, "**Date**: %s\n\n", now.UTC().Format(time.RFC3339))

	if len(r.NewProviders) > 0 {
		fmt.Fprintf(&b, "## New Providers (%d)\n\n", len(r.NewProviders))
		for _, p := range r.NewProviders {
			fmt.Fprintf(&b, "- `%s`\n", p)
		}
		b.WriteString("\n")
	}

	if len(r.RemovedProviders) > 0 {
		fmt.Fprintf(&b, "## Removed Providers (%d)\n\n", len(r.RemovedProviders))
		for _, p := range r.RemovedProviders {
			fmt.Fprintf(&b, "- `%s`\n", p)
		}
		b.WriteString("\n")
	}

	if len(r.NewModels) > 0 {
		fmt.Fprintf(&b, "## New Models (%d)\n\n", len(r.NewModels))
		b.WriteString("Models available upstream but not in the registry:\n\n")
		writeCapped(&b, r.NewModels, maxNewModels)
	}

	if len(r.RemovedModels) > 0 {
		fmt.Fprintf(&b, "## Removed/Deprecated Models (%d)\n\n", len(r.RemovedModels))
		b.WriteString("Models in the registry but no longer upstream:\n\n")
		writeCapped(&b, r.RemovedModels, maxRemovedModels)
	}

	if len(r.PricingChanges) > 0 {
		fmt.Fprintf(&b, "## Pricing Changes (%d)\n\n", len(r.PricingChanges))
		b.WriteString("| Model | Old Input | New Input | Old Output | New Output |\n")
		b.WriteString("|-------|-----------|-----------|------------|------------|\n")
		for i, c := range r.PricingChanges {
			if i == maxPricingChanges {
				fmt.Fprintf(&b, "\n... and %d more pricing changes\n", len(r.PricingChanges)-maxPricingChanges)
				break
			}
			fmt.Fprintf(&b, "| `%s` | %s | %s | %s | %s |\n",
				c.Model, price(c.OldInput), price(c.NewInput), price(c.OldOutput), price(c.NewOutput))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "- New providers: %d\n", len(r.NewProviders))
	fmt.Fprintf(&b, "- Removed providers: %d\n", len(r.RemovedProviders))
	fmt.Fprintf(&b, "- New models: %d\n", len(r.NewModels))
	fmt.Fprintf(&b, "- Removed models: %d\n", len(r.RemovedModels))
	fmt.Fprintf(&b, "- Pricing changes: %d\n\n", len(r.PricingChanges))

	if len(r.NewModels) > 0 || len(r.PricingChanges) > 0 {
		b.WriteString("**Action Required**: run `registrar sync` to pick up the changes.\n")
	}

	return b.String()
}

// WriteReport writes the markdown report to path. When nothing changed, the
// file is still created empty: callers rely on its existence as a completion
// signal.
func WriteReport(r *Report, path string, now time.Time) error {
	if !r.Changed() {
		return registry.WriteFileAtomic(path, nil)
	}
	return registry.WriteFileAtomic(path, []byte(RenderMarkdown(r, now)))
}

func writeCapped(b *strings.Builder, items []string, limit int) {
	for i, item := range items {
		if i == limit {
			fmt.Fprintf(b, "\n... and %d more models\n", len(items)-limit)
			break
		}
		fmt.Fprintf(b, "- `%s`\n", item)
	}
	b.WriteString("\n")
}

func price(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("$%.6f", *v)
}
