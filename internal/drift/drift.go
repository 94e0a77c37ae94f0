// Package drift compares the compiled registry against a fresh upstream
// snapshot to decide whether a full sync is needed.
package drift

import (
	"math"
	"sort"

	"github.com/oisplabs/registrar/internal/registry"
	"github.com/oisplabs/registrar/internal/upstream"

	"github.com/oisplabs/registrar/internal/normalize"
)

// tolerance below which two prices are considered equal. Upstream rounds
// per-1k prices to 8 fractional digits, so anything tighter is noise.
const tolerance = 1e-9

// PricingChange records a price delta for one model. Nil means the value is
// absent on that side.
type PricingChange struct {
	Model     string
	OldInput  *float64
	NewInput  *float64
	OldOutput *float64
	NewOutput *float64
}

// Report is the transient result of one comparator run.
type Report struct {
	NewProviders     []string
	RemovedProviders []string
	NewModels        []string
	RemovedModels    []string
	PricingChanges   []PricingChange
}

// Changed reports whether any of the diff collections is non-empty.
func (r *Report) Changed() bool {
	return len(r.NewProviders) > 0 || len(r.RemovedProviders) > 0 ||
		len(r.NewModels) > 0 || len(r.RemovedModels) > 0 ||
		len(r.PricingChanges) > 0
}

// Compare computes the drift between the current registry and a fresh
// upstream snapshot. The snapshot is flattened into the same
// "{provider}/{id}" keyed shape used internally; its schema may diverge
// from what the Normalizer expects, and both known upstream shapes are
// tolerated. Data content never raises; only a structurally unreadable
// registry does, and that is the caller's loading problem.
func Compare(current *registry.Registry, snapshot upstream.Catalog, mappings normalize.Mappings) *Report {
	rep := &Report{}

	flat := flatten(snapshot, mappings)

	currentKeys := make(map[string]bool, len(current.Models))
	currentProviders := make(map[string]bool)
	for key := range current.Models {
		currentKeys[key] = true
	}
	for _, id := range current.ProviderIDs() {
		currentProviders[id] = true
	}

	upstreamProviders := make(map[string]bool)
	for _, fm := range flat {
		upstreamProviders[fm.provider] = true
	}

	newProviders := make(map[string]bool)
	for id := range upstreamProviders {
		if !currentProviders[id] {
			newProviders[id] = true
			rep.NewProviders = append(rep.NewProviders, id)
		}
	}
	for id := range currentProviders {
		if !upstreamProviders[id] {
			rep.RemovedProviders = append(rep.RemovedProviders, id)
		}
	}

	for key, fm := range flat {
		if currentKeys[key] {
			continue
		}
		// Models of a brand-new provider are reported once under
		// new-providers, not repeated per model.
		if newProviders[fm.provider] {
			continue
		}
		rep.NewModels = append(rep.NewModels, key)
	}

	for key := range currentKeys {
		if _, ok := flat[key]; !ok {
			rep.RemovedModels = append(rep.RemovedModels, key)
		}
	}

	for key, fm := range flat {
		cur, ok := current.Models[key]
		if !ok {
			continue
		}
		oldIn := costPtr(cur.InputCostPer1K)
		oldOut := costPtr(cur.OutputCostPer1K)
		if priceEqual(oldIn, fm.inputPer1K) && priceEqual(oldOut, fm.outputPer1K) {
			continue
		}
		rep.PricingChanges = append(rep.PricingChanges, PricingChange{
			Model:     key,
			OldInput:  oldIn,
			NewInput:  fm.inputPer1K,
			OldOutput: oldOut,
			NewOutput: fm.outputPer1K,
		})
	}

	sort.Strings(rep.NewProviders)
	sort.Strings(rep.RemovedProviders)
	sort.Strings(rep.NewModels)
	sort.Strings(rep.RemovedModels)
	sort.Slice(rep.PricingChanges, func(i, j int) bool {
		return rep.PricingChanges[i].Model < rep.PricingChanges[j].Model
	})

	return rep
}

// priceEqual applies the equality-with-tolerance rule: both absent is equal,
// exactly one absent is unequal, otherwise |a-b| < tolerance.
func priceEqual(a, b *float64) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return math.Abs(*a-*b) < tolerance
}

// costPtr maps the registry's omitted-when-zero cost encoding back to an
// optional value. Zero means absent; the registry never stores a genuine
// zero price.
func costPtr(v float64) *float64 {
	if v == 0 {
		return nil
	}
	return &v
}
