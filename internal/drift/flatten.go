package drift

import (
	"encoding/json"
	"log/slog"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/oisplabs/registrar/internal/normalize"
	"github.com/oisplabs/registrar/internal/upstream"
)

// flatModel is one upstream model in the internal "{provider}/{id}" shape,
// with prices already converted to per-1k.
type flatModel struct {
	provider    string
	inputPer1K  *float64
	outputPer1K *float64
}

var sizeVariantRe = regexp.MustCompile(`^\d+-x-\d+/`)

// groupedEntry is the provider-grouped upstream shape: the top-level key is
// a provider id and its models nest underneath.
type groupedEntry struct {
	Models map[string]groupedModel `json:"models"`
}

type groupedModel struct {
	Cost struct {
		Input  float64 `json:"input"`
		Output float64 `json:"output"`
	} `json:"cost"`
	InputCostPerToken  float64 `json:"input_cost_per_token"`
	OutputCostPerToken float64 `json:"output_cost_per_token"`
}

// flatten converts an upstream snapshot into the "{provider}/{id}" keyed
// shape. Two upstream schemas are recognized per top-level value: the flat
// catalog entry (attribute bag with a provider tag) and the provider-grouped
// form (a "models" mapping under each provider). Keys are processed in
// sorted order so colliding entries resolve to the same winner as the
// Normalizer. Unreadable values are logged and skipped.
func flatten(snapshot upstream.Catalog, mappings normalize.Mappings) map[string]flatModel {
	flat := make(map[string]flatModel)

	keys := make([]string, 0, len(snapshot))
	for key := range snapshot {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		raw := snapshot[key]
		if key == "sample_spec" || sizeVariantRe.MatchString(key) {
			continue
		}

		var grouped groupedEntry
		if err := json.Unmarshal(raw, &grouped); err == nil && grouped.Models != nil {
			provider := mappings.CanonicalProvider(key)
			for id, gm := range grouped.Models {
				flat[provider+"/"+id] = flatModel{
					provider:    provider,
					inputPer1K:  perTokenToPtr(firstNonZero(gm.Cost.Input, gm.InputCostPerToken)),
					outputPer1K: perTokenToPtr(firstNonZero(gm.Cost.Output, gm.OutputCostPerToken)),
				}
			}
			continue
		}

		var e upstream.Entry
		if err := json.Unmarshal(raw, &e); err != nil {
			slog.Warn("skipping unreadable upstream entry", "id", key, "error", err)
			continue
		}
		if e.Provider == "" {
			continue
		}

		provider := mappings.CanonicalProvider(e.Provider)
		id := key
		for _, prefix := range []string{e.Provider + "/", provider + "/"} {
			if strings.HasPrefix(id, prefix) {
				id = id[len(prefix):]
				break
			}
		}

		flat[provider+"/"+id] = flatModel{
			provider:    provider,
			inputPer1K:  perTokenToPtr(e.InputCostPerToken),
			outputPer1K: perTokenToPtr(e.OutputCostPerToken),
		}
	}

	return flat
}

// perTokenToPtr converts a per-token price to per-1k, treating zero as
// absent, same as the Normalizer.
func perTokenToPtr(perToken float64) *float64 {
	if perToken == 0 {
		return nil
	}
	v := math.Round(perToken*1000*1e8) / 1e8
	return &v
}

func firstNonZero(a, b float64) float64 {
	if a != 0 {
		return a
	}
	return b
}
