// Package upstream fetches and decodes the external model catalog the
// registry is normalized from. The catalog is one large JSON object keyed by
// provider-scoped model identifier; attribute bags vary per entry, so the
// catalog is held as raw messages and decoded entry by entry.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/oisplabs/registrar/internal/httpclient"
)

// Catalog is the raw upstream document: model identifier → attribute bag.
// Entries stay undecoded so that one malformed bag cannot fail the whole
// fetch; callers decode per entry via Decode.
type Catalog map[string]json.RawMessage

// Entry is the bounded set of upstream attributes the pipeline consumes.
// Unrecognized keys are ignored for forward compatibility. Token limits are
// float64 because upstream mixes integer and float encodings.
type Entry struct {
	Provider           string  `json:"litellm_provider"`
	Mode               string  `json:"mode"`
	MaxTokens          float64 `json:"max_tokens"`
	MaxInputTokens     float64 `json:"max_input_tokens"`
	MaxOutputTokens    float64 `json:"max_output_tokens"`
	InputCostPerToken  float64 `json:"input_cost_per_token"`
	OutputCostPerToken float64 `json:"output_cost_per_token"`
	DeprecationDate    string  `json:"deprecation_date"`

	SupportsVision                  bool `json:"supports_vision"`
	SupportsFunctionCalling         bool `json:"supports_function_calling"`
	SupportsParallelFunctionCalling bool `json:"supports_parallel_function_calling"`
	SupportsSystemMessages          bool `json:"supports_system_messages"`
	SupportsResponseSchema          bool `json:"supports_response_schema"`
	SupportsPromptCaching           bool `json:"supports_prompt_caching"`
	SupportsReasoning               bool `json:"supports_reasoning"`
	SupportsWebSearch               bool `json:"supports_web_search"`
	SupportsAudioInput              bool `json:"supports_audio_input"`
	SupportsAudioOutput             bool `json:"supports_audio_output"`
}

// Flag reports whether the named upstream boolean flag is set. The names
// mirror the upstream keys so capability mapping tables can stay data-only.
func (e *Entry) Flag(name string) bool {
	switch name {
	case "supports_vision":
		return e.SupportsVision
	case "supports_function_calling":
		return e.SupportsFunctionCalling
	case "supports_parallel_function_calling":
		return e.SupportsParallelFunctionCalling
	case "supports_system_messages":
		return e.SupportsSystemMessages
	case "supports_response_schema":
		return e.SupportsResponseSchema
	case "supports_prompt_caching":
		return e.SupportsPromptCaching
	case "supports_reasoning":
		return e.SupportsReasoning
	case "supports_web_search":
		return e.SupportsWebSearch
	case "supports_audio_input":
		return e.SupportsAudioInput
	case "supports_audio_output":
		return e.SupportsAudioOutput
	}
	return false
}

// Decode unmarshals one entry's attribute bag.
func (c Catalog) Decode(id string) (*Entry, error) {
	raw, ok := c[id]
	if !ok {
		return nil, fmt.Errorf("no entry %q", id)
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("decoding entry %q: %w", id, err)
	}
	return &e, nil
}

// Fetch downloads the upstream catalog. A transport failure or timeout is
// fatal for the run; the caller must not fall back to an empty catalog.
func Fetch(ctx context.Context, client *httpclient.Client, url string) (Catalog, error) {
	resp, err := client.Get(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching upstream catalog: %w", err)
	}
	return parse(resp.Body)
}

// LoadFile reads a previously downloaded catalog from disk.
func LoadFile(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading upstream snapshot: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (Catalog, error) {
	var cat Catalog
	if err := json.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parsing upstream catalog: %w", err)
	}
	if len(cat) == 0 {
		return nil, fmt.Errorf("upstream catalog is empty")
	}
	return cat, nil
}
