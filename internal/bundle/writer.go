package bundle

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/oisplabs/registrar/internal/registry"
)

// Write serializes the document to path as pretty-printed JSON with fully
// sorted keys, and writes a byte-minimized twin alongside it. Both writes
// are atomic. Sorted keys keep the bundle byte-identical across compiles of
// the same inputs.
func Write(doc *Document, path string) error {
	pretty, minified, err := Encode(doc)
	if err != nil {
		return err
	}

	if err := registry.WriteFileAtomic(path, pretty); err != nil {
		return fmt.Errorf("writing bundle: %w", err)
	}
	if err := registry.WriteFileAtomic(MinPath(path), minified); err != nil {
		return fmt.Errorf("writing minified bundle: %w", err)
	}
	return nil
}

// Encode renders the pretty and minified serializations of the document.
// The struct is routed through a generic map so that every object's keys are
// emitted in sorted order, matching what consumers diff against.
func Encode(doc *Document) (pretty, minified []byte, err error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, nil, fmt.Errorf("marshaling bundle: %w", err)
	}

	var generic map[string]any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, nil, fmt.Errorf("normalizing bundle keys: %w", err)
	}

	pretty, err = json.MarshalIndent(generic, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("marshaling bundle: %w", err)
	}
	pretty = append(pretty, '\n')

	minified, err = json.Marshal(generic)
	if err != nil {
		return nil, nil, fmt.Errorf("marshaling minified bundle: %w", err)
	}

	return pretty, minified, nil
}

// MinPath derives the minified twin's path from the primary path.
func MinPath(path string) string {
	if strings.HasSuffix(path, ".json") {
		return strings.TrimSuffix(path, ".json") + ".min.json"
	}
	return path + ".min"
}
