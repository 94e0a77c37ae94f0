package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// WriteJSON writes the registry as indented JSON. The write is atomic: a
// failed run leaves the previous artifact untouched.
func (r *Registry) WriteJSON(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling registry: %w", err)
	}
	return WriteFileAtomic(path, append(data, '\n'))
}

// WriteYAML writes the registry as YAML with an auto-generated header, the
// human-readable twin of the JSON document.
func (r *Registry) WriteYAML(path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshaling registry YAML: %w", err)
	}

	header := fmt.Sprintf("# Model Registry\n# Auto-generated from %s - DO NOT EDIT MANUALLY\n# To regenerate: registrar sync\n\n", r.Source)
	return WriteFileAtomic(path, append([]byte(header), data...))
}

// WriteFileAtomic writes data to path via a temp file and rename, so readers
// never observe a partially written artifact.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
