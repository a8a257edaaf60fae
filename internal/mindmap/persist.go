package mindmap

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// SaveLeaves writes leaf mind maps as JSON.
func SaveLeaves(path string, leaves []LeafMap) error {
	data, err := json.MarshalIndent(leaves, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode mind maps: %w", err)
	}
	return writeFile(path, data)
}

// LoadLeaves reads leaf mind maps written by SaveLeaves.
func LoadLeaves(path string) ([]LeafMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mind maps: %w", err)
	}
	var leaves []LeafMap
	if err := json.Unmarshal(data, &leaves); err != nil {
		return nil, fmt.Errorf("failed to decode mind maps: %w", err)
	}
	return leaves, nil
}

// SaveMerged writes the merged Mermaid source.
func SaveMerged(path, code string) error {
	return writeFile(path, []byte(code))
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create mind map directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write mind map: %w", err)
	}
	return nil
}
