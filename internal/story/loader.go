package story

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed treasure.yaml
var treasureYAML []byte

// LoadGraph loads a story graph from a YAML file.
func LoadGraph(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read story file: %w", err)
	}
	return ParseGraph(data)
}

// ParseGraph parses a YAML story document.
func ParseGraph(data []byte) (*Graph, error) {
	var g Graph
	if err := yaml.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("failed to parse story YAML: %w", err)
	}

	if g.Version != 1 {
		return nil, fmt.Errorf("unsupported story version: %d", g.Version)
	}

	return &g, nil
}

// Load reads and compiles the story at path. An empty path selects the
// built-in Treasure Land story.
func Load(path string) (*Engine, error) {
	if path == "" {
		return Default()
	}
	g, err := LoadGraph(path)
	if err != nil {
		return nil, err
	}
	return New(g)
}

// Default compiles the built-in Treasure Land story.
func Default() (*Engine, error) {
	g, err := ParseGraph(treasureYAML)
	if err != nil {
		return nil, err
	}
	return New(g)
}
