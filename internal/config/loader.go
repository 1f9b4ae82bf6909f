package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Paths locates the three documents a run is configured from.
type Paths struct {
	Config string
	Params string
	Schema string
}

// DefaultPaths returns the conventional document locations relative to the
// working directory.
func DefaultPaths() Paths {
	return Paths{
		Config: filepath.Join("config", "config.yaml"),
		Params: "params.yaml",
		Schema: "schema.yaml",
	}
}

// Store holds the parsed run configuration, hyperparameters and schema.
// It is read-only once Load returns.
type Store struct {
	Paths  Paths
	Run    RunConfig
	Params Params
	Schema Schema
}

// Load reads and parses the three documents and creates the artifacts root
// directory. An existing directory is not an error.
func Load(paths Paths) (*Store, error) {
	s := &Store{Paths: paths}

	if err := readDocument(paths.Config, &s.Run); err != nil {
		return nil, err
	}
	if err := readDocument(paths.Params, &s.Params); err != nil {
		return nil, err
	}
	if err := readDocument(paths.Schema, &s.Schema); err != nil {
		return nil, err
	}

	if s.Run.ArtifactsRoot == "" {
		return nil, &DocumentParseError{Path: paths.Config, Err: errors.New("artifacts_root is required")}
	}
	if err := os.MkdirAll(s.Run.ArtifactsRoot, 0o755); err != nil {
		return nil, fmt.Errorf("create artifacts root %s: %w", s.Run.ArtifactsRoot, err)
	}
	return s, nil
}

// readDocument decodes the YAML document at path into v, classifying
// failures as not-found, empty or parse errors.
func readDocument(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &DocumentNotFoundError{Path: path}
		}
		return fmt.Errorf("reading config document %s: %w", path, err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return &DocumentParseError{Path: path, Err: err}
	}
	if isEmptyNode(&root) {
		return &DocumentEmptyError{Path: path}
	}
	if err := root.Decode(v); err != nil {
		return &DocumentParseError{Path: path, Err: err}
	}
	return nil
}

// isEmptyNode reports whether a parsed document has no usable content:
// no document at all, a null scalar, or an empty mapping or sequence.
func isEmptyNode(n *yaml.Node) bool {
	if n.Kind == 0 {
		return true
	}
	if n.Kind == yaml.DocumentNode {
		if len(n.Content) == 0 {
			return true
		}
		n = n.Content[0]
	}
	switch n.Kind {
	case yaml.MappingNode, yaml.SequenceNode:
		return len(n.Content) == 0
	case yaml.ScalarNode:
		return n.Tag == "!!null"
	}
	return false
}
