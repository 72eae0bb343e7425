package schema

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// document is the YAML layout accepted by LoadYAML.
//
//	types:
//	  - name: Order
//	    associations:
//	      - name: line_items
//	        kind: has_many
//	        dependent: delete_all
//	      - name: comments
//	        kind: has_many
//	        as: commentable
//	        dependent: destroy
//	  - name: Attachment
//	    associations:
//	      - name: owner
//	        kind: belongs_to
//	        polymorphic: true
//	        dependent: delete
type document struct {
	Types []*EntityType `yaml:"types"`
}

// LoadYAML reads a registry from a YAML document.
func LoadYAML(r io.Reader) (*Registry, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var doc document
	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("schema: decode yaml: %w", err)
	}
	types := make([]Typer, len(doc.Types))
	for i, t := range doc.Types {
		types[i] = t
	}
	return NewRegistry(types...)
}

// LoadFile reads a registry from a YAML file.
func LoadFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}
	defer f.Close()
	return LoadYAML(f)
}

// MarshalYAML encodes the registry in the layout accepted by LoadYAML,
// with all conventional defaults spelled out.
func (r *Registry) MarshalYAML() (any, error) {
	return document{Types: r.types}, nil
}
