// Package models provides the catalog of known models: context limits,
// capabilities, display names and prices.
package models

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var builtinTable []byte

// Catalog is an immutable model lookup table.
type Catalog struct {
	descriptors   []Descriptor
	options       []string
	maxTokens     map[string]int
	cost          map[string]Cost
	types         map[string]Modality
	streamSupport map[string]bool
	displayNames  map[string]string
}

// New builds a catalog. On duplicate ids the later descriptor wins; the
// option list keeps the position of the first occurrence.
func New(descriptors []Descriptor) *Catalog {
	c := &Catalog{
		descriptors:   append([]Descriptor(nil), descriptors...),
		maxTokens:     make(map[string]int, len(descriptors)),
		cost:          make(map[string]Cost, len(descriptors)),
		types:         make(map[string]Modality, len(descriptors)),
		streamSupport: make(map[string]bool, len(descriptors)),
		displayNames:  make(map[string]string, len(descriptors)),
	}
	for _, d := range descriptors {
		if _, seen := c.displayNames[d.ID]; !seen {
			c.options = append(c.options, d.ID)
		}
		c.maxTokens[d.ID] = d.ContextLength
		c.cost[d.ID] = d.Cost
		c.types[d.ID] = d.Type
		c.streamSupport[d.ID] = d.StreamSupported
		name := d.Name
		if name == "" {
			name = d.ID
		}
		c.displayNames[d.ID] = name
	}
	return c
}

// Default returns the catalog of the built-in table.
func Default() *Catalog {
	descs, err := Parse(builtinTable)
	if err != nil {
		panic(fmt.Sprintf("models: built-in table: %v", err))
	}
	return New(descs)
}

// Parse reads a table in registry layout (YAML or JSON).
func Parse(data []byte) ([]Descriptor, error) {
	var reg Registry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("decode model table: %w", err)
	}
	return reg.Descriptors()
}

// LoadFile reads a model table from path.
func LoadFile(path string) ([]Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model table: %w", err)
	}
	return Parse(data)
}

// Merge returns a new catalog holding c's models followed by more.
func (c *Catalog) Merge(more []Descriptor) *Catalog {
	all := make([]Descriptor, 0, len(c.descriptors)+len(more))
	all = append(all, c.descriptors...)
	all = append(all, more...)
	return New(all)
}

// Options returns the model ids in catalog order.
func (c *Catalog) Options() []string {
	return append([]string(nil), c.options...)
}

// Has reports whether id is known.
func (c *Catalog) Has(id string) bool {
	_, ok := c.displayNames[id]
	return ok
}

// Lookup returns the descriptor of id.
func (c *Catalog) Lookup(id string) (Descriptor, bool) {
	if !c.Has(id) {
		return Descriptor{}, false
	}
	return Descriptor{
		ID:              id,
		Name:            c.displayNames[id],
		ContextLength:   c.maxTokens[id],
		Type:            c.types[id],
		StreamSupported: c.streamSupport[id],
		Cost:            c.cost[id],
	}, true
}

// MaxTokens returns the context length of id.
func (c *Catalog) MaxTokens(id string) (int, bool) {
	n, ok := c.maxTokens[id]
	return n, ok
}

// Cost returns the prices of id.
func (c *Catalog) Cost(id string) (Cost, bool) {
	cost, ok := c.cost[id]
	return cost, ok
}

// Type returns the modality of id, text when unknown.
func (c *Catalog) Type(id string) Modality {
	if t, ok := c.types[id]; ok {
		return t
	}
	return ModalityText
}

// StreamSupported reports whether id supports streaming.
func (c *Catalog) StreamSupported(id string) bool {
	return c.streamSupport[id]
}

// DisplayName returns the display name of id, or id itself.
func (c *Catalog) DisplayName(id string) string {
	if name, ok := c.displayNames[id]; ok {
		return name
	}
	return id
}
