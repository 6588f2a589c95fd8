// Package catalog is the static registry of MITRE ATT&CK techniques and
// their canned hunt queries. The registry is loaded once at startup from an
// embedded document and is read-only afterwards.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed techniques.yaml
var embeddedTechniques []byte

// ErrTechniqueNotFound is returned by Lookup for ids not in the catalog.
var ErrTechniqueNotFound = errors.New("unknown MITRE ATT&CK technique")

// Technique maps a technique id to its display name, pre-authored hunt
// query, and description. The query is used verbatim; the builder only
// wraps it with window/paging directives.
type Technique struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Query       string `yaml:"query" json:"query"`
	Description string `yaml:"description" json:"description"`
}

// Catalog is an immutable id-indexed technique registry.
type Catalog struct {
	byID map[string]Technique
}

// NewDefault loads the built-in embedded technique set.
func NewDefault() (*Catalog, error) {
	return New(embeddedTechniques)
}

// New parses a YAML technique list into a Catalog.
func New(doc []byte) (*Catalog, error) {
	var techniques []Technique
	if err := yaml.Unmarshal(doc, &techniques); err != nil {
		return nil, fmt.Errorf("parse technique catalog: %w", err)
	}
	if len(techniques) == 0 {
		return nil, fmt.Errorf("technique catalog is empty")
	}

	byID := make(map[string]Technique, len(techniques))
	for _, tech := range techniques {
		if tech.ID == "" || tech.Query == "" {
			return nil, fmt.Errorf("technique %q: id and query are required", tech.ID)
		}
		if _, dup := byID[tech.ID]; dup {
			return nil, fmt.Errorf("duplicate technique id %q", tech.ID)
		}
		byID[tech.ID] = tech
	}
	return &Catalog{byID: byID}, nil
}

// Lookup returns the technique for id, or ErrTechniqueNotFound.
func (c *Catalog) Lookup(id string) (Technique, error) {
	tech, ok := c.byID[id]
	if !ok {
		return Technique{}, fmt.Errorf("%w: %s", ErrTechniqueNotFound, id)
	}
	return tech, nil
}

// All returns every technique sorted by id.
func (c *Catalog) All() []Technique {
	out := make([]Technique, 0, len(c.byID))
	for _, tech := range c.byID {
		out = append(out, tech)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len reports the number of cataloged techniques.
func (c *Catalog) Len() int {
	return len(c.byID)
}
