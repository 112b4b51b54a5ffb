// Package persona holds the static catalog of chat personas.
package persona

import (
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"fairytale-chat/internal/models"
)

//go:embed personas.yaml
var catalogYAML []byte

// ErrUnknownPersona is returned by Get for ids outside the catalog
var ErrUnknownPersona = errors.New("unknown persona")

type catalog struct {
	Default  string           `yaml:"default"`
	Personas []models.Persona `yaml:"personas"`
}

// Registry is a read-only persona catalog. Safe for concurrent use.
type Registry struct {
	order    []string
	byID     map[string]models.Persona
	fallback string
}

// Default returns the registry built from the embedded catalog.
// The catalog is compiled into the binary, so a parse error is a build defect.
func Default() *Registry {
	r, err := Parse(catalogYAML)
	if err != nil {
		panic(fmt.Sprintf("persona: embedded catalog: %v", err))
	}
	return r
}

// Parse builds a registry from a YAML catalog
func Parse(data []byte) (*Registry, error) {
	var c catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse persona catalog: %w", err)
	}
	if len(c.Personas) == 0 {
		return nil, errors.New("persona catalog is empty")
	}

	r := &Registry{byID: make(map[string]models.Persona, len(c.Personas))}
	for _, p := range c.Personas {
		if p.ID == "" {
			return nil, errors.New("persona id cannot be empty")
		}
		if _, dup := r.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate persona id: %s", p.ID)
		}
		r.byID[p.ID] = p
		r.order = append(r.order, p.ID)
	}

	r.fallback = c.Default
	if _, ok := r.byID[r.fallback]; !ok {
		r.fallback = r.order[0]
	}
	return r, nil
}

// Get returns the persona with the given id
func (r *Registry) Get(id string) (models.Persona, error) {
	p, ok := r.byID[id]
	if !ok {
		return models.Persona{}, fmt.Errorf("%w: %s", ErrUnknownPersona, id)
	}
	return clonePersona(p), nil
}

// List returns all personas in catalog order
func (r *Registry) List() []models.Persona {
	out := make([]models.Persona, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, clonePersona(r.byID[id]))
	}
	return out
}

// Has reports whether id is in the catalog
func (r *Registry) Has(id string) bool {
	_, ok := r.byID[id]
	return ok
}

// DefaultID is the persona new sessions start with
func (r *Registry) DefaultID() string {
	return r.fallback
}

// clonePersona copies the slices so callers cannot mutate the catalog
func clonePersona(p models.Persona) models.Persona {
	p.Traits = append([]string(nil), p.Traits...)
	p.Suggestions = append([]string(nil), p.Suggestions...)
	return p
}
