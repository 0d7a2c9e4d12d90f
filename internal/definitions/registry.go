package definitions

import (
	"fmt"
	"sort"
	"sync"

	"sla-service/internal/models"
)

// GeneralCategory is used for requests whose category has no definition.
const GeneralCategory = "general"

// Builtin is the definition table used when no file is configured.
var Builtin = []models.Definition{
	{Category: GeneralCategory, TargetHours: 24, Priority: models.PriorityMedium, Checkpoints: []float64{12, 18, 22}},
	{Category: "password_reset", TargetHours: 2, Priority: models.PriorityHigh, Checkpoints: []float64{1, 1.5}},
	{Category: "access_request", TargetHours: 8, Priority: models.PriorityMedium, Checkpoints: []float64{4, 6, 7}},
	{Category: "incident", TargetHours: 4, Priority: models.PriorityCritical, Checkpoints: []float64{2, 3, 3.5}},
	{Category: "hardware_request", TargetHours: 72, Priority: models.PriorityLow, Checkpoints: []float64{24, 48, 60}},
	{Category: "software_install", TargetHours: 24, Priority: models.PriorityMedium, Checkpoints: []float64{12, 18, 22}},
}

// Registry maps request categories to SLA definitions.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]models.Definition
}

// New validates defs and builds a registry. The built-in general definition
// is added when defs does not provide one.
func New(defs ...models.Definition) (*Registry, error) {
	r := &Registry{defs: make(map[string]models.Definition, len(defs)+1)}
	for _, d := range defs {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if _, dup := r.defs[d.Category]; dup {
			return nil, fmt.Errorf("duplicate definition for category %s", d.Category)
		}
		r.defs[d.Category] = clone(d)
	}
	if _, ok := r.defs[GeneralCategory]; !ok {
		r.defs[GeneralCategory] = clone(Builtin[0])
	}
	return r, nil
}

// Default returns a registry holding the built-in table.
func Default() *Registry {
	r, err := New(Builtin...)
	if err != nil {
		panic(fmt.Sprintf("builtin definitions invalid: %v", err))
	}
	return r
}

// Lookup returns the definition for category, falling back to general.
// The boolean reports whether category itself was found.
func (r *Registry) Lookup(category string) (models.Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if d, ok := r.defs[category]; ok {
		return clone(d), true
	}
	return clone(r.defs[GeneralCategory]), false
}

// Categories returns the configured categories in sorted order.
func (r *Registry) Categories() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.defs))
	for c := range r.defs {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// All returns every definition ordered by category.
func (r *Registry) All() []models.Definition {
	cats := r.Categories()

	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Definition, 0, len(cats))
	for _, c := range cats {
		out = append(out, clone(r.defs[c]))
	}
	return out
}

func clone(d models.Definition) models.Definition {
	d.Checkpoints = append([]float64(nil), d.Checkpoints...)
	return d
}
