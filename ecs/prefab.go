package ecs

import (
	"fmt"
	"iter"
	"reflect"
	"slices"
)

// Prefab is a fixed component set used as a template for spawning entities.
// Every entity spawned from a prefab carries exactly the prefab's components,
// so with Storage all instances share one archetype.
type Prefab struct {
	types    []reflect.Type
	defaults []any
}

// NewPrefab declares a prefab from default component values. The registry is
// only consulted to validate that every type is registered.
func NewPrefab(registry *ComponentRegistry, defaults ...any) *Prefab {
	if len(defaults) == 0 {
		panic("prefab requires at least one component")
	}

	defaults, types := dedupeComponents(defaults)
	for _, typ := range types {
		registry.mustInfo(typ)
	}
	return &Prefab{
		types:    types,
		defaults: defaults,
	}
}

// Types returns the component types making up the prefab.
func (p *Prefab) Types() []reflect.Type {
	return slices.Clone(p.types)
}

// Has reports whether t belongs to the prefab.
func (p *Prefab) Has(t reflect.Type) bool {
	return slices.Contains(p.types, t)
}

// SpawnPrefab spawns an entity carrying the prefab's components. Overrides
// replace the default of their type; an override whose type is not part of the
// prefab is rejected.
func SpawnPrefab(store ComponentStore, p *Prefab, overrides ...any) (EntityId, error) {
	components := slices.Clone(p.defaults)
	for _, override := range overrides {
		compType := componentType(override)
		idx := slices.Index(p.types, compType)
		if idx == -1 {
			return 0, fmt.Errorf("%s: %w", compType, ErrNotInPrefab)
		}
		components[idx] = override
	}
	return store.Spawn(components...), nil
}

// Entities yields every entity in store whose component set is exactly the prefab's.
func (p *Prefab) Entities(store ComponentStore) iter.Seq[EntityId] {
	return store.MatchingExact(p.types)
}
