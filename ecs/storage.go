package ecs

import (
	"fmt"
	"iter"
	"reflect"

	"github.com/kamstrup/intmap"
)

var _ ComponentStore = (*Storage)(nil)

type entityLocation struct {
	archetype *Archetype
	row       uint32
}

// Storage is the dense, archetype based ComponentStore. Entities that share a
// component signature live in the same Archetype, which keeps bulk
// iteration over homogeneous entities (for example prefab instances) tight.
type Storage struct {
	archetypes map[ArchetypeId]*Archetype
	registry   *ComponentRegistry
	entities   entityAllocator
	locations  *intmap.Map[EntityId, entityLocation]
}

// NewStorage creates a new ECS storage system with the given component registry
func NewStorage(registry *ComponentRegistry) *Storage {
	return &Storage{
		archetypes: make(map[ArchetypeId]*Archetype),
		registry:   registry,
		locations:  intmap.New[EntityId, entityLocation](256),
	}
}

// Registry returns the component registry backing this storage.
func (s *Storage) Registry() *ComponentRegistry {
	return s.registry
}

// GetArchetype returns an archetype storage (if one exists)
func (s *Storage) GetArchetype(components ...any) *Archetype {
	types := make([]reflect.Type, len(components))
	for i, comp := range components {
		types[i] = componentType(comp)
	}
	return s.GetArchetypeByTypes(types)
}

// GetArchetypeByTypes returns an archetype storage (if one exists) based on reflect.Type
func (s *Storage) GetArchetypeByTypes(types []reflect.Type) *Archetype {
	archetypeId, ids := archetypeIdFor(types, s.registry)
	archetype, ok := s.archetypes[archetypeId]
	if !ok || !archetype.holds(ids) {
		return nil
	}
	return archetype
}

// Archetypes returns an iterator over every archetype in the storage.
func (s *Storage) Archetypes() iter.Seq[*Archetype] {
	return func(yield func(*Archetype) bool) {
		for _, archetype := range s.archetypes {
			if !yield(archetype) {
				return
			}
		}
	}
}

func (s *Storage) archetypeFor(types []reflect.Type) *Archetype {
	archetypeId, ids := archetypeIdFor(types, s.registry)
	archetype, exists := s.archetypes[archetypeId]
	if !exists {
		archetype = NewArchetype(types, s.registry)
		s.archetypes[archetypeId] = archetype
		return archetype
	}
	if !archetype.holds(ids) {
		panic(fmt.Sprintf("archetype id %d collision: %v and %v", archetypeId, archetype.types, types))
	}
	return archetype
}

// Spawn creates a new entity with the provided components. When the same
// component type is passed twice the last value wins.
func (s *Storage) Spawn(components ...any) EntityId {
	if len(components) == 0 {
		panic("cannot spawn entity without components")
	}

	components, types := dedupeComponents(components)
	archetype := s.archetypeFor(types)

	id := s.entities.allocate()
	row := archetype.Spawn(id, components)
	s.locations.Put(id, entityLocation{archetype: archetype, row: row})
	return id
}

// Despawn removes all data related to the entity ID
func (s *Storage) Despawn(id EntityId) bool {
	loc, ok := s.locations.Get(id)
	if !ok {
		return false
	}

	loc.archetype.Delete(loc.row)
	s.locations.Del(id)
	s.entities.release(id)
	return true
}

// Exists reports whether the entity is alive.
func (s *Storage) Exists(id EntityId) bool {
	_, ok := s.locations.Get(id)
	return ok
}

// Len returns the number of live entities.
func (s *Storage) Len() int {
	return s.entities.count
}

// AddComponent moves the entity to the archetype that also contains the
// component. If the entity already has a component of that type, it is
// overwritten in place.
func (s *Storage) AddComponent(id EntityId, component any) error {
	loc, ok := s.locations.Get(id)
	if !ok {
		return fmt.Errorf("entity %d: %w", id, ErrEntityNotFound)
	}

	compType := componentType(component)
	oldArchetype := loc.archetype
	if oldArchetype.HasComponent(compType) {
		oldArchetype.SetComponent(loc.row, component)
		return nil
	}

	newTypes := make([]reflect.Type, 0, len(oldArchetype.types)+1)
	newTypes = append(newTypes, oldArchetype.types...)
	newTypes = append(newTypes, compType)
	newArchetype := s.archetypeFor(newTypes)

	components := make([]any, 0, len(newTypes))
	for _, typ := range oldArchetype.types {
		components = append(components, oldArchetype.GetComponent(loc.row, typ))
	}
	components = append(components, component)

	s.move(id, loc, newArchetype, components)
	return nil
}

// RemoveComponent moves the entity to the archetype without the component.
// Removing the last component despawns the entity.
func (s *Storage) RemoveComponent(id EntityId, compType reflect.Type) error {
	loc, ok := s.locations.Get(id)
	if !ok {
		return fmt.Errorf("entity %d: %w", id, ErrEntityNotFound)
	}

	oldArchetype := loc.archetype
	if !oldArchetype.HasComponent(compType) {
		return fmt.Errorf("entity %d, component %s: %w", id, compType, ErrComponentNotFound)
	}

	newTypes := make([]reflect.Type, 0, len(oldArchetype.types)-1)
	components := make([]any, 0, len(oldArchetype.types)-1)
	for _, typ := range oldArchetype.types {
		if typ != compType {
			newTypes = append(newTypes, typ)
			components = append(components, oldArchetype.GetComponent(loc.row, typ))
		}
	}

	if len(newTypes) == 0 {
		// Entity has no components left, delete it
		s.Despawn(id)
		return nil
	}

	s.move(id, loc, s.archetypeFor(newTypes), components)
	return nil
}

// move copies components into a row of dst and frees the old row. The
// entity id is unchanged.
func (s *Storage) move(id EntityId, loc entityLocation, dst *Archetype, components []any) {
	// components point into the old row; copy them out before it is freed
	row := dst.Spawn(id, components)
	loc.archetype.Delete(loc.row)
	s.locations.Put(id, entityLocation{archetype: dst, row: row})
}

// GetComponent returns the component for the given entity ID and component type
func (s *Storage) GetComponent(id EntityId, compType reflect.Type) any {
	loc, ok := s.locations.Get(id)
	if !ok {
		return nil
	}
	return loc.archetype.GetComponent(loc.row, compType)
}

// HasComponent checks if an entity has a specific component type
func (s *Storage) HasComponent(id EntityId, compType reflect.Type) bool {
	loc, ok := s.locations.Get(id)
	if !ok {
		return false
	}
	return loc.archetype.HasComponent(compType)
}

// ArchetypeOf returns the archetype currently holding the entity.
func (s *Storage) ArchetypeOf(id EntityId) *Archetype {
	loc, ok := s.locations.Get(id)
	if !ok {
		return nil
	}
	return loc.archetype
}

// Matching yields every entity whose archetype contains all of types.
func (s *Storage) Matching(types []reflect.Type) iter.Seq[EntityId] {
	return func(yield func(EntityId) bool) {
		for _, archetype := range s.archetypes {
			if !archetypeHasAll(archetype, types) {
				continue
			}
			for _, id := range archetype.Iter() {
				if !yield(id) {
					return
				}
			}
		}
	}
}

// MatchingExact yields the entities of the single archetype made of types.
func (s *Storage) MatchingExact(types []reflect.Type) iter.Seq[EntityId] {
	return func(yield func(EntityId) bool) {
		archetype := s.GetArchetypeByTypes(types)
		if archetype == nil {
			return
		}
		for _, id := range archetype.Iter() {
			if !yield(id) {
				return
			}
		}
	}
}

// Compact reorganizes all archetypes to eliminate empty rows. Entity ids are
// unaffected; only their internal locations move.
func (s *Storage) Compact() {
	for _, archetype := range s.archetypes {
		for oldRow, newRow := range archetype.compact() {
			if oldRow == newRow {
				continue
			}
			id := archetype.entities[newRow]
			s.locations.Put(id, entityLocation{archetype: archetype, row: uint32(newRow)})
		}
	}
}

func archetypeHasAll(archetype *Archetype, types []reflect.Type) bool {
	for _, typ := range types {
		if !archetype.HasComponent(typ) {
			return false
		}
	}
	return true
}

// dedupeComponents returns the components with one value per type, keeping
// the last occurrence, together with their types.
func dedupeComponents(components []any) ([]any, []reflect.Type) {
	types := make([]reflect.Type, 0, len(components))
	unique := make([]any, 0, len(components))
	for _, comp := range components {
		compType := componentType(comp)
		replaced := false
		for i, typ := range types {
			if typ == compType {
				unique[i] = comp
				replaced = true
				break
			}
		}
		if !replaced {
			types = append(types, compType)
			unique = append(unique, comp)
		}
	}
	return unique, types
}
