package ecs

import (
	"fmt"
	"iter"
	"reflect"

	"github.com/kamstrup/intmap"
)

var _ ComponentStore = (*SparseStorage)(nil)

// SparseStorage is a ComponentStore that keeps one entity-keyed map per
// component type. Adding and removing components never moves data, which
// suits entities whose component set changes often.
type SparseStorage struct {
	registry   *ComponentRegistry
	entities   entityAllocator
	counts     *intmap.Map[EntityId, int]
	components map[reflect.Type]*intmap.Map[EntityId, any]
}

// NewSparseStorage creates an empty sparse store.
func NewSparseStorage(registry *ComponentRegistry) *SparseStorage {
	return &SparseStorage{
		registry:   registry,
		counts:     intmap.New[EntityId, int](256),
		components: make(map[reflect.Type]*intmap.Map[EntityId, any]),
	}
}

// Registry returns the component registry backing this storage.
func (s *SparseStorage) Registry() *ComponentRegistry {
	return s.registry
}

// Spawn mints a new entity and attaches the components.
func (s *SparseStorage) Spawn(components ...any) EntityId {
	if len(components) == 0 {
		panic("cannot spawn entity without components")
	}
	for _, comp := range components {
		s.registry.mustInfo(componentType(comp))
	}

	id := s.entities.allocate()
	s.counts.Put(id, 0)
	for _, comp := range components {
		s.put(id, comp)
	}
	return id
}

// put boxes comp into a fresh *T owned by the store.
func (s *SparseStorage) put(id EntityId, comp any) {
	compType := componentType(comp)
	s.registry.mustInfo(compType)

	value := reflect.New(compType)
	src := reflect.ValueOf(comp)
	if src.Kind() == reflect.Ptr {
		src = src.Elem()
	}
	value.Elem().Set(src)

	store := s.components[compType]
	if store == nil {
		store = intmap.New[EntityId, any](64)
		s.components[compType] = store
	}
	if _, exists := store.Get(id); !exists {
		count, _ := s.counts.Get(id)
		s.counts.Put(id, count+1)
	}
	store.Put(id, value.Interface())
}

// Despawn marks the entity dead and removes all its components.
func (s *SparseStorage) Despawn(id EntityId) bool {
	if !s.entities.release(id) {
		return false
	}
	for _, store := range s.components {
		store.Del(id)
	}
	s.counts.Del(id)
	return true
}

// Exists reports whether the entity is alive.
func (s *SparseStorage) Exists(id EntityId) bool {
	return s.entities.isAlive(id)
}

// Len returns the number of live entities.
func (s *SparseStorage) Len() int {
	return s.entities.count
}

// GetComponent returns the component of the given type for the entity, or nil.
func (s *SparseStorage) GetComponent(id EntityId, compType reflect.Type) any {
	store := s.components[compType]
	if store == nil {
		return nil
	}
	comp, ok := store.Get(id)
	if !ok {
		return nil
	}
	return comp
}

// HasComponent reports whether the entity has a component of the given type.
func (s *SparseStorage) HasComponent(id EntityId, compType reflect.Type) bool {
	return s.GetComponent(id, compType) != nil
}

// AddComponent attaches a component to an entity, replacing any previous value.
func (s *SparseStorage) AddComponent(id EntityId, component any) error {
	if !s.Exists(id) {
		return fmt.Errorf("entity %d: %w", id, ErrEntityNotFound)
	}
	s.put(id, component)
	return nil
}

// RemoveComponent detaches a component from an entity. Removing the last
// component despawns the entity, matching Storage.
func (s *SparseStorage) RemoveComponent(id EntityId, compType reflect.Type) error {
	if !s.Exists(id) {
		return fmt.Errorf("entity %d: %w", id, ErrEntityNotFound)
	}
	store := s.components[compType]
	if store == nil || !store.Del(id) {
		return fmt.Errorf("entity %d, component %s: %w", id, compType, ErrComponentNotFound)
	}

	count, _ := s.counts.Get(id)
	if count <= 1 {
		s.Despawn(id)
		return nil
	}
	s.counts.Put(id, count-1)
	return nil
}

// Matching yields entities that carry every one of types. Iteration is driven
// by the first type's map.
func (s *SparseStorage) Matching(types []reflect.Type) iter.Seq[EntityId] {
	return func(yield func(EntityId) bool) {
		if len(types) == 0 {
			s.counts.ForEach(func(id EntityId, _ int) bool {
				return yield(id)
			})
			return
		}

		driver := s.components[types[0]]
		if driver == nil {
			return
		}

		// collect first so the caller may mutate components while iterating
		ids := make([]EntityId, 0, driver.Len())
		driver.ForEach(func(id EntityId, _ any) bool {
			if s.hasAll(id, types[1:]) {
				ids = append(ids, id)
			}
			return true
		})

		for _, id := range ids {
			if !yield(id) {
				return
			}
		}
	}
}

// MatchingExact yields entities whose component set is exactly types.
func (s *SparseStorage) MatchingExact(types []reflect.Type) iter.Seq[EntityId] {
	return func(yield func(EntityId) bool) {
		for id := range s.Matching(types) {
			if count, _ := s.counts.Get(id); count != len(types) {
				continue
			}
			if !yield(id) {
				return
			}
		}
	}
}

func (s *SparseStorage) hasAll(id EntityId, types []reflect.Type) bool {
	for _, typ := range types {
		if !s.HasComponent(id, typ) {
			return false
		}
	}
	return true
}
