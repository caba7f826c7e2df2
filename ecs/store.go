package ecs

import (
	"fmt"
	"iter"
	"reflect"
)

// ComponentStore is the entity/component container owned by a World.
// Storage (dense archetypes) and SparseStorage (per-type maps) implement it.
type ComponentStore interface {
	ComponentReader

	// Spawn allocates a new entity with the given components attached.
	Spawn(components ...any) EntityId
	// Despawn removes the entity and all of its components.
	Despawn(id EntityId) bool
	// Exists reports whether id refers to a live entity.
	Exists(id EntityId) bool
	HasComponent(id EntityId, compType reflect.Type) bool
	// AddComponent attaches a component, replacing an existing one of the same type.
	AddComponent(id EntityId, component any) error
	RemoveComponent(id EntityId, compType reflect.Type) error
	// Matching yields entities that have at least the given component types.
	Matching(types []reflect.Type) iter.Seq[EntityId]
	// MatchingExact yields entities whose component set is exactly types.
	MatchingExact(types []reflect.Type) iter.Seq[EntityId]
	// Len returns the number of live entities.
	Len() int
	Registry() *ComponentRegistry
}

// ComponentReader gives read access to a single component of an entity.
// GetComponent returns a pointer to the stored value, or nil.
type ComponentReader interface {
	GetComponent(EntityId, reflect.Type) any
}

// ReadComponent returns the component T of the entity or nil if it is absent.
func ReadComponent[T any](reader ComponentReader, entityId EntityId) *T {
	comp := reader.GetComponent(entityId, reflect.TypeFor[T]())
	if comp == nil {
		return nil
	}
	return comp.(*T)
}

// LookupComponent returns the component T of the entity, failing when the
// entity is dead or does not carry T.
func LookupComponent[T any](store ComponentStore, entityId EntityId) (*T, error) {
	if !store.Exists(entityId) {
		return nil, fmt.Errorf("entity %d: %w", entityId, ErrEntityNotFound)
	}
	comp := ReadComponent[T](store, entityId)
	if comp == nil {
		return nil, fmt.Errorf("entity %d, component %s: %w", entityId, reflect.TypeFor[T](), ErrComponentNotFound)
	}
	return comp, nil
}

// HasComponent reports whether the entity carries component T.
func HasComponent[T any](store ComponentStore, entityId EntityId) bool {
	return store.HasComponent(entityId, reflect.TypeFor[T]())
}

// RemoveComponent detaches component T from the entity.
func RemoveComponent[T any](store ComponentStore, entityId EntityId) error {
	return store.RemoveComponent(entityId, reflect.TypeFor[T]())
}

// componentType returns the component type of a value, dereferencing pointers.
func componentType(comp any) reflect.Type {
	compType := reflect.TypeOf(comp)
	if compType == nil {
		panic("components cannot be nil")
	}

	// If it's a pointer, get the underlying type
	if compType.Kind() == reflect.Ptr {
		compType = compType.Elem()
	}

	// Components can be structs or primitives (int, string, etc.)
	// But not pointers, maps, channels, or functions (those aren't value types)
	switch compType.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Chan, reflect.Func:
		panic("components cannot be pointers, maps, channels, or functions")
	}

	return compType
}
