package ecs

import (
	"encoding/binary"
	"reflect"
	"slices"

	"github.com/cespare/xxhash/v2"
)

// ArchetypeId identifies a unique combination of component types.
type ArchetypeId uint64

// Archetype stores every entity that has exactly one particular set of
// component types. Each component type has its own column; a row index is
// shared across all columns.
type Archetype struct {
	id       ArchetypeId
	ids      []ComponentId
	types    []reflect.Type
	storages []iComponentStorage
	entities []EntityId
}

// NewArchetype creates a new archetype for the given component types.
// The types are ordered by their registered ComponentId.
func NewArchetype(types []reflect.Type, registry *ComponentRegistry) *Archetype {
	infos := make([]*componentInfo, len(types))
	for idx, typ := range types {
		infos[idx] = registry.mustInfo(typ)
	}
	slices.SortFunc(infos, func(a, b *componentInfo) int {
		return int(a.id) - int(b.id)
	})

	a := &Archetype{
		ids:      make([]ComponentId, len(infos)),
		types:    make([]reflect.Type, len(infos)),
		storages: make([]iComponentStorage, len(infos)),
	}

	// Initialize storage for each component type
	for idx, info := range infos {
		a.ids[idx] = info.id
		a.types[idx] = info.typ
		a.storages[idx] = info.factory()
	}
	a.id = hashComponentIds(a.ids)

	return a
}

// hashComponentIds digests a sorted list of component ids.
func hashComponentIds(ids []ComponentId) ArchetypeId {
	digest := xxhash.New()
	var buf [4]byte
	for _, id := range ids {
		binary.LittleEndian.PutUint32(buf[:], uint32(id))
		_, _ = digest.Write(buf[:])
	}
	return ArchetypeId(digest.Sum64())
}

// archetypeIdFor computes the archetype id of a set of component types
// without building the archetype. The sorted component ids are returned too
// so callers can tell a digest collision from a match.
func archetypeIdFor(types []reflect.Type, registry *ComponentRegistry) (ArchetypeId, []ComponentId) {
	ids := make([]ComponentId, len(types))
	for i, typ := range types {
		ids[i] = registry.mustInfo(typ).id
	}
	slices.Sort(ids)
	return hashComponentIds(ids), ids
}

// holds reports whether the archetype is made of exactly the sorted ids.
func (a *Archetype) holds(ids []ComponentId) bool {
	return slices.Equal(a.ids, ids)
}

func (a *Archetype) column(compType reflect.Type) int {
	for i, typ := range a.types {
		if typ == compType {
			return i
		}
	}
	return -1
}

// Spawn stores the components of entity in a new row and returns that row.
// components must hold exactly one value for every column.
func (a *Archetype) Spawn(entity EntityId, components []any) uint32 {
	row := -1
	for _, comp := range components {
		idx := a.column(componentType(comp))
		if idx == -1 {
			panic("component type " + componentType(comp).String() + " does not belong to archetype")
		}
		pos := a.storages[idx].Append(comp)
		if row != -1 && pos != row {
			panic("archetype columns out of sync")
		}
		row = pos
	}

	for row >= len(a.entities) {
		a.entities = append(a.entities, 0)
	}
	a.entities[row] = entity
	return uint32(row)
}

// GetComponent returns the component of the given type stored at row
func (a *Archetype) GetComponent(row uint32, compType reflect.Type) any {
	idx := a.column(compType)
	if idx == -1 {
		return nil
	}
	return a.storages[idx].Get(int(row))
}

// SetComponent overwrites the component of the given type stored at row
func (a *Archetype) SetComponent(row uint32, component any) bool {
	idx := a.column(componentType(component))
	if idx == -1 {
		return false
	}
	return a.storages[idx].Set(int(row), component)
}

// Delete frees a row in every column.
// Other rows remain stable - the slot is simply marked as empty
func (a *Archetype) Delete(row uint32) {
	for _, storage := range a.storages {
		storage.Delete(int(row))
	}
	if int(row) < len(a.entities) {
		a.entities[row] = 0
	}
}

// HasComponent checks if this archetype has the given component type
func (a *Archetype) HasComponent(compType reflect.Type) bool {
	return slices.Contains(a.types, compType)
}

// ID returns the archetype's unique identifier
func (a *Archetype) ID() ArchetypeId {
	return a.id
}

// Types returns the component types for this archetype
func (a *Archetype) Types() []reflect.Type {
	return a.types
}

// Len returns the number of entities stored in the archetype.
func (a *Archetype) Len() int {
	if len(a.storages) == 0 {
		return 0
	}
	return a.storages[0].Len()
}

// compact removes empty rows from every column and returns the row
// translation of the surviving entities.
func (a *Archetype) compact() map[int]int {
	if len(a.storages) == 0 {
		return nil
	}

	// Compact the first storage and use it as the canonical index mapping
	indexMap := a.storages[0].Compact()
	for i := 1; i < len(a.storages); i++ {
		a.storages[i].Compact()
	}

	entities := make([]EntityId, len(indexMap))
	for oldRow, newRow := range indexMap {
		entities[newRow] = a.entities[oldRow]
	}
	a.entities = entities

	return indexMap
}

// Iter returns an iterator over the rows and entity ids stored in this archetype
func (a *Archetype) Iter() func(yield func(uint32, EntityId) bool) {
	return func(yield func(uint32, EntityId) bool) {
		if len(a.storages) == 0 {
			return
		}

		for row := range a.storages[0].Iter() {
			if !yield(uint32(row), a.entities[row]) {
				return
			}
		}
	}
}
