package ecs

import (
	"fmt"
	"iter"
	"reflect"
)

// ComponentId identifies a registered component type within a ComponentRegistry.
type ComponentId uint32

type componentInfo struct {
	id      ComponentId
	typ     reflect.Type
	factory func() iComponentStorage
}

// ComponentRegistry manages component type registration for an ECS instance.
// Each World has its own ComponentRegistry, allowing multiple
// independent ECS instances to coexist without interference.
type ComponentRegistry struct {
	byType map[reflect.Type]*componentInfo
	byId   []*componentInfo
}

// NewComponentRegistry creates a new component registry.
func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{
		byType: make(map[reflect.Type]*componentInfo),
	}
}

// RegisterComponent registers a new component type with the given registry and
// returns its id. Registering the same type twice returns the existing id.
// This must be called for each component type before it can be used.
func RegisterComponent[T any](r *ComponentRegistry) ComponentId {
	t := reflect.TypeFor[T]()
	if info, ok := r.byType[t]; ok {
		return info.id
	}

	info := &componentInfo{
		id:  ComponentId(len(r.byId)),
		typ: t,
		factory: func() iComponentStorage {
			return &genericComponentStorage[T]{}
		},
	}
	r.byType[t] = info
	r.byId = append(r.byId, info)
	return info.id
}

// ComponentIdOf returns the id registered for t.
func (r *ComponentRegistry) ComponentIdOf(t reflect.Type) (ComponentId, bool) {
	info, ok := r.byType[t]
	if !ok {
		return 0, false
	}
	return info.id, true
}

// TypeOf returns the component type registered under id.
func (r *ComponentRegistry) TypeOf(id ComponentId) (reflect.Type, bool) {
	if int(id) >= len(r.byId) {
		return nil, false
	}
	return r.byId[id].typ, true
}

// Len returns the number of registered component types.
func (r *ComponentRegistry) Len() int {
	return len(r.byId)
}

// mustInfo returns the registration for t, panicking for unknown types.
func (r *ComponentRegistry) mustInfo(t reflect.Type) *componentInfo {
	info, ok := r.byType[t]
	if !ok {
		panic(fmt.Sprintf("component type %s not registered", t))
	}
	return info
}

const (
	genericBlockSize = 64
)

// genericComponentStorage is a generic implementation of iComponentStorage.
// It stores components of a specific type `T` in fixed-size blocks so that
// pointers handed out by Get survive growth.
type genericComponentStorage[T any] struct {
	blocks    []*[genericBlockSize]T
	filled    []*[genericBlockSize]bool
	freeSlots []int
	nextIndex int
}

func (cs *genericComponentStorage[T]) unwrap(item any) (T, bool) {
	if ptr, ok := item.(*T); ok {
		return *ptr, true
	}
	if val, ok := item.(T); ok {
		return val, true
	}
	var zero T
	return zero, false
}

// Append adds a component to storage and returns its index.
func (cs *genericComponentStorage[T]) Append(item any) int {
	concreteItem, ok := cs.unwrap(item)
	if !ok {
		return -1 // Invalid type
	}

	var index int
	if len(cs.freeSlots) > 0 {
		index = cs.freeSlots[len(cs.freeSlots)-1]
		cs.freeSlots = cs.freeSlots[:len(cs.freeSlots)-1]
	} else {
		index = cs.nextIndex
		cs.nextIndex++
	}

	blockIdx := index / genericBlockSize
	slotIdx := index % genericBlockSize

	for blockIdx >= len(cs.blocks) {
		cs.blocks = append(cs.blocks, new([genericBlockSize]T))
		cs.filled = append(cs.filled, new([genericBlockSize]bool))
	}

	cs.blocks[blockIdx][slotIdx] = concreteItem
	cs.filled[blockIdx][slotIdx] = true
	return index
}

// Set overwrites the component at an occupied index.
func (cs *genericComponentStorage[T]) Set(index int, item any) bool {
	if !cs.Has(index) {
		return false
	}
	concreteItem, ok := cs.unwrap(item)
	if !ok {
		return false
	}
	cs.blocks[index/genericBlockSize][index%genericBlockSize] = concreteItem
	return true
}

// Get returns a pointer to the component at the given index.
func (cs *genericComponentStorage[T]) Get(index int) any {
	if !cs.Has(index) {
		return nil
	}
	return &cs.blocks[index/genericBlockSize][index%genericBlockSize]
}

// Delete marks a component slot as empty.
func (cs *genericComponentStorage[T]) Delete(index int) {
	if !cs.Has(index) {
		return
	}

	blockIdx := index / genericBlockSize
	slotIdx := index % genericBlockSize

	cs.filled[blockIdx][slotIdx] = false
	var zero T
	cs.blocks[blockIdx][slotIdx] = zero // Zero out the value
	cs.freeSlots = append(cs.freeSlots, index)
}

// Has checks if a component exists at the given index.
func (cs *genericComponentStorage[T]) Has(index int) bool {
	if index < 0 || index >= cs.nextIndex {
		return false
	}

	blockIdx := index / genericBlockSize
	if blockIdx >= len(cs.filled) {
		return false
	}

	return cs.filled[blockIdx][index%genericBlockSize]
}

// Len returns the number of occupied slots.
func (cs *genericComponentStorage[T]) Len() int {
	return cs.nextIndex - len(cs.freeSlots)
}

// Compact reorganizes component storage to remove empty slots.
// The returned map translates every surviving old index to its new index.
func (cs *genericComponentStorage[T]) Compact() map[int]int {
	indexMap := make(map[int]int)

	totalComponents := cs.Len()
	if totalComponents == 0 {
		cs.blocks = nil
		cs.filled = nil
		cs.freeSlots = nil
		cs.nextIndex = 0
		return indexMap
	}

	numNewBlocks := (totalComponents + genericBlockSize - 1) / genericBlockSize
	newBlocks := make([]*[genericBlockSize]T, numNewBlocks)
	newFilled := make([]*[genericBlockSize]bool, numNewBlocks)
	for i := range newBlocks {
		newBlocks[i] = new([genericBlockSize]T)
		newFilled[i] = new([genericBlockSize]bool)
	}

	writePos := 0
	for readIdx := range cs.Iter() {
		indexMap[readIdx] = writePos

		newBlocks[writePos/genericBlockSize][writePos%genericBlockSize] = cs.blocks[readIdx/genericBlockSize][readIdx%genericBlockSize]
		newFilled[writePos/genericBlockSize][writePos%genericBlockSize] = true
		writePos++
	}

	cs.blocks = newBlocks
	cs.filled = newFilled
	cs.freeSlots = nil
	cs.nextIndex = writePos

	return indexMap
}

// Iter yields every occupied index in ascending order.
func (cs *genericComponentStorage[T]) Iter() iter.Seq[int] {
	return func(yield func(int) bool) {
		for i := 0; i < cs.nextIndex; i++ {
			blockIdx := i / genericBlockSize
			if blockIdx >= len(cs.filled) {
				return
			}

			if cs.filled[blockIdx][i%genericBlockSize] {
				if !yield(i) {
					return
				}
			}
		}
	}
}
