package ecs

import (
	"fmt"
	"iter"
	"reflect"
	"unsafe"
)

// viewField describes one pointer field of a view struct.
type viewField struct {
	component reflect.Type
	offset    uintptr
	optional  bool
}

// View reads entities through a struct of component pointers. Embedded
// fields are required; named fields tagged `ecs:"optional"` may be nil.
//
//	type mover struct {
//		*Position
//		*Velocity
//		Name *Name `ecs:"optional"`
//	}
//
// Pointers handed out by a view point into the store and stay valid until the
// entity changes archetype, is despawned or the store is compacted.
type View[T any] struct {
	store    ComponentStore
	fields   []viewField
	types    []reflect.Type
	required []reflect.Type
}

// NewView builds a view over store for the struct type T. It panics when T is
// not a struct of pointers or carries an unknown ecs tag.
func NewView[T any](store ComponentStore) *View[T] {
	structType := reflect.TypeFor[T]()
	if structType.Kind() != reflect.Struct {
		panic(fmt.Sprintf("view type %s must be a struct", structType))
	}

	v := &View[T]{
		store:  store,
		fields: make([]viewField, 0, structType.NumField()),
	}
	for i := 0; i < structType.NumField(); i++ {
		field := parseViewField(structType.Field(i))
		v.fields = append(v.fields, field)
		v.types = append(v.types, field.component)
		if !field.optional {
			v.required = append(v.required, field.component)
		}
	}
	return v
}

func parseViewField(field reflect.StructField) viewField {
	if field.Type.Kind() != reflect.Ptr {
		panic(fmt.Sprintf("view field %s must be a pointer, got %s", field.Name, field.Type))
	}

	vf := viewField{component: field.Type.Elem(), offset: field.Offset}
	switch tag := field.Tag.Get("ecs"); {
	case field.Anonymous, tag == "":
	case tag == "optional":
		vf.optional = true
	default:
		panic(fmt.Sprintf("view field %s: invalid ecs tag %q (only \"optional\" is supported)", field.Name, tag))
	}
	return vf
}

// Types returns every component type referenced by the view.
func (v *View[T]) Types() []reflect.Type {
	return v.types
}

func (f viewField) slot(base unsafe.Pointer) *unsafe.Pointer {
	return (*unsafe.Pointer)(unsafe.Add(base, f.offset))
}

// set stores the pointer boxed in component, or nil, into the field.
func (f viewField) set(base unsafe.Pointer, component any) {
	if component == nil {
		*f.slot(base) = nil
		return
	}
	*f.slot(base) = (*iface)(unsafe.Pointer(&component)).data
}

// Fill points the fields of ptr at the components of id. It reports false
// when the entity is gone or misses a required component.
func (v *View[T]) Fill(id EntityId, ptr *T) bool {
	if !v.store.Exists(id) {
		return false
	}

	base := unsafe.Pointer(ptr)
	for _, field := range v.fields {
		component := v.store.GetComponent(id, field.component)
		if component == nil && !field.optional {
			return false
		}
		field.set(base, component)
	}
	return true
}

// Get returns a filled view struct for id, or nil.
func (v *View[T]) Get(id EntityId) *T {
	var result T
	if !v.Fill(id, &result) {
		return nil
	}
	return &result
}

func (v *View[T]) matchesArchetype(archetype *Archetype) bool {
	return archetypeHasAll(archetype, v.required)
}

// iterArchetype yields the view struct for every row of one archetype.
func (v *View[T]) iterArchetype(archetype *Archetype) iter.Seq2[EntityId, T] {
	return func(yield func(EntityId, T) bool) {
		if len(archetype.storages) == 0 {
			return
		}

		columns := make([]int, len(v.fields))
		for i, field := range v.fields {
			columns[i] = archetype.column(field.component)
		}

		var result T
		base := unsafe.Pointer(&result)

	rows:
		for row, id := range archetype.Iter() {
			for i, field := range v.fields {
				var component any
				if columns[i] != -1 {
					component = archetype.storages[columns[i]].Get(int(row))
				}
				if component == nil && !field.optional {
					continue rows
				}
				field.set(base, component)
			}
			if !yield(id, result) {
				return
			}
		}
	}
}

// Iter yields every entity carrying the required components together with
// its filled view struct. The archetype store is scanned per archetype; other
// stores go through Matching.
func (v *View[T]) Iter() iter.Seq2[EntityId, T] {
	if dense, ok := v.store.(*Storage); ok {
		return func(yield func(EntityId, T) bool) {
			for archetype := range dense.Archetypes() {
				if !v.matchesArchetype(archetype) {
					continue
				}
				for id, item := range v.iterArchetype(archetype) {
					if !yield(id, item) {
						return
					}
				}
			}
		}
	}

	return func(yield func(EntityId, T) bool) {
		var result T
		for id := range v.store.Matching(v.required) {
			if v.Fill(id, &result) && !yield(id, result) {
				return
			}
		}
	}
}

// Values is Iter without the entity ids.
func (v *View[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, value := range v.Iter() {
			if !yield(value) {
				return
			}
		}
	}
}

// Spawn creates an entity from the values the struct points at. Nil optional
// fields are skipped; a nil required field panics.
func (v *View[T]) Spawn(data T) EntityId {
	base := unsafe.Pointer(&data)

	components := make([]any, 0, len(v.fields))
	for _, field := range v.fields {
		ptr := *field.slot(base)
		if ptr == nil {
			if !field.optional {
				panic(fmt.Sprintf("View.Spawn: required component %s is nil", field.component))
			}
			continue
		}
		components = append(components, reflect.NewAt(field.component, ptr).Elem().Interface())
	}

	return v.store.Spawn(components...)
}
