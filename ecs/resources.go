package ecs

import (
	"reflect"

	"github.com/kamstrup/intmap"
)

// ResourceId is the stable identifier assigned to a resource type the first
// time it is seen by a Resources store.
type ResourceId uint32

// Resources holds the singleton values of a World, at most one per Go type.
// Values are stored by pointer so that systems mutate them in place.
type Resources struct {
	ids    map[reflect.Type]ResourceId
	types  []reflect.Type
	values *intmap.Map[ResourceId, any]
}

// NewResources creates an empty resource store.
func NewResources() *Resources {
	return &Resources{
		ids:    make(map[reflect.Type]ResourceId),
		values: intmap.New[ResourceId, any](32),
	}
}

// idOf returns the id of t, assigning one if needed.
func (r *Resources) idOf(t reflect.Type) ResourceId {
	if id, ok := r.ids[t]; ok {
		return id
	}
	id := ResourceId(len(r.types))
	r.ids[t] = id
	r.types = append(r.types, t)
	return id
}

// InitResource inserts every value, replacing values of the same type that
// were inserted before.
func (r *Resources) InitResource(values ...any) {
	for _, value := range values {
		r.Insert(value)
	}
}

// Insert stores value under its type and returns the resource id. A pointer
// is kept as is; any other value is copied into a new allocation.
func (r *Resources) Insert(value any) ResourceId {
	if value == nil {
		panic("cannot insert nil resource")
	}

	v := reflect.ValueOf(value)
	if v.Kind() != reflect.Ptr {
		ptr := reflect.New(v.Type())
		ptr.Elem().Set(v)
		v = ptr
	} else if v.IsNil() {
		panic("cannot insert nil resource")
	}

	id := r.idOf(v.Type().Elem())
	r.values.Put(id, v.Interface())
	return id
}

// Get returns the resource stored under t.
func (r *Resources) Get(t reflect.Type) (any, error) {
	id, ok := r.ids[t]
	if ok {
		if value, ok := r.values.Get(id); ok {
			return value, nil
		}
	}
	return nil, &MissingResourceError{Type: t}
}

// Has reports whether a resource of type t is stored.
func (r *Resources) Has(t reflect.Type) bool {
	_, err := r.Get(t)
	return err == nil
}

// Remove deletes the resource of type t. Its id stays reserved.
func (r *Resources) Remove(t reflect.Type) bool {
	id, ok := r.ids[t]
	if !ok {
		return false
	}
	return r.values.Del(id)
}

// Len returns the number of stored resources.
func (r *Resources) Len() int {
	return r.values.Len()
}

// Types returns the types of all stored resources in id order.
func (r *Resources) Types() []reflect.Type {
	types := make([]reflect.Type, 0, r.values.Len())
	for _, t := range r.types {
		if r.Has(t) {
			types = append(types, t)
		}
	}
	return types
}

// GetResource returns the stored *T, or a *MissingResourceError when no value
// of type T has been inserted. Reading never creates a resource.
func GetResource[T any](r *Resources) (*T, error) {
	value, err := r.Get(reflect.TypeFor[T]())
	if err != nil {
		return nil, err
	}
	return value.(*T), nil
}

// MustResource is GetResource for callers that treat a missing resource as a
// configuration bug.
func MustResource[T any](r *Resources) *T {
	value, err := GetResource[T](r)
	if err != nil {
		panic(err)
	}
	return value
}

// HasResource reports whether a resource of type T is stored.
func HasResource[T any](r *Resources) bool {
	return r.Has(reflect.TypeFor[T]())
}

// RemoveResource deletes the resource of type T.
func RemoveResource[T any](r *Resources) bool {
	return r.Remove(reflect.TypeFor[T]())
}

// InitDefault stores the zero value of T unless a T is already present, and
// returns the stored value.
func InitDefault[T any](r *Resources) *T {
	if value, err := GetResource[T](r); err == nil {
		return value
	}
	r.Insert(new(T))
	return MustResource[T](r)
}
