package ecs

import (
	"reflect"
)

// systemParam is implemented by fields that a struct system declares to have
// them resolved from the World.
type systemParam interface {
	bind(w *World)
	prepare(w *World) error
}

var (
	_ systemParam = (*Res[struct{}])(nil)
	_ systemParam = (*Query[struct{}])(nil)
)

// Res is a system parameter giving access to the resource of type T. The
// pointer is resolved immediately before each invocation of the system and
// must not be kept across invocations.
type Res[T any] struct {
	value *T
}

func (r *Res[T]) bind(*World) {
	r.value = nil
}

func (r *Res[T]) prepare(w *World) error {
	value, err := GetResource[T](w.Resources())
	if err != nil {
		r.value = nil
		return err
	}
	r.value = value
	return nil
}

// Get returns the resource borrowed for the current invocation.
func (r *Res[T]) Get() *T {
	if r.value == nil {
		panic("Res.Get() called outside of a system invocation")
	}
	return r.value
}

// OptRes is a system parameter for a resource that may be absent.
type OptRes[T any] struct {
	value *T
}

func (r *OptRes[T]) bind(*World) {
	r.value = nil
}

func (r *OptRes[T]) prepare(w *World) error {
	r.value, _ = GetResource[T](w.Resources())
	return nil
}

// Get returns the resource, or nil if it does not exist.
func (r *OptRes[T]) Get() *T {
	return r.value
}

var systemParamType = reflect.TypeFor[systemParam]()

// collectParams returns the declared parameters of a struct system. Systems
// that are not pointers to structs declare no parameters.
func collectParams(system System) []systemParam {
	for {
		named, ok := system.(namedSystem)
		if !ok {
			break
		}
		system = named.System
	}

	systemValue := reflect.ValueOf(system)
	if systemValue.Kind() != reflect.Ptr || systemValue.Elem().Kind() != reflect.Struct {
		return nil
	}
	systemValue = systemValue.Elem()

	var params []systemParam
	for i := 0; i < systemValue.NumField(); i++ {
		field := systemValue.Field(i)
		if !field.CanSet() || field.Kind() != reflect.Struct {
			continue
		}
		if !field.Addr().Type().Implements(systemParamType) {
			continue
		}

		params = append(params, field.Addr().Interface().(systemParam))
	}
	return params
}
