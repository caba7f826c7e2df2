package ecs

import (
	"reflect"
	"runtime"
	"strings"
)

// System is a unit of work run by a Schedule. Struct systems can declare
// Query, Res and OptRes fields. They are discovered when the system is added
// to a schedule, bound to the World on its first run and refreshed before
// every invocation.
type System interface {
	Execute(frame *UpdateFrame) error
}

// SystemFunc adapts a plain function to the System interface.
type SystemFunc func(frame *UpdateFrame) error

// Execute calls f(frame).
func (f SystemFunc) Execute(frame *UpdateFrame) error {
	return f(frame)
}

// Func adapts a function that cannot fail.
func Func(fn func(frame *UpdateFrame)) System {
	return namedSystem{
		name: funcName(fn),
		System: SystemFunc(func(frame *UpdateFrame) error {
			fn(frame)
			return nil
		}),
	}
}

type namedSystem struct {
	System
	name string
}

// Named gives a system an explicit name for stats, logs and errors.
func Named(name string, system System) System {
	return namedSystem{System: system, name: name}
}

// systemName derives a readable name for a system.
func systemName(system System) string {
	switch s := system.(type) {
	case namedSystem:
		return s.name
	case SystemFunc:
		return funcName(s)
	}

	systemType := reflect.TypeOf(system)
	if systemType.Kind() == reflect.Ptr {
		systemType = systemType.Elem()
	}
	return systemType.Name()
}

func funcName(fn any) string {
	f := runtime.FuncForPC(reflect.ValueOf(fn).Pointer())
	if f == nil {
		return "func"
	}
	name := f.Name()
	if idx := strings.LastIndex(name, "/"); idx != -1 {
		name = name[idx+1:]
	}
	return name
}
