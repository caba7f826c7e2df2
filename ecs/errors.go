package ecs

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// ECS errors
var (
	ErrEntityNotFound    = errors.New("entity does not exist")
	ErrComponentNotFound = errors.New("component not found on entity")
	ErrNotInPrefab       = errors.New("component is not part of the prefab")
	ErrScheduleNotFound  = errors.New("schedule not found")
	ErrAppRunning        = errors.New("app is already running")
	ErrUnknownPolicy     = errors.New("unknown error policy")
)

// MissingResourceError is returned when a resource is read before it was
// inserted into the World.
type MissingResourceError struct {
	Type reflect.Type
}

func (e *MissingResourceError) Error() string {
	return fmt.Sprintf("requested resource %s does not exist in the World. "+
		"Did you forget to add it using App.InsertResource / App.InitResource? "+
		"Resources can also be added by plugins or by Commands.InsertResource.", e.Type)
}

// SystemError wraps a failure raised by a system during a schedule run.
type SystemError struct {
	Schedule ScheduleLabel
	System   string
	Err      error
}

func (e *SystemError) Error() string {
	return fmt.Sprintf("schedule %s: system %s: %v", e.Schedule, e.System, e.Err)
}

func (e *SystemError) Unwrap() error {
	return e.Err
}

// CycleError reports system sets whose ordering constraints contradict each other.
type CycleError struct {
	Schedule ScheduleLabel
	Sets     []SystemSet
}

func (e *CycleError) Error() string {
	names := make([]string, len(e.Sets))
	for i, set := range e.Sets {
		names[i] = string(set)
	}
	return fmt.Sprintf("schedule %s: system set ordering contains a cycle between [%s]",
		e.Schedule, strings.Join(names, ", "))
}

// PanicError carries a value recovered from a panicking system.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}
