package ecs_test

import (
	"testing"

	"github.com/plus3/ecsapp/ecs"
)

// Common test component types
type Position struct {
	X, Y float32
}

type Velocity struct {
	DX, DY float32
}

type Name struct {
	Value string
}

type Health struct {
	Current int
	Max     int
}

type PlayerController struct{}

// Custom primitive types for testing non-struct components
type Score int32
type Temperature float64

func newTestRegistry() *ecs.ComponentRegistry {
	registry := ecs.NewComponentRegistry()
	ecs.RegisterComponent[Position](registry)
	ecs.RegisterComponent[Velocity](registry)
	ecs.RegisterComponent[Name](registry)
	ecs.RegisterComponent[Health](registry)
	ecs.RegisterComponent[PlayerController](registry)
	ecs.RegisterComponent[Score](registry)
	ecs.RegisterComponent[Temperature](registry)
	return registry
}

// forEachStore runs fn against both ComponentStore implementations.
func forEachStore(t *testing.T, fn func(t *testing.T, store ecs.ComponentStore)) {
	t.Run("dense", func(t *testing.T) {
		fn(t, ecs.NewStorage(newTestRegistry()))
	})
	t.Run("sparse", func(t *testing.T) {
		fn(t, ecs.NewSparseStorage(newTestRegistry()))
	})
}
