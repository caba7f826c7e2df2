package ecs

import (
	"fmt"
	"maps"
	"slices"
)

// World owns the resources, the entity/component store and the schedules of
// an application. It has no internal locking; all access is expected from a
// single goroutine.
type World struct {
	resources *Resources
	registry  *ComponentRegistry
	entities  ComponentStore
	schedules map[ScheduleLabel]*Schedule
	tick      uint64
}

// WorldOption configures a World at construction.
type WorldOption func(*worldOptions)

type worldOptions struct {
	registry *ComponentRegistry
	sparse   bool
}

// WithRegistry makes the world use an existing component registry.
func WithRegistry(registry *ComponentRegistry) WorldOption {
	return func(o *worldOptions) {
		o.registry = registry
	}
}

// WithSparseStorage selects SparseStorage instead of the archetype Storage.
func WithSparseStorage() WorldOption {
	return func(o *worldOptions) {
		o.sparse = true
	}
}

// NewWorld creates a world with the predefined schedules.
func NewWorld(opts ...WorldOption) *World {
	options := worldOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	if options.registry == nil {
		options.registry = NewComponentRegistry()
	}

	var entities ComponentStore
	if options.sparse {
		entities = NewSparseStorage(options.registry)
	} else {
		entities = NewStorage(options.registry)
	}

	w := &World{
		resources: NewResources(),
		registry:  options.registry,
		entities:  entities,
		schedules: make(map[ScheduleLabel]*Schedule),
	}
	for _, label := range []ScheduleLabel{Startup, First, Update, Last} {
		w.AddSchedule(label)
	}
	return w
}

// Resources returns the world's resource store.
func (w *World) Resources() *Resources {
	return w.resources
}

// Registry returns the world's component registry.
func (w *World) Registry() *ComponentRegistry {
	return w.registry
}

// Entities returns the world's entity/component store.
func (w *World) Entities() ComponentStore {
	return w.entities
}

// Spawn creates an entity in the world's store.
func (w *World) Spawn(components ...any) EntityId {
	return w.entities.Spawn(components...)
}

// SpawnPrefab creates an entity from a prefab in the world's store.
func (w *World) SpawnPrefab(prefab *Prefab, overrides ...any) (EntityId, error) {
	return SpawnPrefab(w.entities, prefab, overrides...)
}

// Despawn removes an entity and its components.
func (w *World) Despawn(id EntityId) bool {
	return w.entities.Despawn(id)
}

// AddSchedule returns the schedule with the given label, creating it if needed.
func (w *World) AddSchedule(label ScheduleLabel) *Schedule {
	if schedule, ok := w.schedules[label]; ok {
		return schedule
	}
	schedule := NewSchedule(label)
	w.schedules[label] = schedule
	return schedule
}

// Schedule returns the schedule with the given label.
func (w *World) Schedule(label ScheduleLabel) (*Schedule, bool) {
	schedule, ok := w.schedules[label]
	return schedule, ok
}

// ScheduleLabels returns every schedule label, sorted.
func (w *World) ScheduleLabels() []ScheduleLabel {
	return slices.Sorted(maps.Keys(w.schedules))
}

// Tick returns the number of updates started so far.
func (w *World) Tick() uint64 {
	return w.tick
}

func (w *World) advanceTick() uint64 {
	w.tick++
	return w.tick
}

// RunSchedule runs one schedule with a fresh frame stamped with the current tick.
func (w *World) RunSchedule(label ScheduleLabel, dt float64) error {
	schedule, ok := w.schedules[label]
	if !ok {
		return fmt.Errorf("%s: %w", label, ErrScheduleNotFound)
	}
	return schedule.Run(newUpdateFrame(dt, w.tick, w))
}
