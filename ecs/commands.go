package ecs

import (
	"errors"
	"reflect"
)

// Commands provides a buffer for deferred World operations that are applied
// once the schedule that queued them has finished running its systems.
// This prevents structural changes to the store during system execution.
type Commands struct {
	spawns    []spawnCommand
	despawns  []EntityId
	adds      []addComponentCommand
	removes   []removeComponentCommand
	resources []any
	defers    []func(w *World)
}

func newCommands() *Commands {
	return &Commands{}
}

type spawnCommand struct {
	components []any
	prefab     *Prefab
}

type addComponentCommand struct {
	entity    EntityId
	component any
}

type removeComponentCommand struct {
	entity   EntityId
	compType reflect.Type
}

// Defer queues a function to run against the World during Flush.
func (c *Commands) Defer(fn func(w *World)) {
	c.defers = append(c.defers, fn)
}

// Spawn queues an entity spawn operation with the given components.
func (c *Commands) Spawn(components ...any) {
	c.spawns = append(c.spawns, spawnCommand{components: components})
}

// SpawnPrefab queues spawning an entity from a prefab.
func (c *Commands) SpawnPrefab(prefab *Prefab, overrides ...any) {
	c.spawns = append(c.spawns, spawnCommand{components: overrides, prefab: prefab})
}

// Despawn queues an entity removal.
func (c *Commands) Despawn(entity EntityId) {
	c.despawns = append(c.despawns, entity)
}

// AddComponent queues a component addition operation.
func (c *Commands) AddComponent(entity EntityId, component any) {
	c.adds = append(c.adds, addComponentCommand{
		entity:    entity,
		component: component,
	})
}

// RemoveComponent queues a component removal operation.
func (c *Commands) RemoveComponent(entity EntityId, compType reflect.Type) {
	c.removes = append(c.removes, removeComponentCommand{
		entity:   entity,
		compType: compType,
	})
}

// InsertResource queues inserting (or replacing) a resource.
func (c *Commands) InsertResource(value any) {
	c.resources = append(c.resources, value)
}

// Len returns the number of queued operations.
func (c *Commands) Len() int {
	return len(c.spawns) + len(c.despawns) + len(c.adds) + len(c.removes) +
		len(c.resources) + len(c.defers)
}

// Flush applies every queued operation to the world, resetting the buffer.
// Operations are applied in groups: resources, despawns, removals,
// additions, spawns and finally deferred functions. Operations that target
// an entity despawned in the same flush are dropped. Errors from individual
// operations are joined and returned after the whole buffer was applied.
func (c *Commands) Flush(w *World) error {
	var errs []error
	store := w.Entities()
	despawned := make(map[EntityId]bool)

	for _, value := range c.resources {
		w.Resources().Insert(value)
	}

	for _, id := range c.despawns {
		store.Despawn(id)
		despawned[id] = true
	}

	for _, cmd := range c.removes {
		if !despawned[cmd.entity] {
			errs = append(errs, store.RemoveComponent(cmd.entity, cmd.compType))
		}
	}

	for _, cmd := range c.adds {
		if !despawned[cmd.entity] {
			errs = append(errs, store.AddComponent(cmd.entity, cmd.component))
		}
	}

	for _, cmd := range c.spawns {
		if cmd.prefab != nil {
			_, err := SpawnPrefab(store, cmd.prefab, cmd.components...)
			errs = append(errs, err)
			continue
		}
		store.Spawn(cmd.components...)
	}

	for _, fn := range c.defers {
		fn(w)
	}

	c.spawns = c.spawns[:0]
	c.despawns = c.despawns[:0]
	c.adds = c.adds[:0]
	c.removes = c.removes[:0]
	c.resources = c.resources[:0]
	c.defers = c.defers[:0]

	return errors.Join(errs...)
}
