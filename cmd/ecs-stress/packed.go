package main

import (
	"github.com/plus3/ecsapp/ecs"
)

// Five independent counters, each spawned together on every entity.
type (
	A uint32
	B uint32
	C uint32
	D uint32
	E uint32
)

// doubler multiplies one counter column by two on every update.
type doubler[T ~uint32] struct {
	Items ecs.Query[struct {
		Value *T
	}]
}

func (s *doubler[T]) Execute(*ecs.UpdateFrame) error {
	for item := range s.Items.Values() {
		*item.Value *= 2
	}
	return nil
}

func registerPacked(registry *ecs.ComponentRegistry) *ecs.Prefab {
	ecs.RegisterComponent[A](registry)
	ecs.RegisterComponent[B](registry)
	ecs.RegisterComponent[C](registry)
	ecs.RegisterComponent[D](registry)
	ecs.RegisterComponent[E](registry)

	return ecs.NewPrefab(registry, A(1), B(1), C(1), D(1), E(1))
}

// packedPlugin spawns count prefab instances at startup and installs the
// five doubling systems in Update.
func packedPlugin(count int) ecs.Plugin {
	return func(app *ecs.App) {
		prefab := registerPacked(app.World().Registry())

		app.AddSystems(ecs.Startup, ecs.Named("spawn-packed", ecs.Func(func(frame *ecs.UpdateFrame) {
			for range count {
				frame.Commands.SpawnPrefab(prefab)
			}
		})))

		app.AddSystems(ecs.Update,
			ecs.Named("double-a", &doubler[A]{}),
			ecs.Named("double-b", &doubler[B]{}),
			ecs.Named("double-c", &doubler[C]{}),
			ecs.Named("double-d", &doubler[D]{}),
			ecs.Named("double-e", &doubler[E]{}),
		)
	}
}
