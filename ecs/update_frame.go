package ecs

// UpdateFrame is passed to every system invocation of one schedule run.
type UpdateFrame struct {
	DeltaTime float64
	Tick      uint64
	Commands  *Commands
	World     *World
}

func newUpdateFrame(dt float64, tick uint64, world *World) *UpdateFrame {
	return &UpdateFrame{
		DeltaTime: dt,
		Tick:      tick,
		Commands:  newCommands(),
		World:     world,
	}
}

// Resources is shorthand for frame.World.Resources().
func (f *UpdateFrame) Resources() *Resources {
	return f.World.Resources()
}

// Entities is shorthand for frame.World.Entities().
func (f *UpdateFrame) Entities() ComponentStore {
	return f.World.Entities()
}
