package ecs

import "time"

// FrameCount counts completed updates. It is incremented at the end of the
// Last schedule.
type FrameCount uint64

type frameCountSystem struct {
	Count Res[FrameCount]
}

func (s *frameCountSystem) Execute(*UpdateFrame) error {
	*s.Count.Get()++
	return nil
}

// FrameCountPlugin installs the FrameCount resource and the system updating it.
func FrameCountPlugin(app *App) {
	InitDefault[FrameCount](app.World().Resources())
	app.AddSystems(Last, &frameCountSystem{})
}

// Time tracks update timing. It is refreshed at the start of First.
type Time struct {
	Delta   time.Duration
	Elapsed time.Duration
}

type timeSystem struct {
	Time Res[Time]
}

func (s *timeSystem) Execute(frame *UpdateFrame) error {
	t := s.Time.Get()
	t.Delta = time.Duration(frame.DeltaTime * float64(time.Second))
	t.Elapsed += t.Delta
	return nil
}

// TimePlugin installs the Time resource and the system updating it.
func TimePlugin(app *App) {
	InitDefault[Time](app.World().Resources())
	app.AddSystems(First, &timeSystem{})
}

// DefaultPlugins adds the frame counter, timing and an AppExit resource.
func DefaultPlugins(app *App) {
	app.AddPlugins(FrameCountPlugin, TimePlugin)
	InitDefault[AppExit](app.World().Resources())
}
