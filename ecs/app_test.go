package ecs_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/plus3/ecsapp/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type exitAfter struct {
	Exit ecs.Res[ecs.AppExit]

	ticks uint64
}

func (s *exitAfter) Execute(frame *ecs.UpdateFrame) error {
	if frame.Tick >= s.ticks {
		s.Exit.Get().Requested = true
	}
	return nil
}

// exitThenFail requests exit from tick ticks on and fails on every tick.
type exitThenFail struct {
	Exit ecs.Res[ecs.AppExit]

	ticks uint64
	err   error
}

func (s *exitThenFail) Execute(frame *ecs.UpdateFrame) error {
	if frame.Tick >= s.ticks {
		s.Exit.Get().Requested = true
	}
	return s.err
}

func loopConfig(maxTicks uint64, policy ecs.ErrorPolicy) ecs.Config {
	config := ecs.DefaultConfig()
	config.MaxTicks = maxTicks
	config.ErrorPolicy = policy
	return config
}

func TestAppUpdateRunsUpdateThenLast(t *testing.T) {
	var log []string
	app := ecs.NewApp().
		AddSystems(ecs.Last, recorder(&log, "last")).
		AddSystems(ecs.Update, recorder(&log, "update")).
		AddSystems(ecs.Startup, recorder(&log, "startup"))

	status, err := app.Update()
	require.NoError(t, err)
	assert.Equal(t, ecs.Continue, status)
	assert.Equal(t, []string{"update", "last"}, log, "Update never runs Startup")
}

func TestAppUpdateRunsFirstBeforeUpdate(t *testing.T) {
	var log []string
	app := ecs.NewApp().
		AddSystems(ecs.Update, recorder(&log, "update")).
		AddSystems(ecs.First, recorder(&log, "first"))

	_, err := app.Update()
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "update"}, log)
}

func TestAppFrameCount(t *testing.T) {
	app := ecs.NewApp().AddPlugin(ecs.FrameCountPlugin)

	_, err := app.Update()
	require.NoError(t, err)
	assert.Equal(t, ecs.FrameCount(1), *ecs.MustResource[ecs.FrameCount](app.World().Resources()))

	_, err = app.Update()
	require.NoError(t, err)
	assert.Equal(t, ecs.FrameCount(2), *ecs.MustResource[ecs.FrameCount](app.World().Resources()))
}

func TestAppFrameCountSeesItsOwnUpdate(t *testing.T) {
	var counts []ecs.FrameCount
	app := ecs.NewApp().
		AddPlugin(ecs.FrameCountPlugin).
		AddSystems(ecs.Update, ecs.Func(func(frame *ecs.UpdateFrame) {
			counts = append(counts, *ecs.MustResource[ecs.FrameCount](frame.Resources()))
		}))

	for range 3 {
		_, err := app.Update()
		require.NoError(t, err)
	}
	assert.Equal(t, []ecs.FrameCount{0, 1, 2}, counts)
}

func TestAppTimePlugin(t *testing.T) {
	app := ecs.NewApp().AddPlugins(ecs.DefaultPlugins)

	for range 2 {
		_, err := app.Update()
		require.NoError(t, err)
	}

	tm := ecs.MustResource[ecs.Time](app.World().Resources())
	assert.GreaterOrEqual(t, tm.Elapsed, tm.Delta)
	assert.True(t, ecs.HasResource[ecs.AppExit](app.World().Resources()))
}

func TestAppUpdateReportsExit(t *testing.T) {
	app := ecs.NewApp().
		InsertResource(ecs.AppExit{}).
		AddSystems(ecs.Update, &exitAfter{ticks: 2})

	status, err := app.Update()
	require.NoError(t, err)
	assert.Equal(t, ecs.Continue, status)

	status, err = app.Update()
	require.NoError(t, err)
	assert.Equal(t, ecs.Exit, status)
}

func TestAppUpdateReturnsSystemError(t *testing.T) {
	var log []string
	boom := errors.New("boom")
	app := ecs.NewApp().
		AddSystems(ecs.Update, failing(&log, "broken", boom)).
		AddSystems(ecs.Last, recorder(&log, "last"))

	_, err := app.Update()
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"broken"}, log)
}

func TestAppUpdateReportsExitWithError(t *testing.T) {
	boom := errors.New("boom")
	app := ecs.NewApp().
		InsertResource(ecs.AppExit{}).
		AddSystems(ecs.Update, &exitThenFail{ticks: 1, err: boom})

	status, err := app.Update()
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, ecs.Exit, status)
}

func TestAppRunOnceByDefault(t *testing.T) {
	var log []string
	app := ecs.NewApp().
		AddSystems(ecs.Startup, recorder(&log, "startup")).
		AddSystems(ecs.Update, recorder(&log, "update"))

	require.NoError(t, app.Run(context.Background()))
	assert.Equal(t, []string{"startup", "update"}, log)
	assert.Equal(t, uint64(1), app.World().Tick())
}

func TestAppRunLoopUntilExit(t *testing.T) {
	startups := 0
	app := ecs.NewApp().
		AddPlugins(ecs.DefaultPlugins).
		AddSystems(ecs.Startup, ecs.Func(func(*ecs.UpdateFrame) { startups++ })).
		AddSystems(ecs.Update, &exitAfter{ticks: 4}).
		SetRunner(ecs.RunLoop)

	require.NoError(t, app.Run(context.Background()))
	assert.Equal(t, 1, startups)
	assert.Equal(t, uint64(4), app.World().Tick())
	assert.Equal(t, ecs.FrameCount(4), *ecs.MustResource[ecs.FrameCount](app.World().Resources()))
}

func TestAppStartupOnlyOnce(t *testing.T) {
	startups := 0
	app := ecs.NewApp().
		AddSystems(ecs.Startup, ecs.Func(func(*ecs.UpdateFrame) { startups++ }))

	require.NoError(t, app.Startup())
	require.NoError(t, app.Startup())
	require.NoError(t, app.Run(context.Background()))
	assert.Equal(t, 1, startups)
}

func TestAppRunLoopMaxTicks(t *testing.T) {
	app := ecs.NewApp(ecs.WithConfig(loopConfig(5, ecs.StopOnError))).
		AddSystems(ecs.Update, ecs.Func(func(*ecs.UpdateFrame) {})).
		SetRunner(ecs.RunLoop)

	require.NoError(t, app.Run(context.Background()))
	assert.Equal(t, uint64(5), app.World().Tick())
}

func TestAppRunLoopStopOnError(t *testing.T) {
	var log []string
	boom := errors.New("boom")
	app := ecs.NewApp(ecs.WithConfig(loopConfig(10, ecs.StopOnError))).
		AddSystems(ecs.Update, failing(&log, "broken", boom)).
		SetRunner(ecs.RunLoop)

	err := app.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, uint64(1), app.World().Tick())
	assert.Equal(t, ecs.Exited, app.State())
}

func TestAppRunLoopContinueOnError(t *testing.T) {
	var log []string
	core, logs := observer.New(zapcore.InfoLevel)
	app := ecs.NewApp(
		ecs.WithConfig(loopConfig(3, ecs.ContinueOnError)),
		ecs.WithLogger(zap.New(core)),
	).
		AddSystems(ecs.Update, failing(&log, "broken", errors.New("boom"))).
		SetRunner(ecs.RunLoop)

	require.NoError(t, app.Run(context.Background()))
	assert.Equal(t, uint64(3), app.World().Tick())
	assert.Len(t, log, 3)
	assert.Equal(t, 3, logs.FilterMessage("update failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("tick limit reached").Len())
}

func TestAppRunLoopContinueOnErrorHonoursExit(t *testing.T) {
	boom := errors.New("boom")
	core, logs := observer.New(zapcore.InfoLevel)
	app := ecs.NewApp(
		ecs.WithConfig(loopConfig(50, ecs.ContinueOnError)),
		ecs.WithLogger(zap.New(core)),
	).
		InsertResource(ecs.AppExit{}).
		AddSystems(ecs.Update, &exitThenFail{ticks: 2, err: boom}).
		SetRunner(ecs.RunLoop)

	require.NoError(t, app.Run(context.Background()))
	assert.Equal(t, uint64(2), app.World().Tick())
	assert.Equal(t, 2, logs.FilterMessage("update failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("exit requested").Len())
	assert.Zero(t, logs.FilterMessage("tick limit reached").Len())
}

func TestAppRunLoopStopOnErrorWinsOverExit(t *testing.T) {
	boom := errors.New("boom")
	app := ecs.NewApp(ecs.WithConfig(loopConfig(50, ecs.StopOnError))).
		InsertResource(ecs.AppExit{}).
		AddSystems(ecs.Update, &exitThenFail{ticks: 1, err: boom}).
		SetRunner(ecs.RunLoop)

	assert.ErrorIs(t, app.Run(context.Background()), boom)
	assert.Equal(t, uint64(1), app.World().Tick())
}

func TestAppRunFixedRate(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var ticks []uint64
	app := ecs.NewApp().
		AddSystems(ecs.Update, ecs.Func(func(frame *ecs.UpdateFrame) {
			ticks = append(ticks, frame.Tick)
			if frame.Tick == 3 {
				cancel()
			}
		})).
		SetRunner(ecs.RunFixedRate(time.Millisecond))

	require.NoError(t, app.Run(ctx))
	assert.Equal(t, []uint64{1, 2, 3}, ticks)
}

func TestAppRunFixedRateHonoursExit(t *testing.T) {
	app := ecs.NewApp(ecs.WithConfig(ecs.Config{
		TickInterval: time.Millisecond,
		LogLevel:     "info",
		ErrorPolicy:  ecs.StopOnError,
	})).
		InsertResource(ecs.AppExit{}).
		AddSystems(ecs.Update, &exitAfter{ticks: 2}).
		SetRunner(ecs.RunFixedRate(0))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, app.Run(ctx))
	assert.Equal(t, uint64(2), app.World().Tick())
}

func TestRunFixedRateSharedBetweenApps(t *testing.T) {
	runner := ecs.RunFixedRate(0)

	fast := ecs.DefaultConfig()
	fast.TickInterval = 5 * time.Millisecond
	fast.MaxTicks = 1
	first := ecs.NewApp(ecs.WithConfig(fast)).SetRunner(runner)
	require.NoError(t, first.Run(context.Background()))
	assert.Equal(t, uint64(1), first.World().Tick())

	// the second app's interval is far longer than its deadline, so it never
	// ticks unless it inherits the first app's interval
	slow := ecs.DefaultConfig()
	slow.TickInterval = time.Hour
	second := ecs.NewApp(ecs.WithConfig(slow)).SetRunner(runner)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(t, second.Run(ctx))
	assert.Equal(t, uint64(0), second.World().Tick())
}

func TestAppLifecycle(t *testing.T) {
	app := ecs.NewApp()
	assert.Equal(t, ecs.Unconfigured, app.State())

	var during ecs.AppState
	app.AddSystems(ecs.Update, ecs.Func(func(*ecs.UpdateFrame) {}))
	assert.Equal(t, ecs.Configured, app.State())

	app.SetRunner(func(ctx context.Context, app *ecs.App) error {
		during = app.State()
		assert.PanicsWithValue(t, ecs.ErrAppRunning, func() {
			app.AddSystems(ecs.Update, ecs.Func(func(*ecs.UpdateFrame) {}))
		})
		return ecs.RunOnce(ctx, app)
	})

	require.NoError(t, app.Run(context.Background()))
	assert.Equal(t, ecs.Running, during)
	assert.Equal(t, ecs.Exited, app.State())
	assert.Equal(t, "Exited", app.State().String())

	assert.ErrorIs(t, app.Run(context.Background()), ecs.ErrAppRunning)
	assert.PanicsWithValue(t, ecs.ErrAppRunning, func() { app.InsertResource(Score(1)) })
}

func TestAppRunRejectsCycles(t *testing.T) {
	var log []string
	app := ecs.NewApp().
		AddSystems(ecs.Startup, recorder(&log, "startup")).
		AddSystems(ecs.Update, ecs.InSet("A", recorder(&log, "a")), ecs.InSet("B", recorder(&log, "b"))).
		ConfigureSets(ecs.Update, "A", "B").
		ConfigureSets(ecs.Update, "B", "A")

	err := app.Run(context.Background())

	var cycleErr *ecs.CycleError
	require.ErrorAs(t, err, &cycleErr)
	assert.Empty(t, log)
}

func TestAppMissingResourceFailsUpdate(t *testing.T) {
	app := ecs.NewApp().AddSystems(ecs.Update, &exitAfter{ticks: 1})

	_, err := app.Update()

	var missing *ecs.MissingResourceError
	require.ErrorAs(t, err, &missing)
	assert.Contains(t, err.Error(), "AppExit")
}

func TestAppResourcesAndCustomWorld(t *testing.T) {
	world := ecs.NewWorld(ecs.WithSparseStorage(), ecs.WithRegistry(newTestRegistry()))
	app := ecs.NewApp(ecs.WithWorld(world)).
		InitResource(Score(1), GameRules{WinningScore: 3})

	assert.Same(t, world, app.World())
	assert.Equal(t, 2, world.Resources().Len())
	assert.NotNil(t, app.Logger())
	assert.Equal(t, ecs.StopOnError, app.Config().ErrorPolicy)
}
