package ecs

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// AppState is the lifecycle position of an App. Transitions only move forward.
type AppState int

const (
	Unconfigured AppState = iota
	Configured
	Running
	Exited
)

func (s AppState) String() string {
	switch s {
	case Unconfigured:
		return "Unconfigured"
	case Configured:
		return "Configured"
	case Running:
		return "Running"
	case Exited:
		return "Exited"
	default:
		return "Unknown"
	}
}

// AppStatus is returned by App.Update to tell the runner whether to keep going.
type AppStatus int

const (
	Continue AppStatus = iota
	Exit
)

// AppExit is the resource systems set to ask the runner to stop after the
// current update.
type AppExit struct {
	Requested bool
}

// Plugin configures an App; it is invoked immediately by AddPlugin.
type Plugin func(app *App)

// Runner drives an App, deciding when Update is called. It returns when the
// app asked to exit, the context is cancelled or an update failed.
type Runner func(ctx context.Context, app *App) error

// updateSchedules run, in order, on every Update.
var updateSchedules = []ScheduleLabel{First, Update, Last}

// App is the orchestration facade: it owns a World, collects plugins,
// resources and systems, and hands control to a Runner.
type App struct {
	world       *World
	runner      Runner
	config      Config
	logger      *zap.Logger
	state       AppState
	startupDone bool
	lastUpdate  time.Time
}

// AppOption configures an App at construction.
type AppOption func(*App)

// WithLogger sets the logger used by the app and its runners.
func WithLogger(logger *zap.Logger) AppOption {
	return func(a *App) {
		a.logger = logger
	}
}

// WithConfig replaces the default config.
func WithConfig(config Config) AppOption {
	return func(a *App) {
		a.config = config
	}
}

// WithWorld makes the app drive an existing world.
func WithWorld(world *World) AppOption {
	return func(a *App) {
		a.world = world
	}
}

// NewApp creates an app with an empty World and the RunOnce runner.
func NewApp(opts ...AppOption) *App {
	a := &App{
		config: DefaultConfig(),
		logger: zap.NewNop(),
		runner: RunOnce,
		state:  Unconfigured,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.world == nil {
		a.world = NewWorld()
	}
	return a
}

// World returns the app's world.
func (a *App) World() *World {
	return a.world
}

// Logger returns the app's logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Config returns the app's config.
func (a *App) Config() Config {
	return a.config
}

// State returns the lifecycle state.
func (a *App) State() AppState {
	return a.state
}

// configure guards configuration calls and moves the app to Configured.
func (a *App) configure() {
	if a.state >= Running {
		panic(ErrAppRunning)
	}
	a.state = Configured
}

// AddPlugin invokes plugin with the app.
func (a *App) AddPlugin(plugin Plugin) *App {
	a.configure()
	plugin(a)
	return a
}

// AddPlugins invokes each plugin in order.
func (a *App) AddPlugins(plugins ...Plugin) *App {
	for _, plugin := range plugins {
		a.AddPlugin(plugin)
	}
	return a
}

// InitResource stores every value as a resource, replacing existing values of the same type.
func (a *App) InitResource(values ...any) *App {
	a.configure()
	a.world.Resources().InitResource(values...)
	return a
}

// InsertResource stores a single resource, replacing an existing value of the same type.
func (a *App) InsertResource(value any) *App {
	a.configure()
	a.world.Resources().Insert(value)
	return a
}

// AddSystems registers systems into the schedule with the given label,
// creating the schedule if needed. InSet groups are accepted.
func (a *App) AddSystems(label ScheduleLabel, systems ...System) *App {
	a.configure()
	a.world.AddSchedule(label).AddSystems(systems...)
	return a
}

// ConfigureSets declares the relative order of sets within a schedule.
func (a *App) ConfigureSets(label ScheduleLabel, sets ...SystemSet) *App {
	a.configure()
	a.world.AddSchedule(label).ConfigureSets(sets...)
	return a
}

// SetRunner installs the strategy used by Run.
func (a *App) SetRunner(runner Runner) *App {
	a.configure()
	a.runner = runner
	return a
}

// Build resolves the execution order of every schedule. Contradictory set
// constraints are reported here, before any system runs.
func (a *App) Build() error {
	var errs []error
	for _, label := range a.world.ScheduleLabels() {
		schedule, _ := a.world.Schedule(label)
		if err := schedule.Build(); err != nil {
			errs = append(errs, err)
			continue
		}
		a.logger.Debug("schedule built",
			zap.String("schedule", string(label)),
			zap.Strings("order", schedule.Order()))
	}
	return errors.Join(errs...)
}

// Startup runs the Startup schedule. Only the first call has an effect.
func (a *App) Startup() error {
	if a.startupDone {
		return nil
	}
	a.startupDone = true
	return a.world.RunSchedule(Startup, 0)
}

// Update runs the First, Update and Last schedules once, in that order. It
// does not run Startup. A failing system aborts the update and its error is
// returned. Exit is reported when the AppExit resource requests it, also
// alongside such an error.
func (a *App) Update() (AppStatus, error) {
	now := time.Now()
	var dt float64
	if !a.lastUpdate.IsZero() {
		dt = now.Sub(a.lastUpdate).Seconds()
	}
	a.lastUpdate = now

	a.world.advanceTick()
	for _, label := range updateSchedules {
		if err := a.world.RunSchedule(label, dt); err != nil {
			return a.exitStatus(), err
		}
	}
	return a.exitStatus(), nil
}

// exitStatus reports Exit once AppExit has been requested, even by a system
// of an update that later failed.
func (a *App) exitStatus() AppStatus {
	if exit, err := GetResource[AppExit](a.world.Resources()); err == nil && exit.Requested {
		return Exit
	}
	return Continue
}

// Run builds the schedules, runs Startup once and hands control to the
// runner. The app is Exited when Run returns.
func (a *App) Run(ctx context.Context) error {
	if a.state >= Running {
		return ErrAppRunning
	}
	a.state = Running
	defer func() {
		a.state = Exited
	}()

	if err := a.Build(); err != nil {
		return err
	}
	if err := a.Startup(); err != nil {
		return err
	}

	a.logger.Info("app running", zap.Uint64("max_ticks", a.config.MaxTicks))
	err := a.runner(ctx, a)
	a.logger.Info("app exited",
		zap.Uint64("ticks", a.world.Tick()),
		zap.Error(err))
	return err
}
