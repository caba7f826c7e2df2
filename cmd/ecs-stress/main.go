package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/pkg/profile"
	"github.com/plus3/ecsapp/ecs"
	"go.uber.org/zap"
)

func main() {
	duration := flag.Duration("duration", 10*time.Second, "The total duration the test should run for.")
	entityCount := flag.Int("entities", 10000, "The number of packed entities to create.")
	configPath := flag.String("config", "", "Optional YAML config file.")
	sparse := flag.Bool("sparse", false, "Use the sparse component store instead of archetypes.")
	profileMode := flag.String("profile", "", "Write a profile to the working directory: cpu, mem or trace.")
	gcPauseMetrics := flag.Bool("gc-pause-metrics", false, "Enable detailed GC pause metrics in the report.")
	flag.Parse()

	config, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := ecs.NewLogger(config.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if stop := startProfile(*profileMode); stop != nil {
		defer stop()
	}

	var worldOpts []ecs.WorldOption
	if *sparse {
		worldOpts = append(worldOpts, ecs.WithSparseStorage())
	}

	report := &Report{
		Duration:       *duration,
		Entities:       *entityCount,
		Components:     5,
		Systems:        5,
		Sparse:         *sparse,
		GCPauseMetrics: *gcPauseMetrics,
	}

	app := ecs.NewApp(
		ecs.WithWorld(ecs.NewWorld(worldOpts...)),
		ecs.WithConfig(config),
		ecs.WithLogger(logger),
	).
		AddPlugins(ecs.DefaultPlugins, packedPlugin(*entityCount)).
		SetRunner(measuredRunner(report))

	logger.Info("starting stress test",
		zap.Duration("duration", *duration),
		zap.Int("entities", *entityCount),
		zap.Bool("sparse", *sparse))

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	if err := app.Run(ctx); err != nil {
		logger.Error("stress test failed", zap.Error(err))
		os.Exit(1)
	}

	if schedule, ok := app.World().Schedule(ecs.Update); ok {
		report.Schedule = schedule.Stats()
	}

	fmt.Println("\n\n--- Stress Test Report ---")
	if err := report.Generate(os.Stdout); err != nil {
		logger.Fatal("failed to generate report", zap.Error(err))
	}
	fmt.Println("--- End of Report ---")
}

// measuredRunner updates the app back to back until the context expires,
// recording the duration of every update.
func measuredRunner(report *Report) ecs.Runner {
	return func(ctx context.Context, app *ecs.App) error {
		runtime.ReadMemStats(&report.MemStatsStart)
		start := time.Now()

		for ctx.Err() == nil {
			updateStart := time.Now()
			status, err := app.Update()
			if err != nil {
				return err
			}
			report.UpdateTime.Samples = append(report.UpdateTime.Samples, time.Since(updateStart))
			report.TotalUpdates++
			if status == ecs.Exit {
				break
			}
			if limit := app.Config().MaxTicks; limit > 0 && app.World().Tick() >= limit {
				break
			}
		}

		report.TotalTime = time.Since(start)
		report.UpdateTime.Finalize()
		runtime.ReadMemStats(&report.MemStatsEnd)
		return nil
	}
}

func loadConfig(path string) (ecs.Config, error) {
	if path == "" {
		return ecs.DefaultConfig(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return ecs.Config{}, err
	}
	defer f.Close()
	return ecs.LoadConfig(f)
}

// startProfile starts the requested profile and returns its stop function.
func startProfile(mode string) func() {
	var kind func(*profile.Profile)
	switch mode {
	case "":
		return nil
	case "cpu":
		kind = profile.CPUProfile
	case "mem":
		kind = profile.MemProfileAllocs
	case "trace":
		kind = profile.TraceProfile
	default:
		fmt.Fprintf(os.Stderr, "unknown profile mode %q, profiling disabled\n", mode)
		return nil
	}

	p := profile.Start(kind, profile.ProfilePath("."), profile.NoShutdownHook)
	return p.Stop
}
