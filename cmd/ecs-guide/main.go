// Command ecs-guide plays a small turn based game: players join, score random
// points each round and the first to reach the winning score ends the app.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/plus3/ecsapp/ecs"
	"go.uber.org/zap"
)

func main() {
	interval := flag.Duration("interval", time.Second, "Time between rounds.")
	seed := flag.Uint64("seed", uint64(time.Now().UnixNano()), "Seed for the coin flips.")
	configPath := flag.String("config", "", "Optional YAML config file.")
	flag.Parse()

	config := ecs.DefaultConfig()
	if *configPath != "" {
		f, err := os.Open(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(1)
		}
		config, err = ecs.LoadConfig(f)
		f.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(1)
		}
	}

	logger, err := ecs.NewLogger(config.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	app := ecs.NewApp(ecs.WithConfig(config), ecs.WithLogger(logger)).
		AddPlugins(ecs.FrameCountPlugin, gamePlugin(os.Stdout, *seed)).
		SetRunner(ecs.RunFixedRate(*interval))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Debug("starting game", zap.Uint64("seed", *seed), zap.Duration("interval", *interval))
	if err := app.Run(ctx); err != nil {
		logger.Error("game failed", zap.Error(err))
		os.Exit(1)
	}
}
