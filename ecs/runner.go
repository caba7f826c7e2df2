package ecs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RunOnce updates the app a single time.
func RunOnce(_ context.Context, app *App) error {
	_, err := app.Update()
	return err
}

// RunLoop updates the app back to back until it exits, the context is
// cancelled, MaxTicks is reached or an update fails under StopOnError.
func RunLoop(ctx context.Context, app *App) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		if done, err := app.step(); done {
			return err
		}
	}
}

// RunFixedRate returns a runner that updates the app every interval. A
// non-positive interval uses the app's configured TickInterval.
func RunFixedRate(interval time.Duration) Runner {
	return func(ctx context.Context, app *App) error {
		tick := interval
		if tick <= 0 {
			tick = app.config.TickInterval
		}

		ticker := time.NewTicker(tick)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if ctx.Err() != nil {
					return nil
				}
				if done, err := app.step(); done {
					return err
				}
			}
		}
	}
}

// step performs one update for a looping runner and reports whether the
// loop should end.
func (a *App) step() (bool, error) {
	status, err := a.Update()
	if err != nil {
		if a.config.ErrorPolicy != ContinueOnError {
			return true, err
		}
		a.logger.Error("update failed", zap.Uint64("tick", a.world.Tick()), zap.Error(err))
	}

	if status == Exit {
		a.logger.Info("exit requested", zap.Uint64("tick", a.world.Tick()))
		return true, nil
	}
	if a.config.MaxTicks > 0 && a.world.Tick() >= a.config.MaxTicks {
		a.logger.Info("tick limit reached", zap.Uint64("max_ticks", a.config.MaxTicks))
		return true, nil
	}
	return false, nil
}
