package ecs_test

import (
	"strings"
	"testing"
	"time"

	"github.com/plus3/ecsapp/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	config, err := ecs.LoadConfig(strings.NewReader(`
tick_interval: 250ms
log_level: debug
error_policy: continue
max_ticks: 12
`))
	require.NoError(t, err)

	assert.Equal(t, ecs.Config{
		TickInterval: 250 * time.Millisecond,
		LogLevel:     "debug",
		ErrorPolicy:  ecs.ContinueOnError,
		MaxTicks:     12,
	}, config)
}

func TestLoadConfigDefaults(t *testing.T) {
	config, err := ecs.LoadConfig(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, ecs.DefaultConfig(), config)

	config, err = ecs.LoadConfig(strings.NewReader("max_ticks: 3\n"))
	require.NoError(t, err)
	assert.Equal(t, time.Second/60, config.TickInterval)
	assert.Equal(t, ecs.StopOnError, config.ErrorPolicy)
	assert.Equal(t, uint64(3), config.MaxTicks)
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unknown policy", "error_policy: retry\n"},
		{"negative interval", "tick_interval: -1s\n"},
		{"bad level", "log_level: loud\n"},
		{"malformed", "tick_interval: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ecs.LoadConfig(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}

	_, err := ecs.LoadConfig(strings.NewReader("error_policy: retry\n"))
	assert.ErrorIs(t, err, ecs.ErrUnknownPolicy)
}

func TestNewLogger(t *testing.T) {
	logger, err := ecs.NewLogger("warn")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(-1))

	_, err = ecs.NewLogger("nope")
	assert.Error(t, err)
}
