package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utakatalp/league-montecarlo/internal/montecarlo"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
	assert.Equal(t, "games.csv", cfg.GamesCSV)
	assert.Equal(t, montecarlo.CriterionLast, cfg.StoppingCriterion)
	assert.Equal(t, uint64(0), cfg.Seed)
	assert.Equal(t, 8, cfg.TopN)
	assert.Equal(t, montecarlo.DefaultConfig(), cfg.SimulationConfig())
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GAME_SIMULATIONS", "50")
	t.Setenv("EPSILON", "0.02")
	t.Setenv("SIMULATION_WORKERS", "4")
	t.Setenv("SEED", "42")
	t.Setenv("STOPPING_CRITERION", " Mean ")
	t.Setenv("CACHE_TTL", "15m")
	t.Setenv("ENV", "production")

	cfg, err := Load()
	require.NoError(t, err)

	sim := cfg.SimulationConfig()
	assert.Equal(t, 50, sim.GameSimulations)
	assert.InDelta(t, 0.02, sim.Epsilon, 1e-12)
	assert.Equal(t, 4, sim.Workers)
	assert.Equal(t, uint64(42), cfg.Seed)
	assert.Equal(t, montecarlo.CriterionMean, cfg.StoppingCriterion)
	assert.Equal(t, 15*time.Minute, cfg.CacheTTL)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "zero trials", key: "GAME_SIMULATIONS", value: "0"},
		{name: "negative epsilon", key: "EPSILON", value: "-1"},
		{name: "unknown criterion", key: "STOPPING_CRITERION", value: "median"},
		{name: "fixed without iterations", key: "STOPPING_CRITERION", value: "fixed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.True(t, errors.Is(err, montecarlo.ErrInvalidConfig))
		})
	}
}

func TestValidateTopN(t *testing.T) {
	cfg := &Config{
		GameSimulations: 200,
		Epsilon:         0.01,
		TopN:            0,
	}
	assert.Error(t, cfg.Validate())
}
