package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/utakatalp/league-montecarlo/internal/montecarlo"
)

type Config struct {
	// Server
	Port string `mapstructure:"PORT"`
	Env  string `mapstructure:"ENV"`

	// Logging
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// Data
	DatabaseURL string        `mapstructure:"DATABASE_URL"`
	RedisURL    string        `mapstructure:"REDIS_URL"`
	CacheTTL    time.Duration `mapstructure:"CACHE_TTL"`
	GamesCSV    string        `mapstructure:"GAMES_CSV"`

	// Simulation
	GameSimulations   int     `mapstructure:"GAME_SIMULATIONS"`
	Epsilon           float64 `mapstructure:"EPSILON"`
	MaxIterations     int     `mapstructure:"MAX_ITERATIONS"`
	Iterations        int     `mapstructure:"ITERATIONS"`
	SimulationWorkers int     `mapstructure:"SIMULATION_WORKERS"`
	Seed              uint64  `mapstructure:"SEED"`
	StoppingCriterion string  `mapstructure:"STOPPING_CRITERION"`
	TopN              int     `mapstructure:"TOP_N"`
}

// Load reads .env (if present) and the environment on top of defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("..")

	def := montecarlo.DefaultConfig()
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("CACHE_TTL", "1h")
	v.SetDefault("GAMES_CSV", "games.csv")
	v.SetDefault("GAME_SIMULATIONS", def.GameSimulations)
	v.SetDefault("EPSILON", def.Epsilon)
	v.SetDefault("MAX_ITERATIONS", def.MaxIterations)
	v.SetDefault("ITERATIONS", 0)
	v.SetDefault("SIMULATION_WORKERS", def.Workers)
	v.SetDefault("SEED", 0) // 0 picks a random seed per run
	v.SetDefault("STOPPING_CRITERION", montecarlo.CriterionLast)
	v.SetDefault("TOP_N", 8)

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.StoppingCriterion = strings.ToLower(strings.TrimSpace(cfg.StoppingCriterion))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the simulation settings without building an engine.
func (c *Config) Validate() error {
	if err := c.SimulationConfig().Validate(); err != nil {
		return err
	}
	if _, err := montecarlo.CriterionByName(c.StoppingCriterion, c.Iterations); err != nil {
		return err
	}
	if c.TopN < 1 {
		return fmt.Errorf("TOP_N must be positive, got %d", c.TopN)
	}
	return nil
}

// SimulationConfig converts the loaded settings into engine parameters.
func (c *Config) SimulationConfig() montecarlo.Config {
	return montecarlo.Config{
		GameSimulations: c.GameSimulations,
		Epsilon:         c.Epsilon,
		MaxIterations:   c.MaxIterations,
		Workers:         c.SimulationWorkers,
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
