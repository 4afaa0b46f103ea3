package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"

	"github.com/utakatalp/league-montecarlo/internal/config"
	"github.com/utakatalp/league-montecarlo/internal/forecast"
	"github.com/utakatalp/league-montecarlo/internal/logger"
	"github.com/utakatalp/league-montecarlo/internal/store"
)

type globalOptions struct {
	CSV      string `long:"csv" description:"Read games from this CSV file instead of Postgres"`
	LogLevel string `long:"log-level" description:"Override LOG_LEVEL"`
}

// app is built once per invocation from config, env and global flags.
type app struct {
	cfg    *config.Config
	log    *logrus.Logger
	source forecast.GameSource
	closer func() error
}

func newApp(ctx context.Context, opts *globalOptions) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	level := cfg.LogLevel
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	log := logger.New(level, cfg.LogFormat)

	a := &app{cfg: cfg, log: log, closer: func() error { return nil }}
	switch {
	case opts.CSV != "":
		a.source = store.CSVSource{Path: opts.CSV}
	case cfg.DatabaseURL != "":
		st, err := store.NewStore(ctx, cfg.DatabaseURL, log)
		if err != nil {
			return nil, err
		}
		a.source = st
		a.closer = st.Close
	default:
		a.source = store.CSVSource{Path: cfg.GamesCSV}
	}
	return a, nil
}

func (a *app) service() *forecast.Service {
	return forecast.NewService(a.source, forecast.Defaults{
		Simulation: a.cfg.SimulationConfig(),
		Iterations: a.cfg.Iterations,
		Seed:       a.cfg.Seed,
		Criterion:  a.cfg.StoppingCriterion,
		TopN:       a.cfg.TopN,
	}, a.log)
}

func (a *app) Close() error {
	return a.closer()
}

func newParser(opts *globalOptions) *flags.Parser {
	p := flags.NewParser(opts, flags.Default)
	p.ShortDescription = "Monte Carlo league standings forecaster"

	p.AddCommand("simulate", "Simulate a season",
		"Estimate final standings from the games played in a date range.",
		&simulateCommand{global: opts})
	p.AddCommand("evaluate", "Score a simulation against real standings",
		"Simulate a partial range and compare the result with the actual standings of a full range.",
		&evaluateCommand{global: opts})
	p.AddCommand("tune", "Repeat evaluations and summarise the metrics",
		"Run evaluate several times with consecutive seeds and report each metric's mean and standard deviation.",
		&tuneCommand{evaluateCommand: evaluateCommand{global: opts}})
	p.AddCommand("import", "Load a games CSV into Postgres",
		"Create the games table if needed and insert every game from the CSV file.",
		&importCommand{global: opts})
	p.AddCommand("serve", "Run the HTTP API",
		"Serve simulations over HTTP, caching results in Redis when REDIS_URL is set.",
		&serveCommand{global: opts})
	return p
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func main() {
	var opts globalOptions
	if _, err := newParser(&opts).Parse(); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
}
