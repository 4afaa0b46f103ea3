package main

import (
	"testing"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utakatalp/league-montecarlo/internal/forecast"
	"github.com/utakatalp/league-montecarlo/internal/report"
)

// parse runs the parser without executing the selected command.
func parse(t *testing.T, args ...string) (flags.Commander, *globalOptions) {
	t.Helper()
	var opts globalOptions
	p := newParser(&opts)
	p.Options &^= flags.PrintErrors

	var picked flags.Commander
	p.CommandHandler = func(cmd flags.Commander, _ []string) error {
		picked = cmd
		return nil
	}
	_, err := p.ParseArgs(args)
	require.NoError(t, err)
	return picked, &opts
}

func TestParseSimulate(t *testing.T) {
	cmd, opts := parse(t, "simulate", "--csv", "mlb.csv", "--from", "2017-04-01", "--to", "2017-06-30",
		"--epsilon", "0.02", "--trials", "100", "--seed", "9", "--workers", "4", "--format", "yaml")

	sim, ok := cmd.(*simulateCommand)
	require.True(t, ok)
	assert.Equal(t, "mlb.csv", opts.CSV)
	assert.Same(t, opts, sim.global)
	assert.Equal(t, forecast.Request{
		From:            "2017-04-01",
		To:              "2017-06-30",
		GameSimulations: 100,
		Epsilon:         0.02,
		Workers:         4,
		Seed:            9,
	}, sim.request(sim.From, sim.To))

	w, err := sim.writer()
	require.NoError(t, err)
	assert.Equal(t, report.FormatYAML, w.Format)
	assert.Equal(t, report.DefaultHistograms, w.Histograms)
}

func TestParseEvaluateDefaults(t *testing.T) {
	cmd, _ := parse(t, "evaluate")

	ev, ok := cmd.(*evaluateCommand)
	require.True(t, ok)
	req := ev.evalRequest()
	assert.Equal(t, "2017-01-01", req.RealFrom)
	assert.Equal(t, "2017-12-31", req.RealTo)
	assert.Equal(t, "2017-01-01", req.From)
	assert.Equal(t, "2017-06-31", req.To)
}

func TestParseTune(t *testing.T) {
	cmd, opts := parse(t, "tune", "--runs", "3", "--iterations", "50", "--sim-to", "2017-05-31")

	tune, ok := cmd.(*tuneCommand)
	require.True(t, ok)
	assert.Equal(t, 3, tune.Runs)
	assert.Same(t, opts, tune.global)
	req := tune.evalRequest()
	assert.Equal(t, 50, req.Iterations)
	assert.Equal(t, "2017-05-31", req.To)
}

func TestParseServe(t *testing.T) {
	cmd, _ := parse(t, "serve", "--port", "9090", "--timeout", "30s")

	srv, ok := cmd.(*serveCommand)
	require.True(t, ok)
	assert.Equal(t, "9090", srv.Port)
	assert.Equal(t, 30*time.Second, srv.Timeout)
}

func TestParseRejectsUnknownCriterion(t *testing.T) {
	var opts globalOptions
	p := newParser(&opts)
	p.Options &^= flags.PrintErrors
	p.CommandHandler = func(flags.Commander, []string) error { return nil }

	_, err := p.ParseArgs([]string{"simulate", "--criterion", "median"})
	assert.Error(t, err)
}
