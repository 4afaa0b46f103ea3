package montecarlo

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utakatalp/league-montecarlo/internal/league"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// recordingCriterion remembers the iteration index of every sweep.
type recordingCriterion struct {
	inner StoppingCriterion
	seen  []int
}

func (r *recordingCriterion) Volatility(rates []float64, iteration int) float64 {
	r.seen = append(r.seen, iteration)
	return r.inner.Volatility(rates, iteration)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "zero epsilon", mutate: func(c *Config) { c.Epsilon = 0 }, wantErr: true},
		{name: "negative epsilon", mutate: func(c *Config) { c.Epsilon = -0.01 }, wantErr: true},
		{name: "zero trials", mutate: func(c *Config) { c.GameSimulations = 0 }, wantErr: true},
		{name: "negative cap", mutate: func(c *Config) { c.MaxIterations = -1 }, wantErr: true},
		{name: "negative workers", mutate: func(c *Config) { c.Workers = -2 }, wantErr: true},
		{name: "unbounded", mutate: func(c *Config) { c.MaxIterations = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			_, err := NewEngine(cfg)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRunRejectsTooFewTeams(t *testing.T) {
	engine, err := NewEngine(DefaultConfig(), WithLogger(quietLogger()))
	require.NoError(t, err)

	_, err = engine.Run(context.Background(), league.NewMatchupTable())
	assert.ErrorIs(t, err, ErrTooFewTeams)

	single := league.NewMatchupTable()
	_, err = engine.Run(context.Background(), single)
	assert.ErrorIs(t, err, ErrTooFewTeams)
}

func TestRunAlwaysExecutesFirstIteration(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Epsilon = 1 // above any possible volatility sample

	engine, err := NewEngine(cfg, WithStreams(NewSeededSource(1)), WithLogger(quietLogger()))
	require.NoError(t, err)

	est, err := engine.Run(context.Background(), scenarioTable(t))
	require.NoError(t, err)
	assert.Equal(t, 1, est.Iterations)
	assert.True(t, est.Converged)
	assert.Equal(t, 1, est.Ranks.Iterations())
}

func TestRunInvariants(t *testing.T) {
	table := fourTeamTable(t)
	teams := table.Teams()
	n := len(teams)
	criterion := &recordingCriterion{inner: FixedIterations{N: 40}}

	cfg := DefaultConfig()
	cfg.GameSimulations = 25
	engine, err := NewEngine(cfg,
		WithStreams(NewSeededSource(8)),
		WithCriterion(criterion),
		WithLogger(quietLogger()),
	)
	require.NoError(t, err)

	est, err := engine.Run(context.Background(), table)
	require.NoError(t, err)
	require.Equal(t, 40, est.Iterations)

	// iteration index grows by one per sweep
	for i, it := range criterion.seen {
		assert.Equal(t, i+1, it)
	}

	total := 0
	for _, w := range est.Wins {
		total += w
	}
	assert.Equal(t, est.Iterations*n*(n-1), total)

	for _, team := range teams {
		sum := 0
		for _, c := range est.Ranks.Counts(team) {
			sum += c
		}
		assert.Equal(t, est.Iterations, sum, "rank counts of %s", team)
	}

	for i := 1; i < len(est.Standings); i++ {
		assert.GreaterOrEqual(t, est.Standings[i-1].Wins, est.Standings[i].Wins)
	}
}

func TestRunIsDeterministicUnderSeed(t *testing.T) {
	table := fourTeamTable(t)
	run := func(workers int) *Estimate {
		cfg := DefaultConfig()
		cfg.Epsilon = 0.02
		cfg.Workers = workers
		engine, err := NewEngine(cfg, WithStreams(NewSeededSource(77)), WithLogger(quietLogger()))
		require.NoError(t, err)
		est, err := engine.Run(context.Background(), table)
		require.NoError(t, err)
		return est
	}

	first, second, parallel := run(1), run(1), run(4)
	assert.Equal(t, first.Standings, second.Standings)
	assert.Equal(t, first.Iterations, second.Iterations)
	assert.Equal(t, first.Standings, parallel.Standings)
	for _, team := range table.Teams() {
		assert.Equal(t, first.Ranks.Counts(team), parallel.Ranks.Counts(team))
	}
}

func TestRunStopsAtIterationCap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxIterations = 5
	engine, err := NewEngine(cfg,
		WithStreams(NewSeededSource(3)),
		WithCriterion(FixedIterations{N: 1000}),
		WithLogger(quietLogger()),
	)
	require.NoError(t, err)

	est, err := engine.Run(context.Background(), scenarioTable(t))
	assert.ErrorIs(t, err, ErrNotConverged)
	require.NotNil(t, est)
	assert.False(t, est.Converged)
	assert.Equal(t, 5, est.Iterations)
	assert.Equal(t, 5, est.Ranks.Iterations())
}

func TestRunHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine, err := NewEngine(DefaultConfig(), WithLogger(quietLogger()))
	require.NoError(t, err)

	_, err = engine.Run(ctx, scenarioTable(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunConvergesOnLastMatchup(t *testing.T) {
	// The last ordered pair is C vs B. C never lost to B, so its win rate is
	// 1 unless C alone is injured, and the sample shrinks with 1/sqrt(k).
	table := league.NewMatchupTable()
	require.NoError(t, table.AddSeries("A", "B", 10, 5))
	require.NoError(t, table.AddSeries("A", "C", 10, 5))
	require.NoError(t, table.AddSeries("C", "B", 10, 10))

	cfg := DefaultConfig()
	cfg.Epsilon = 0.01
	engine, err := NewEngine(cfg, WithStreams(NewSeededSource(11)), WithLogger(quietLogger()))
	require.NoError(t, err)

	est, err := engine.Run(context.Background(), table)
	require.NoError(t, err)
	assert.True(t, est.Converged)
	assert.LessOrEqual(t, est.Volatility, cfg.Epsilon)
	assert.LessOrEqual(t, est.Iterations, 81)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "converged", Converged.String())
	assert.Equal(t, "State(7)", State(7).String())
}
