package montecarlo

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/utakatalp/league-montecarlo/internal/league"
)

// Config holds the convergence loop parameters.
type Config struct {
	GameSimulations int     // trials per matchup
	Epsilon         float64 // stop once volatility <= Epsilon
	MaxIterations   int     // 0 means no cap
	Workers         int
}

// DefaultConfig mirrors the parameters the estimator was tuned with.
func DefaultConfig() Config {
	return Config{
		GameSimulations: 200,
		Epsilon:         0.0102,
		MaxIterations:   100000,
		Workers:         1,
	}
}

func (c Config) Validate() error {
	if c.GameSimulations <= 0 {
		return fmt.Errorf("%w: game simulations must be positive, got %d", ErrInvalidConfig, c.GameSimulations)
	}
	if c.Epsilon <= 0 {
		return fmt.Errorf("%w: epsilon must be positive, got %g", ErrInvalidConfig, c.Epsilon)
	}
	if c.MaxIterations < 0 {
		return fmt.Errorf("%w: max iterations must not be negative, got %d", ErrInvalidConfig, c.MaxIterations)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalidConfig, c.Workers)
	}
	return nil
}

// State of the convergence loop.
type State int

const (
	Running State = iota
	Converged
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Converged:
		return "converged"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Estimate is what the convergence loop produces.
type Estimate struct {
	Standings  []league.Standing
	Wins       map[league.Team]int
	Ranks      *RankDistribution
	Iterations int
	Volatility float64 // last sample
	Converged  bool
	Elapsed    time.Duration
}

// Engine repeatedly simulates seasons until the stopping criterion settles.
type Engine struct {
	cfg       Config
	streams   StreamSource
	criterion StoppingCriterion
	logger    logrus.FieldLogger
}

type Option func(*Engine)

func WithStreams(s StreamSource) Option {
	return func(e *Engine) { e.streams = s }
}

func WithCriterion(c StoppingCriterion) Option {
	return func(e *Engine) { e.criterion = c }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine validates cfg. Without options it draws from a random seed,
// stops on the last-matchup criterion and logs to the standard logrus logger.
func NewEngine(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{cfg: cfg}
	for _, opt := range opts {
		opt(e)
	}
	if e.streams == nil {
		e.streams = NewRandomSource()
	}
	if e.criterion == nil {
		e.criterion = LastMatchup{}
	}
	if e.logger == nil {
		e.logger = logrus.StandardLogger()
	}
	return e, nil
}

func (e *Engine) Config() Config { return e.cfg }

// Run simulates seasons over table until a sweep's volatility drops to
// epsilon or below. The first sweep always runs. When MaxIterations is hit
// first, Run returns the estimate so far together with ErrNotConverged.
func (e *Engine) Run(ctx context.Context, table *league.MatchupTable) (*Estimate, error) {
	teams := table.Teams()
	if len(teams) < 2 {
		return nil, fmt.Errorf("%w: table has %d team(s)", ErrTooFewTeams, len(teams))
	}

	start := time.Now()
	sweep := &Sweep{
		Table:     table,
		Trials:    e.cfg.GameSimulations,
		Streams:   e.streams,
		Criterion: e.criterion,
		Workers:   e.cfg.Workers,
	}
	wins := make(map[league.Team]int, len(teams))
	for _, t := range teams {
		wins[t] = 0
	}
	ranks := NewRankDistribution(teams)

	var (
		state      = Running
		iteration  int
		volatility float64
	)
	for state == Running {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("simulation stopped after %d iterations: %w", iteration, err)
		}
		if e.cfg.MaxIterations > 0 && iteration >= e.cfg.MaxIterations {
			est := e.estimate(teams, wins, ranks, iteration, volatility, false, start)
			return est, fmt.Errorf("%w after %d iterations: volatility %g > epsilon %g",
				ErrNotConverged, iteration, volatility, e.cfg.Epsilon)
		}

		iteration++
		season, err := sweep.Simulate(ctx, iteration)
		if err != nil {
			return nil, fmt.Errorf("simulating season %d: %w", iteration, err)
		}

		local := make(map[league.Team]int, len(teams))
		for _, w := range season.Winners {
			wins[w]++
			local[w]++
		}
		ranks.Record(league.BuildResultsTable(teams, local))

		volatility = season.Volatility
		if volatility <= e.cfg.Epsilon {
			state = Converged
		}

		e.logger.WithFields(logrus.Fields{
			"iteration":  iteration,
			"volatility": volatility,
			"state":      state,
		}).Debug("season simulated")
	}

	est := e.estimate(teams, wins, ranks, iteration, volatility, true, start)
	e.logger.WithFields(logrus.Fields{
		"teams":      len(teams),
		"iterations": iteration,
		"volatility": volatility,
		"elapsed":    est.Elapsed,
	}).Info("simulation converged")
	return est, nil
}

func (e *Engine) estimate(teams []league.Team, wins map[league.Team]int, ranks *RankDistribution,
	iterations int, volatility float64, converged bool, start time.Time) *Estimate {
	return &Estimate{
		Standings:  league.BuildResultsTable(teams, wins),
		Wins:       wins,
		Ranks:      ranks,
		Iterations: iterations,
		Volatility: volatility,
		Converged:  converged,
		Elapsed:    time.Since(start),
	}
}
