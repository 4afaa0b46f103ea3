package forecast

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/utakatalp/league-montecarlo/internal/league"
	"github.com/utakatalp/league-montecarlo/internal/metrics"
	"github.com/utakatalp/league-montecarlo/internal/montecarlo"
)

// GameSource loads played games within an inclusive date range.
type GameSource interface {
	Games(ctx context.Context, from, to string) ([]league.Game, error)
}

// Defaults seed every request. Zero fields in a Request fall back to them.
type Defaults struct {
	Simulation montecarlo.Config
	Iterations int
	Seed       uint64
	Criterion  string
	TopN       int
}

// Request describes one simulation. Zero values mean "use the default".
type Request struct {
	From            string  `json:"from" yaml:"from"`
	To              string  `json:"to" yaml:"to"`
	GameSimulations int     `json:"game_simulations,omitempty" yaml:"game_simulations,omitempty"`
	Epsilon         float64 `json:"epsilon,omitempty" yaml:"epsilon,omitempty"`
	MaxIterations   int     `json:"max_iterations,omitempty" yaml:"max_iterations,omitempty"`
	Iterations      int     `json:"iterations,omitempty" yaml:"iterations,omitempty"`
	Workers         int     `json:"workers,omitempty" yaml:"workers,omitempty"`
	Seed            uint64  `json:"seed,omitempty" yaml:"seed,omitempty"`
	Criterion       string  `json:"criterion,omitempty" yaml:"criterion,omitempty"`
}

// TeamRanks is how often a team finished in each position, index 0 first.
type TeamRanks struct {
	Team   league.Team `json:"team" yaml:"team"`
	Counts []int       `json:"counts" yaml:"counts"`
}

// Forecast is a finished simulation run.
type Forecast struct {
	ID         string            `json:"id" yaml:"id"`
	From       string            `json:"from" yaml:"from"`
	To         string            `json:"to" yaml:"to"`
	Games      int               `json:"games" yaml:"games"`
	Teams      int               `json:"teams" yaml:"teams"`
	Criterion  string            `json:"criterion" yaml:"criterion"`
	Seed       uint64            `json:"seed" yaml:"seed"`
	Iterations int               `json:"iterations" yaml:"iterations"`
	Converged  bool              `json:"converged" yaml:"converged"`
	Volatility float64           `json:"volatility" yaml:"volatility"`
	Standings  []league.Standing `json:"standings" yaml:"standings"`
	Ranks      []TeamRanks       `json:"ranks" yaml:"ranks"`
	Elapsed    time.Duration     `json:"elapsed_ns" yaml:"elapsed"`
	CreatedAt  time.Time         `json:"created_at" yaml:"created_at"`
}

// RankCounts returns the rank histogram for team, or nil.
func (f *Forecast) RankCounts(team league.Team) []int {
	for _, r := range f.Ranks {
		if r.Team == team {
			return r.Counts
		}
	}
	return nil
}

// EvalRequest compares a simulation over [SimFrom, SimTo] against the
// actual standings over [RealFrom, RealTo].
type EvalRequest struct {
	Request
	RealFrom string `json:"real_from" yaml:"real_from"`
	RealTo   string `json:"real_to" yaml:"real_to"`
}

type Evaluation struct {
	Forecast *Forecast        `json:"forecast" yaml:"forecast"`
	Actual   []league.Standing `json:"actual" yaml:"actual"`
	Report   metrics.Report    `json:"report" yaml:"report"`
}

type Tuning struct {
	Runs    int              `json:"runs" yaml:"runs"`
	Reports []metrics.Report `json:"reports" yaml:"reports"`
	Summary metrics.Summary  `json:"summary" yaml:"summary"`
}

type Service struct {
	source   GameSource
	defaults Defaults
	log      logrus.FieldLogger
}

func NewService(source GameSource, defaults Defaults, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if defaults.TopN < 1 {
		defaults.TopN = metrics.DefaultTopN
	}
	return &Service{source: source, defaults: defaults, log: log}
}

// Simulate loads games for the request range and runs the engine on them.
// When the iteration cap is hit the partial forecast is returned together
// with an error wrapping montecarlo.ErrNotConverged.
func (s *Service) Simulate(ctx context.Context, req Request) (*Forecast, error) {
	games, err := s.source.Games(ctx, req.From, req.To)
	if err != nil {
		return nil, fmt.Errorf("loading games: %w", err)
	}
	return s.simulate(ctx, req, games, s.seedFor(req))
}

// Actual returns the real standings over [from, to].
func (s *Service) Actual(ctx context.Context, from, to string) ([]league.Standing, error) {
	games, err := s.source.Games(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("loading games: %w", err)
	}
	return league.ActualStandings(league.BuildMatchupTable(games)), nil
}

// Evaluate simulates the partial range and scores it against the full one.
func (s *Service) Evaluate(ctx context.Context, req EvalRequest) (*Evaluation, error) {
	real, simGames, err := s.loadEvaluation(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.evaluate(ctx, req.Request, real, simGames, s.seedFor(req.Request))
}

// Tune repeats Evaluate runs times and summarises each metric. Run i uses
// seed+i, so a fixed seed reproduces the whole tuning session.
func (s *Service) Tune(ctx context.Context, req EvalRequest, runs int) (*Tuning, error) {
	if runs < 1 {
		return nil, fmt.Errorf("%w: runs must be positive, got %d", montecarlo.ErrInvalidConfig, runs)
	}
	real, simGames, err := s.loadEvaluation(ctx, req)
	if err != nil {
		return nil, err
	}

	base := s.seedFor(req.Request)
	reports := make([]metrics.Report, 0, runs)
	for i := 0; i < runs; i++ {
		ev, err := s.evaluate(ctx, req.Request, real, simGames, base+uint64(i))
		if err != nil {
			return nil, fmt.Errorf("tuning run %d: %w", i+1, err)
		}
		reports = append(reports, ev.Report)
	}

	summary := metrics.Summarize(reports)
	s.log.WithFields(logrus.Fields{
		"runs":              runs,
		"position_distance": summary.PositionDistance.Mean,
		"exact_positions":   summary.ExactPositions.Mean,
		"top_n":             summary.TopN.Mean,
		"spearman":          summary.Spearman.Mean,
	}).Info("tuning finished")
	return &Tuning{Runs: runs, Reports: reports, Summary: summary}, nil
}

func (s *Service) loadEvaluation(ctx context.Context, req EvalRequest) ([]league.Standing, []league.Game, error) {
	real, err := s.Actual(ctx, req.RealFrom, req.RealTo)
	if err != nil {
		return nil, nil, fmt.Errorf("actual standings: %w", err)
	}
	simGames, err := s.source.Games(ctx, req.From, req.To)
	if err != nil {
		return nil, nil, fmt.Errorf("loading games: %w", err)
	}
	return real, simGames, nil
}

func (s *Service) evaluate(ctx context.Context, req Request, real []league.Standing, games []league.Game, seed uint64) (*Evaluation, error) {
	f, err := s.simulate(ctx, req, games, seed)
	if err != nil && !errors.Is(err, montecarlo.ErrNotConverged) {
		return nil, err
	}

	report := metrics.Compare(real, f.Standings, s.defaults.TopN)
	if report.Mismatched() {
		s.log.WithFields(logrus.Fields{
			"missing_from_real":      report.MissingFromReal,
			"missing_from_simulated": report.MissingFromSimulated,
		}).Warn("team sets differ between actual and simulated standings")
	}
	return &Evaluation{Forecast: f, Actual: real, Report: report}, nil
}

func (s *Service) simulate(ctx context.Context, req Request, games []league.Game, seed uint64) (*Forecast, error) {
	cfg, name, criterion, err := s.resolve(req)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	log := s.log.WithFields(logrus.Fields{"run_id": id, "seed": seed})
	engine, err := montecarlo.NewEngine(cfg,
		montecarlo.WithStreams(montecarlo.NewSeededSource(seed)),
		montecarlo.WithCriterion(criterion),
		montecarlo.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}

	table := league.BuildMatchupTable(games)
	est, runErr := engine.Run(ctx, table)
	if est == nil {
		return nil, runErr
	}
	if runErr != nil {
		log.WithError(runErr).Warn("returning unconverged estimate")
	}

	f := &Forecast{
		ID:         id,
		From:       req.From,
		To:         req.To,
		Games:      len(games),
		Teams:      table.Len(),
		Criterion:  name,
		Seed:       seed,
		Iterations: est.Iterations,
		Converged:  est.Converged,
		Volatility: est.Volatility,
		Standings:  est.Standings,
		Elapsed:    est.Elapsed,
		CreatedAt:  time.Now().UTC(),
	}
	for _, st := range est.Standings {
		f.Ranks = append(f.Ranks, TeamRanks{Team: st.Team, Counts: est.Ranks.Counts(st.Team)})
	}
	return f, runErr
}

// resolve merges req over the defaults. A positive iteration count always
// selects the fixed criterion and lifts the cap to at least that count.
func (s *Service) resolve(req Request) (montecarlo.Config, string, montecarlo.StoppingCriterion, error) {
	cfg := s.defaults.Simulation
	if req.GameSimulations != 0 {
		cfg.GameSimulations = req.GameSimulations
	}
	if req.Epsilon != 0 {
		cfg.Epsilon = req.Epsilon
	}
	if req.MaxIterations != 0 {
		cfg.MaxIterations = req.MaxIterations
	}
	if req.Workers != 0 {
		cfg.Workers = req.Workers
	}

	name := s.defaults.Criterion
	if req.Criterion != "" {
		name = req.Criterion
	}
	iterations := s.defaults.Iterations
	if req.Iterations != 0 {
		iterations = req.Iterations
	}
	if iterations > 0 {
		name = montecarlo.CriterionFixed
		if cfg.MaxIterations > 0 && cfg.MaxIterations < iterations {
			cfg.MaxIterations = iterations
		}
	}
	if name == "" {
		name = montecarlo.CriterionLast
	}

	criterion, err := montecarlo.CriterionByName(name, iterations)
	if err != nil {
		return montecarlo.Config{}, "", nil, err
	}
	if err := cfg.Validate(); err != nil {
		return montecarlo.Config{}, "", nil, err
	}
	return cfg, name, criterion, nil
}

func (s *Service) seedFor(req Request) uint64 {
	switch {
	case req.Seed != 0:
		return req.Seed
	case s.defaults.Seed != 0:
		return s.defaults.Seed
	default:
		return rand.Uint64()
	}
}
