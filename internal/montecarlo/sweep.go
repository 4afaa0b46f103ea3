package montecarlo

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/utakatalp/league-montecarlo/internal/league"
)

// Season is one simulated season: a winner for every ordered pair of
// distinct teams, in enumeration order, plus the volatility sample.
type Season struct {
	Winners    []league.Team
	WinRates   []float64
	Volatility float64
}

// Sweep simulates full seasons over a matchup table.
type Sweep struct {
	Table     *league.MatchupTable
	Trials    int
	Streams   StreamSource
	Criterion StoppingCriterion
	// Workers bounds how many rows run at once; values below 2 run the
	// sweep on the calling goroutine.
	Workers int
}

// Simulate plays team1 against team2 for every ordered pair, both "A vs B"
// and "B vs A". iteration feeds the stopping criterion and the streams.
func (s *Sweep) Simulate(ctx context.Context, iteration int) (Season, error) {
	teams := s.Table.Teams()
	n := len(teams)
	if n < 2 {
		return Season{}, ErrTooFewTeams
	}
	games := n * (n - 1)
	season := Season{
		Winners:  make([]league.Team, games),
		WinRates: make([]float64, games),
	}

	row := func(r int) {
		d := s.Streams.Stream(iteration, r)
		slot := r * (n - 1)
		for c, team2 := range teams {
			if c == r {
				continue
			}
			out := SimulateGame(teams[r], team2, s.Table, s.Trials, d)
			season.Winners[slot] = out.Winner
			season.WinRates[slot] = out.WinRate
			slot++
		}
	}

	if s.Workers < 2 {
		for r := range teams {
			if err := ctx.Err(); err != nil {
				return Season{}, err
			}
			row(r)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.Workers)
		for r := range teams {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				row(r)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return Season{}, err
		}
	}

	season.Volatility = s.Criterion.Volatility(season.WinRates, iteration)
	return season, nil
}
