package montecarlo

import (
	"fmt"
	"math"
)

// StoppingCriterion turns one sweep's matchup win rates into the volatility
// sample the convergence loop compares against epsilon. rates are in sweep
// order; iteration starts at 1.
type StoppingCriterion interface {
	Volatility(rates []float64, iteration int) float64
}

// LastMatchup samples only the final matchup of the sweep:
// wr*(1-wr)/sqrt(iteration).
type LastMatchup struct{}

func (LastMatchup) Volatility(rates []float64, iteration int) float64 {
	if len(rates) == 0 || iteration < 1 {
		return math.Inf(1)
	}
	wr := rates[len(rates)-1]
	return wr * (1 - wr) / math.Sqrt(float64(iteration))
}

// MeanMatchup averages wr*(1-wr) over every matchup of the sweep before
// scaling by 1/sqrt(iteration).
type MeanMatchup struct{}

func (MeanMatchup) Volatility(rates []float64, iteration int) float64 {
	if len(rates) == 0 || iteration < 1 {
		return math.Inf(1)
	}
	var sum float64
	for _, wr := range rates {
		sum += wr * (1 - wr)
	}
	return sum / float64(len(rates)) / math.Sqrt(float64(iteration))
}

// FixedIterations ignores the rates and stops after N sweeps.
type FixedIterations struct {
	N int
}

func (f FixedIterations) Volatility(_ []float64, iteration int) float64 {
	if iteration >= f.N {
		return 0
	}
	return math.Inf(1)
}

// Criterion names accepted by CriterionByName.
const (
	CriterionLast  = "last"
	CriterionMean  = "mean"
	CriterionFixed = "fixed"
)

// CriterionByName resolves a configured criterion. iterations is only used by
// the fixed criterion.
func CriterionByName(name string, iterations int) (StoppingCriterion, error) {
	switch name {
	case "", CriterionLast:
		return LastMatchup{}, nil
	case CriterionMean:
		return MeanMatchup{}, nil
	case CriterionFixed:
		if iterations < 1 {
			return nil, fmt.Errorf("%w: fixed criterion needs iterations >= 1, got %d", ErrInvalidConfig, iterations)
		}
		return FixedIterations{N: iterations}, nil
	default:
		return nil, fmt.Errorf("%w: unknown stopping criterion %q", ErrInvalidConfig, name)
	}
}
