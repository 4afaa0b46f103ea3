package metrics

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Stat is the mean and sample standard deviation of one metric over runs.
type Stat struct {
	Mean   float64 `json:"mean" yaml:"mean"`
	StdDev float64 `json:"std_dev" yaml:"std_dev"`
}

// Summary aggregates reports from repeated runs with the same parameters.
type Summary struct {
	Runs             int  `json:"runs" yaml:"runs"`
	PositionDistance Stat `json:"position_distance" yaml:"position_distance"`
	ExactPositions   Stat `json:"exact_positions" yaml:"exact_positions"`
	TopN             Stat `json:"top_n" yaml:"top_n"`
	Spearman         Stat `json:"spearman" yaml:"spearman"`
}

func Summarize(reports []Report) Summary {
	n := len(reports)
	dist := make([]float64, n)
	exact := make([]float64, n)
	top := make([]float64, n)
	rho := make([]float64, 0, n)
	for i, r := range reports {
		dist[i] = float64(r.PositionDistance)
		exact[i] = float64(r.ExactPositions)
		top[i] = float64(r.TopN)
		if !math.IsNaN(r.Spearman) {
			rho = append(rho, r.Spearman)
		}
	}
	return Summary{
		Runs:             n,
		PositionDistance: describe(dist),
		ExactPositions:   describe(exact),
		TopN:             describe(top),
		Spearman:         describe(rho),
	}
}

func describe(xs []float64) Stat {
	switch len(xs) {
	case 0:
		return Stat{}
	case 1:
		return Stat{Mean: xs[0]}
	}
	mean, std := stat.MeanStdDev(xs, nil)
	return Stat{Mean: mean, StdDev: std}
}
