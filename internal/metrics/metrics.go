// Package metrics scores a simulated ranking against the real one.
package metrics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/utakatalp/league-montecarlo/internal/league"
)

// DefaultTopN is how many leading positions TopN looks at by default.
const DefaultTopN = 8

// Report holds the rank-agreement statistics of one comparison.
type Report struct {
	PositionDistance int     `json:"position_distance" yaml:"position_distance"`
	ExactPositions   int     `json:"exact_positions" yaml:"exact_positions"`
	TopN             int     `json:"top_n" yaml:"top_n"`
	TopNSize         int     `json:"top_n_size" yaml:"top_n_size"`
	Spearman         float64 `json:"spearman" yaml:"spearman"` // 0 when Compared < 2
	Compared         int     `json:"compared" yaml:"compared"`

	// Teams dropped from the join because only one side ranked them.
	MissingFromReal      []league.Team `json:"missing_from_real,omitempty" yaml:"missing_from_real,omitempty"`
	MissingFromSimulated []league.Team `json:"missing_from_simulated,omitempty" yaml:"missing_from_simulated,omitempty"`
}

// Mismatched reports whether the two tables covered different teams.
func (r Report) Mismatched() bool {
	return len(r.MissingFromReal) > 0 || len(r.MissingFromSimulated) > 0
}

// pair is one team's position in both tables.
type pair struct {
	team      league.Team
	real, sim int
}

// join matches teams present in both tables, in real-table order.
func join(real, simulated []league.Standing) (pairs []pair, missingFromReal, missingFromSim []league.Team) {
	simPos := make(map[league.Team]int, len(simulated))
	for i, s := range simulated {
		simPos[s.Team] = i
	}
	realPos := make(map[league.Team]int, len(real))
	for i, s := range real {
		realPos[s.Team] = i
		p, ok := simPos[s.Team]
		if !ok {
			missingFromSim = append(missingFromSim, s.Team)
			continue
		}
		pairs = append(pairs, pair{team: s.Team, real: i, sim: p})
	}
	for _, s := range simulated {
		if _, ok := realPos[s.Team]; !ok {
			missingFromReal = append(missingFromReal, s.Team)
		}
	}
	return pairs, missingFromReal, missingFromSim
}

// Compare computes every metric over the teams both tables rank.
func Compare(real, simulated []league.Standing, topN int) Report {
	pairs, missReal, missSim := join(real, simulated)
	rho := spearman(pairs)
	if math.IsNaN(rho) {
		rho = 0
	}
	return Report{
		PositionDistance:     positionDistance(pairs),
		ExactPositions:       exactPositions(pairs),
		TopN:                 topNMatches(pairs, topN),
		TopNSize:             topN,
		Spearman:             rho,
		Compared:             len(pairs),
		MissingFromReal:      missReal,
		MissingFromSimulated: missSim,
	}
}

// PositionDistance sums |real position - simulated position| over shared teams.
func PositionDistance(real, simulated []league.Standing) int {
	pairs, _, _ := join(real, simulated)
	return positionDistance(pairs)
}

// ExactPositions counts shared teams placed identically in both tables.
func ExactPositions(real, simulated []league.Standing) int {
	pairs, _, _ := join(real, simulated)
	return exactPositions(pairs)
}

// TopN counts teams in the real top n whose simulated position matches.
func TopN(real, simulated []league.Standing, n int) int {
	pairs, _, _ := join(real, simulated)
	return topNMatches(pairs, n)
}

// Spearman is the rank correlation of real and simulated positions. It is
// NaN with fewer than two shared teams.
func Spearman(real, simulated []league.Standing) float64 {
	pairs, _, _ := join(real, simulated)
	return spearman(pairs)
}

func positionDistance(pairs []pair) int {
	d := 0
	for _, p := range pairs {
		if p.real > p.sim {
			d += p.real - p.sim
		} else {
			d += p.sim - p.real
		}
	}
	return d
}

func exactPositions(pairs []pair) int {
	n := 0
	for _, p := range pairs {
		if p.real == p.sim {
			n++
		}
	}
	return n
}

func topNMatches(pairs []pair, n int) int {
	matches := 0
	for _, p := range pairs {
		if p.real < n && p.real == p.sim {
			matches++
		}
	}
	return matches
}

func spearman(pairs []pair) float64 {
	if len(pairs) < 2 {
		return math.NaN()
	}
	x := make([]float64, len(pairs))
	y := make([]float64, len(pairs))
	for i, p := range pairs {
		x[i] = float64(p.real)
		y[i] = float64(p.sim)
	}
	return stat.Correlation(rank(x), rank(y), nil)
}

// rank replaces values by their 1-based ranks, averaging ties.
func rank(values []float64) []float64 {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return values[idx[a]] < values[idx[b]] })

	ranks := make([]float64, len(values))
	for i := 0; i < len(idx); {
		j := i
		for j+1 < len(idx) && values[idx[j+1]] == values[idx[i]] {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[idx[k]] = avg
		}
		i = j + 1
	}
	return ranks
}
