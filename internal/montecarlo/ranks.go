package montecarlo

import (
	"github.com/utakatalp/league-montecarlo/internal/league"
)

// RankDistribution counts, per team, how many iterations placed it at each
// rank. Rank 0 is the team with the most wins that iteration.
type RankDistribution struct {
	teams      []league.Team
	index      map[league.Team]int
	counts     [][]int
	iterations int
}

func NewRankDistribution(teams []league.Team) *RankDistribution {
	rd := &RankDistribution{
		teams:  make([]league.Team, len(teams)),
		index:  make(map[league.Team]int, len(teams)),
		counts: make([][]int, len(teams)),
	}
	copy(rd.teams, teams)
	for i, t := range teams {
		rd.index[t] = i
		rd.counts[i] = make([]int, len(teams))
	}
	return rd
}

// Record adds one iteration's final ordering. Teams outside the
// distribution are ignored.
func (rd *RankDistribution) Record(ranking []league.Standing) {
	for rank, s := range ranking {
		i, ok := rd.index[s.Team]
		if !ok || rank >= len(rd.counts[i]) {
			continue
		}
		rd.counts[i][rank]++
	}
	rd.iterations++
}

func (rd *RankDistribution) Iterations() int { return rd.iterations }

func (rd *RankDistribution) Teams() []league.Team {
	out := make([]league.Team, len(rd.teams))
	copy(out, rd.teams)
	return out
}

// Counts returns how often team finished at each rank.
func (rd *RankDistribution) Counts(team league.Team) []int {
	i, ok := rd.index[team]
	if !ok {
		return nil
	}
	out := make([]int, len(rd.counts[i]))
	copy(out, rd.counts[i])
	return out
}

// Frequencies is Counts divided by the number of iterations.
func (rd *RankDistribution) Frequencies(team league.Team) []float64 {
	counts := rd.Counts(team)
	if counts == nil {
		return nil
	}
	freqs := make([]float64, len(counts))
	if rd.iterations == 0 {
		return freqs
	}
	for rank, c := range counts {
		freqs[rank] = float64(c) / float64(rd.iterations)
	}
	return freqs
}

// ModalRank is the rank team reached most often, ties going to the better
// rank. It is -1 for unknown teams.
func (rd *RankDistribution) ModalRank(team league.Team) int {
	counts := rd.Counts(team)
	best := -1
	for rank, c := range counts {
		if best < 0 || c > counts[best] {
			best = rank
		}
	}
	return best
}
