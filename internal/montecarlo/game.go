package montecarlo

import (
	"github.com/utakatalp/league-montecarlo/internal/league"
)

// NeutralWinRate is used for pairs that never met.
const NeutralWinRate = 0.5

// Outcome is the result of one simulated matchup.
type Outcome struct {
	Winner  league.Team
	WinRate float64
}

// WinRate estimates the chance that a team with the given history wins a
// single trial. Each injury flag moves one game: an injured team1 loses one,
// an injured team2 hands one over. The result is clamped to [0, 1].
func WinRate(played, won, injury1, injury2 int) float64 {
	if played <= 0 {
		return NeutralWinRate
	}
	numerator := won + injury2 - injury1
	if numerator < 0 {
		numerator = 0
	}
	if numerator > played {
		numerator = played
	}
	return float64(numerator) / float64(played)
}

// SimulateGame decides team1 against team2 by a best-of-trials vote at the
// perturbed historical win rate. team1 needs a strict majority.
func SimulateGame(team1, team2 league.Team, table *league.MatchupTable, trials int, d Draws) Outcome {
	played, won := table.History(team1, team2)
	injury1 := d.InjuryFlag()
	injury2 := d.InjuryFlag()

	rate := WinRate(played, won, injury1, injury2)
	wins := d.TrialWins(trials, rate)
	if wins > trials-wins {
		return Outcome{Winner: team1, WinRate: rate}
	}
	return Outcome{Winner: team2, WinRate: rate}
}
