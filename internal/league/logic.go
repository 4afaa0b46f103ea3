// internal/league/logic.go
package league

import (
	"fmt"
	"sort"
)

// MatchupTable maps every team to its per-opponent history. Teams and
// opponents keep the order in which they were first added.
type MatchupTable struct {
	teams    []Team
	index    map[Team]int
	records  [][]Record
	opponent []map[Team]int
}

func NewMatchupTable() *MatchupTable {
	return &MatchupTable{index: make(map[Team]int)}
}

func (m *Game) ScoreLine() string {
	return fmt.Sprintf("%s %s %d - %d %s",
		m.Date,
		m.Home, m.HomeScore,
		m.AwayScore, m.Away,
	)
}

// Winner returns the winning side. Baseball has no ties, so a level score
// is credited to the away team.
func (m *Game) Winner() Team {
	if m.HomeScore > m.AwayScore {
		return m.Home
	}
	return m.Away
}

// Loser returns the side that did not win.
func (m *Game) Loser() Team {
	if m.Winner() == m.Home {
		return m.Away
	}
	return m.Home
}

func (t *MatchupTable) ensureTeam(team Team) int {
	if i, ok := t.index[team]; ok {
		return i
	}
	i := len(t.teams)
	t.teams = append(t.teams, team)
	t.index[team] = i
	t.records = append(t.records, nil)
	t.opponent = append(t.opponent, make(map[Team]int))
	return i
}

func (t *MatchupTable) ensureRecord(team, opp Team) *Record {
	i := t.ensureTeam(team)
	if j, ok := t.opponent[i][opp]; ok {
		return &t.records[i][j]
	}
	t.opponent[i][opp] = len(t.records[i])
	t.records[i] = append(t.records[i], Record{Opponent: opp})
	return &t.records[i][len(t.records[i])-1]
}

func (t *MatchupTable) addResult(winner, loser Team) {
	t.ensureTeam(winner)
	t.ensureTeam(loser)
	w := t.ensureRecord(winner, loser)
	l := t.ensureRecord(loser, winner)
	w.Played++
	w.Won++
	l.Played++
}

// AddSeries records played games between a and b, aWon of them won by a and
// the rest by b.
func (t *MatchupTable) AddSeries(a, b Team, played, aWon int) error {
	if a == b {
		return fmt.Errorf("series of %s against itself", a)
	}
	if played < 0 || aWon < 0 || aWon > played {
		return fmt.Errorf("invalid series %s vs %s: %d won of %d", a, b, aWon, played)
	}
	ra := t.ensureRecord(a, b)
	rb := t.ensureRecord(b, a)
	ra.Played += played
	ra.Won += aWon
	rb.Played += played
	rb.Won += played - aWon
	return nil
}

// Teams returns the team universe in enumeration order.
func (t *MatchupTable) Teams() []Team {
	out := make([]Team, len(t.teams))
	copy(out, t.teams)
	return out
}

func (t *MatchupTable) Len() int { return len(t.teams) }

// Records returns team's history in first-meeting order.
func (t *MatchupTable) Records(team Team) []Record {
	i, ok := t.index[team]
	if !ok {
		return nil
	}
	out := make([]Record, len(t.records[i]))
	copy(out, t.records[i])
	return out
}

// History returns games played and won by team1 against team2, or (0, 0)
// when the pair never met.
func (t *MatchupTable) History(team1, team2 Team) (played, won int) {
	i, ok := t.index[team1]
	if !ok {
		return 0, 0
	}
	j, ok := t.opponent[i][team2]
	if !ok {
		return 0, 0
	}
	r := t.records[i][j]
	return r.Played, r.Won
}

// Validate checks the table invariants: won within [0, played] and the same
// number of games seen from both sides of every pair.
func (t *MatchupTable) Validate() error {
	for i, team := range t.teams {
		for _, r := range t.records[i] {
			if r.Won < 0 || r.Won > r.Played {
				return fmt.Errorf("%s vs %s: %d won of %d", team, r.Opponent, r.Won, r.Played)
			}
			played, _ := t.History(r.Opponent, team)
			if played != r.Played {
				return fmt.Errorf("%s vs %s: asymmetric games played (%d vs %d)", team, r.Opponent, r.Played, played)
			}
		}
	}
	return nil
}

// BuildMatchupTable aggregates game results into a matchup table.
func BuildMatchupTable(games []Game) *MatchupTable {
	table := NewMatchupTable()
	for i := range games {
		table.addResult(games[i].Winner(), games[i].Loser())
	}
	return table
}

// FilterByDate keeps games dated within [from, to]. Dates compare as
// YYYY-MM-DD strings; an empty bound is open.
func FilterByDate(games []Game, from, to string) []Game {
	out := make([]Game, 0, len(games))
	for _, g := range games {
		if from != "" && g.Date < from {
			continue
		}
		if to != "" && g.Date > to {
			continue
		}
		out = append(out, g)
	}
	return out
}

// BuildResultsTable sorts teams by wins, descending. Ties keep the order of
// teams.
func BuildResultsTable(teams []Team, wins map[Team]int) []Standing {
	table := make([]Standing, 0, len(teams))
	for _, t := range teams {
		table = append(table, Standing{Team: t, Wins: wins[t]})
	}
	sort.SliceStable(table, func(i, j int) bool {
		return table[i].Wins > table[j].Wins
	})
	return table
}

// ActualStandings ranks teams by the games they actually won.
func ActualStandings(table *MatchupTable) []Standing {
	wins := make(map[Team]int, table.Len())
	for i, team := range table.teams {
		for _, r := range table.records[i] {
			wins[team] += r.Won
		}
	}
	return BuildResultsTable(table.teams, wins)
}
