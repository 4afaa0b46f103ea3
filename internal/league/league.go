package league

// Team identifies a club by its short code (e.g. "LAD").
type Team string

// Game is one historical result between two teams.
type Game struct {
	Date      string // YYYY-MM-DD
	Home      Team
	Away      Team
	HomeScore int
	AwayScore int
}

// Record holds a team's history against one opponent.
type Record struct {
	Opponent Team `json:"opponent" yaml:"opponent"`
	Played   int  `json:"played" yaml:"played"`
	Won      int  `json:"won" yaml:"won"`
}

// Standing is one row of a results table.
type Standing struct {
	Team Team `json:"team" yaml:"team"`
	Wins int  `json:"wins" yaml:"wins"`
}
