package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/utakatalp/league-montecarlo/internal/league"
)

// Columns read from a games export. Other columns are ignored.
const (
	colDate      = "Date"
	colHome      = "home"
	colAway      = "away"
	colHomeScore = "home-score"
	colAwayScore = "away-score"
)

// ReadGamesCSV parses a games export with a header row. Dates are cut to
// their first ten characters, so timestamps such as "2017-04-02 13:05" work.
func ReadGamesCSV(r io.Reader) ([]league.Game, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("reading header: empty file")
		}
		return nil, fmt.Errorf("reading header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}
	for _, c := range []string{colDate, colHome, colAway, colHomeScore, colAwayScore} {
		if _, ok := cols[c]; !ok {
			return nil, fmt.Errorf("missing column %q", c)
		}
	}

	var games []league.Game
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		date := strings.TrimSpace(rec[cols[colDate]])
		if len(date) > 10 {
			date = date[:10]
		}
		homeScore, err := strconv.Atoi(strings.TrimSpace(rec[cols[colHomeScore]]))
		if err != nil {
			return nil, fmt.Errorf("line %d: home score: %w", line, err)
		}
		awayScore, err := strconv.Atoi(strings.TrimSpace(rec[cols[colAwayScore]]))
		if err != nil {
			return nil, fmt.Errorf("line %d: away score: %w", line, err)
		}
		games = append(games, league.Game{
			Date:      date,
			Home:      league.Team(strings.TrimSpace(rec[cols[colHome]])),
			Away:      league.Team(strings.TrimSpace(rec[cols[colAway]])),
			HomeScore: homeScore,
			AwayScore: awayScore,
		})
	}
	return games, nil
}

// CSVSource serves games from a CSV export on disk.
type CSVSource struct {
	Path string
}

// Games reads the file on every call and keeps games within [from, to].
func (c CSVSource) Games(_ context.Context, from, to string) ([]league.Game, error) {
	from, to, err := normalizeRange(from, to)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(c.Path)
	if err != nil {
		return nil, fmt.Errorf("opening games file: %w", err)
	}
	defer f.Close()

	all, err := ReadGamesCSV(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", c.Path, err)
	}
	games := league.FilterByDate(all, from, to)
	if len(games) == 0 {
		return nil, fmt.Errorf("%w [%s, %s]", ErrNoGames, from, to)
	}
	return games, nil
}

// normalizeRange trims both bounds and checks they look like YYYY-MM-DD.
// Day and month are not range checked.
func normalizeRange(from, to string) (string, string, error) {
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	for _, d := range []string{from, to} {
		if d != "" && !looksLikeDate(d) {
			return "", "", fmt.Errorf("invalid date %q, want YYYY-MM-DD", d)
		}
	}
	if from != "" && to != "" && from > to {
		return "", "", fmt.Errorf("date range [%s, %s] is empty", from, to)
	}
	return from, to, nil
}

func looksLikeDate(s string) bool {
	if len(s) != 10 || s[4] != '-' || s[7] != '-' {
		return false
	}
	for i, r := range s {
		if i == 4 || i == 7 {
			continue
		}
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
