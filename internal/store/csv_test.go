package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utakatalp/league-montecarlo/internal/league"
)

const gamesCSV = `Date,home,away,home-score,away-score,venue
2017-04-02 13:05:00,LAD,SD,14,3,Dodger Stadium
2017-04-03 19:10:00,SF,LAD,2,5,Oracle Park
2017-07-01 18:40:00,SD,SF,1,1,Petco Park
`

func TestReadGamesCSV(t *testing.T) {
	games, err := ReadGamesCSV(strings.NewReader(gamesCSV))
	require.NoError(t, err)
	require.Len(t, games, 3)

	assert.Equal(t, league.Game{Date: "2017-04-02", Home: "LAD", Away: "SD", HomeScore: 14, AwayScore: 3}, games[0])
	assert.Equal(t, "2017-07-01", games[2].Date)
	assert.Equal(t, league.Team("SF"), games[2].Winner())
}

func TestReadGamesCSVErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: "empty file"},
		{name: "missing column", input: "Date,home,away,home-score\n", want: `missing column "away-score"`},
		{name: "bad score", input: "Date,home,away,home-score,away-score\n2017-04-02,A,B,x,1\n", want: "line 2: home score"},
		{name: "short row", input: "Date,home,away,home-score,away-score\n2017-04-02,A,B\n", want: "line 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadGamesCSV(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCSVSourceFiltersByDate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "games.csv")
	require.NoError(t, os.WriteFile(path, []byte(gamesCSV), 0o644))
	src := CSVSource{Path: path}

	games, err := src.Games(context.Background(), "2017-01-01", "2017-06-31")
	require.NoError(t, err)
	assert.Len(t, games, 2)

	_, err = src.Games(context.Background(), "2018-01-01", "2018-12-31")
	assert.ErrorIs(t, err, ErrNoGames)

	_, err = CSVSource{Path: filepath.Join(t.TempDir(), "missing.csv")}.Games(context.Background(), "", "")
	assert.Error(t, err)
}

func TestNormalizeRange(t *testing.T) {
	from, to, err := normalizeRange(" 2017-01-01 ", "2017-06-31")
	require.NoError(t, err)
	assert.Equal(t, "2017-01-01", from)
	assert.Equal(t, "2017-06-31", to)

	_, _, err = normalizeRange("", "")
	assert.NoError(t, err)

	_, _, err = normalizeRange("2017/01/01", "")
	assert.Error(t, err)

	_, _, err = normalizeRange("2017-12-31", "2017-01-01")
	assert.Error(t, err)
}
