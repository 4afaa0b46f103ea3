package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/utakatalp/league-montecarlo/internal/league"
)

// ErrNoGames is returned when a date range holds no games.
var ErrNoGames = errors.New("no games in range")

// Store wraps a Postgres connection and provides methods to persist and retrieve game records.
type Store struct {
	DB  *sql.DB
	log logrus.FieldLogger
}

// NewStore opens a Postgres connection using the given connection string.
func NewStore(ctx context.Context, connStr string, log logrus.FieldLogger) (*Store, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// verify early
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	log.Info("database connection established")
	return &Store{DB: db, log: log}, nil
}

func (s *Store) Close() error {
	return s.DB.Close()
}

const migrateGames = `
CREATE TABLE IF NOT EXISTS games (
    id         SERIAL PRIMARY KEY,
    game_date  DATE NOT NULL,
    home_team  TEXT NOT NULL,
    away_team  TEXT NOT NULL,
    home_score INT  NOT NULL,
    away_score INT  NOT NULL
);
CREATE INDEX IF NOT EXISTS games_date_idx ON games (game_date);
`

// Migrate creates the games table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, migrateGames); err != nil {
		return fmt.Errorf("migrating: %w", err)
	}
	return nil
}

const insertGame = `
INSERT INTO games (game_date, home_team, away_team, home_score, away_score)
VALUES ($1, $2, $3, $4, $5)
`

// InsertGames stores games in a single transaction.
func (s *Store) InsertGames(ctx context.Context, games []league.Game) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin InsertGames tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertGame)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, g := range games {
		if _, err := stmt.ExecContext(ctx, g.Date, string(g.Home), string(g.Away), g.HomeScore, g.AwayScore); err != nil {
			return fmt.Errorf("inserting game %s: %w", g.ScoreLine(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit InsertGames tx: %w", err)
	}
	s.log.WithField("games", len(games)).Info("games imported")
	return nil
}

const selectGames = `
SELECT to_char(game_date, 'YYYY-MM-DD'), home_team, away_team, home_score, away_score
FROM games
WHERE ($1 = '' OR to_char(game_date, 'YYYY-MM-DD') >= $1)
  AND ($2 = '' OR to_char(game_date, 'YYYY-MM-DD') <= $2)
ORDER BY game_date, id
`

// Games fetches every game dated within [from, to], oldest first. Bounds
// compare as YYYY-MM-DD text, so loose bounds such as "2017-06-31" work;
// empty bounds are open.
func (s *Store) Games(ctx context.Context, from, to string) ([]league.Game, error) {
	from, to, err := normalizeRange(from, to)
	if err != nil {
		return nil, err
	}
	rows, err := s.DB.QueryContext(ctx, selectGames, from, to)
	if err != nil {
		return nil, fmt.Errorf("querying games: %w", err)
	}
	defer rows.Close()

	var games []league.Game
	for rows.Next() {
		var (
			g          league.Game
			home, away string
		)
		if err := rows.Scan(&g.Date, &home, &away, &g.HomeScore, &g.AwayScore); err != nil {
			return nil, fmt.Errorf("scanning game row: %w", err)
		}
		g.Home, g.Away = league.Team(home), league.Team(away)
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating game rows: %w", err)
	}
	if len(games) == 0 {
		return nil, fmt.Errorf("%w [%s, %s]", ErrNoGames, from, to)
	}
	return games, nil
}

func (s *Store) DeleteAllGames(ctx context.Context) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM games;`)
	if err != nil {
		return fmt.Errorf("deleting all games: %w", err)
	}
	return nil
}
