package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/utakatalp/league-montecarlo/internal/api"
	"github.com/utakatalp/league-montecarlo/internal/cache"
	"github.com/utakatalp/league-montecarlo/internal/forecast"
	"github.com/utakatalp/league-montecarlo/internal/montecarlo"
	"github.com/utakatalp/league-montecarlo/internal/report"
	"github.com/utakatalp/league-montecarlo/internal/store"
)

// simOptions override the configured simulation parameters. Zero keeps
// the configured value.
type simOptions struct {
	Epsilon       float64 `long:"epsilon" description:"Volatility threshold that ends the simulation"`
	Trials        int     `long:"trials" description:"Trials per matchup (game simulations)"`
	MaxIterations int     `long:"max-iterations" description:"Give up after this many seasons"`
	Iterations    int     `long:"iterations" description:"Run exactly this many seasons"`
	Workers       int     `long:"workers" description:"Goroutines per season sweep"`
	Seed          uint64  `long:"seed" description:"Random seed; 0 picks one"`
	Criterion     string  `long:"criterion" choice:"last" choice:"mean" choice:"fixed" description:"Stopping criterion"`
}

func (o simOptions) request(from, to string) forecast.Request {
	return forecast.Request{
		From:            from,
		To:              to,
		GameSimulations: o.Trials,
		Epsilon:         o.Epsilon,
		MaxIterations:   o.MaxIterations,
		Iterations:      o.Iterations,
		Workers:         o.Workers,
		Seed:            o.Seed,
		Criterion:       o.Criterion,
	}
}

type outputOptions struct {
	Format     string `long:"format" default:"text" choice:"text" choice:"json" choice:"yaml" description:"Output format"`
	Histograms int    `long:"histograms" default:"5" description:"Rank histograms for the leading N teams (text only)"`
}

func (o outputOptions) writer() (report.Writer, error) {
	format, err := report.ParseFormat(o.Format)
	if err != nil {
		return report.Writer{}, err
	}
	return report.Writer{Out: os.Stdout, Format: format, Histograms: o.Histograms}, nil
}

// run builds the app, hands it to fn and closes it.
func run(global *globalOptions, fn func(ctx context.Context, a *app) error) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx, global)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

type simulateCommand struct {
	global *globalOptions

	From string `long:"from" description:"First game date (YYYY-MM-DD)"`
	To   string `long:"to" description:"Last game date (YYYY-MM-DD)"`
	simOptions
	outputOptions
}

func (c *simulateCommand) Execute([]string) error {
	out, err := c.writer()
	if err != nil {
		return err
	}
	return run(c.global, func(ctx context.Context, a *app) error {
		f, err := a.service().Simulate(ctx, c.request(c.From, c.To))
		if f == nil {
			return err
		}
		if errors.Is(err, montecarlo.ErrNotConverged) {
			a.log.Warn("iteration cap reached, printing the partial estimate")
		}
		if werr := out.Forecast(f); werr != nil {
			return werr
		}
		return err
	})
}

type evaluateCommand struct {
	global *globalOptions

	RealFrom string `long:"real-from" default:"2017-01-01" description:"First date of the actual season"`
	RealTo   string `long:"real-to" default:"2017-12-31" description:"Last date of the actual season"`
	SimFrom  string `long:"sim-from" default:"2017-01-01" description:"First date the simulation learns from"`
	SimTo    string `long:"sim-to" default:"2017-06-31" description:"Last date the simulation learns from"`
	simOptions
	outputOptions
}

func (c *evaluateCommand) evalRequest() forecast.EvalRequest {
	return forecast.EvalRequest{
		Request:  c.request(c.SimFrom, c.SimTo),
		RealFrom: c.RealFrom,
		RealTo:   c.RealTo,
	}
}

func (c *evaluateCommand) Execute([]string) error {
	out, err := c.writer()
	if err != nil {
		return err
	}
	return run(c.global, func(ctx context.Context, a *app) error {
		ev, err := a.service().Evaluate(ctx, c.evalRequest())
		if err != nil {
			return err
		}
		return out.Evaluation(ev)
	})
}

type tuneCommand struct {
	evaluateCommand
	Runs int `long:"runs" default:"10" description:"Number of evaluation runs"`
}

func (c *tuneCommand) Execute([]string) error {
	out, err := c.writer()
	if err != nil {
		return err
	}
	return run(c.global, func(ctx context.Context, a *app) error {
		t, err := a.service().Tune(ctx, c.evalRequest(), c.Runs)
		if err != nil {
			return err
		}
		return out.Tuning(t)
	})
}

type importCommand struct {
	global *globalOptions

	Replace bool `long:"replace" description:"Delete stored games before importing"`
}

func (c *importCommand) Execute([]string) error {
	return run(c.global, func(ctx context.Context, a *app) error {
		if a.cfg.DatabaseURL == "" {
			return errors.New("import needs DATABASE_URL")
		}
		path := c.global.CSV
		if path == "" {
			path = a.cfg.GamesCSV
		}
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("opening games file: %w", err)
		}
		defer f.Close()

		games, err := store.ReadGamesCSV(f)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}

		st, ok := a.source.(*store.Store)
		if !ok {
			if st, err = store.NewStore(ctx, a.cfg.DatabaseURL, a.log); err != nil {
				return err
			}
			defer st.Close()
		}
		if err := st.Migrate(ctx); err != nil {
			return err
		}
		if c.Replace {
			if err := st.DeleteAllGames(ctx); err != nil {
				return err
			}
		}
		if err := st.InsertGames(ctx, games); err != nil {
			return err
		}
		a.log.WithField("games", len(games)).Info("import finished")
		return nil
	})
}

type serveCommand struct {
	global *globalOptions

	Port    string        `long:"port" description:"Override PORT"`
	Timeout time.Duration `long:"timeout" default:"2m" description:"Upper bound on a single simulation request"`
}

func (c *serveCommand) Execute([]string) error {
	return run(c.global, func(ctx context.Context, a *app) error {
		var fc cache.ForecastCache = cache.NewMemoryCache(a.cfg.CacheTTL)
		if a.cfg.RedisURL != "" {
			rc, err := cache.NewRedisCache(ctx, a.cfg.RedisURL, a.cfg.CacheTTL, a.log)
			if err != nil {
				return err
			}
			defer rc.Close()
			fc = rc
		}

		port := a.cfg.Port
		if c.Port != "" {
			port = c.Port
		}
		srv := &http.Server{
			Addr:    fmt.Sprintf(":%s", port),
			Handler: api.NewServer(a.service(), fc, c.Timeout, a.log),
		}

		errc := make(chan error, 1)
		go func() {
			a.log.WithField("port", port).Info("league simulator API started")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errc <- err
			}
			close(errc)
		}()

		select {
		case err := <-errc:
			return fmt.Errorf("serving: %w", err)
		case <-ctx.Done():
		}

		a.log.Info("shutting down league simulator API")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("forced shutdown: %w", err)
		}
		return nil
	})
}
