// Package report renders forecasts, evaluations and tuning runs for the CLI.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/utakatalp/league-montecarlo/internal/forecast"
	"github.com/utakatalp/league-montecarlo/internal/league"
	"github.com/utakatalp/league-montecarlo/internal/metrics"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// DefaultHistograms is how many leading teams get a rank histogram.
const DefaultHistograms = 5

const barWidth = 40

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q", s)
	}
}

// Writer renders values in one format. Histograms only applies to text.
type Writer struct {
	Out        io.Writer
	Format     Format
	Histograms int
}

func (w Writer) Forecast(f *forecast.Forecast) error {
	if w.Format != FormatText {
		return w.encode(f)
	}
	if err := forecastHeader(w.Out, f); err != nil {
		return err
	}
	if err := Standings(w.Out, f.Standings); err != nil {
		return err
	}
	return Histograms(w.Out, f, w.Histograms)
}

func (w Writer) Evaluation(ev *forecast.Evaluation) error {
	if w.Format != FormatText {
		return w.encode(ev)
	}
	if err := forecastHeader(w.Out, ev.Forecast); err != nil {
		return err
	}
	if err := Comparison(w.Out, ev.Actual, ev.Forecast.Standings); err != nil {
		return err
	}
	if err := Histograms(w.Out, ev.Forecast, w.Histograms); err != nil {
		return err
	}
	return Metrics(w.Out, ev.Report)
}

func (w Writer) Tuning(t *forecast.Tuning) error {
	if w.Format != FormatText {
		return w.encode(t)
	}
	tw := tabwriter.NewWriter(w.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Runs: %d\n\n", t.Runs)
	fmt.Fprintln(tw, "Metric\tMean\tStdDev")
	s := t.Summary
	for _, row := range []struct {
		name string
		stat metrics.Stat
	}{
		{"Position distance", s.PositionDistance},
		{"Exact positions", s.ExactPositions},
		{"Top-n", s.TopN},
		{"Spearman", s.Spearman},
	} {
		fmt.Fprintf(tw, "%s\t%.3f\t%.3f\n", row.name, row.stat.Mean, row.stat.StdDev)
	}
	return tw.Flush()
}

func (w Writer) encode(v any) error {
	switch w.Format {
	case FormatJSON:
		enc := json.NewEncoder(w.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w.Out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q", w.Format)
	}
}

func forecastHeader(out io.Writer, f *forecast.Forecast) error {
	status := "converged"
	if !f.Converged {
		status = "not converged"
	}
	_, err := fmt.Fprintf(out, "Simulation %s [%s, %s]: %d games, %d teams, %d iterations (%s, volatility %.5f, seed %d)\n\n",
		f.ID, orOpen(f.From), orOpen(f.To), f.Games, f.Teams, f.Iterations, status, f.Volatility, f.Seed)
	return err
}

func orOpen(d string) string {
	if d == "" {
		return "*"
	}
	return d
}

// Standings prints a results table, best team first.
func Standings(out io.Writer, standings []league.Standing) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Pos\tTeam\tWins")
	for i, s := range standings {
		fmt.Fprintf(tw, "%d\t%s\t%d\n", i+1, s.Team, s.Wins)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(out)
	return err
}

// Comparison prints actual and simulated positions side by side.
func Comparison(out io.Writer, actual, simulated []league.Standing) error {
	simPos := make(map[league.Team]int, len(simulated))
	for i, s := range simulated {
		simPos[s.Team] = i + 1
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Team\tActual\tSimulated\tDiff")
	for i, s := range actual {
		p, ok := simPos[s.Team]
		if !ok {
			fmt.Fprintf(tw, "%s\t%d\t-\t-\n", s.Team, i+1)
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%+d\n", s.Team, i+1, p, p-(i+1))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(out)
	return err
}

// Histograms draws the rank distribution of the first n teams of the
// forecast standings. n <= 0 draws none.
func Histograms(out io.Writer, f *forecast.Forecast, n int) error {
	if n > len(f.Standings) {
		n = len(f.Standings)
	}
	for _, s := range f.Standings[:max(n, 0)] {
		counts := f.RankCounts(s.Team)
		total, peak := 0, 0
		for _, c := range counts {
			total += c
			peak = max(peak, c)
		}
		if _, err := fmt.Fprintf(out, "%s final positions (%d seasons)\n", s.Team, total); err != nil {
			return err
		}
		tw := tabwriter.NewWriter(out, 0, 0, 1, ' ', 0)
		for rank, c := range counts {
			fmt.Fprintf(tw, "%d\t|%s\t%d\t(%.1f%%)\n", rank+1, bar(c, peak), c, percent(c, total))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(out); err != nil {
			return err
		}
	}
	return nil
}

func bar(c, peak int) string {
	if peak == 0 {
		return ""
	}
	return strings.Repeat("#", c*barWidth/peak)
}

func percent(c, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(c) / float64(total)
}

// Metrics prints the agreement statistics of one comparison.
func Metrics(out io.Writer, r metrics.Report) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Position distance\t%d\n", r.PositionDistance)
	fmt.Fprintf(tw, "Exact positions\t%d\n", r.ExactPositions)
	fmt.Fprintf(tw, "Top-%d\t%d\n", r.TopNSize, r.TopN)
	fmt.Fprintf(tw, "Spearman\t%.4f\n", r.Spearman)
	if len(r.MissingFromReal) > 0 {
		fmt.Fprintf(tw, "Only simulated\t%s\n", joinTeams(r.MissingFromReal))
	}
	if len(r.MissingFromSimulated) > 0 {
		fmt.Fprintf(tw, "Only actual\t%s\n", joinTeams(r.MissingFromSimulated))
	}
	return tw.Flush()
}

func joinTeams(teams []league.Team) string {
	s := make([]string, len(teams))
	for i, t := range teams {
		s[i] = string(t)
	}
	return strings.Join(s, ", ")
}
