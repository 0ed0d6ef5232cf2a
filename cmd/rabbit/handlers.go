package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/samber/lo"
	openai "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"

	rabbits "github.com/jamesainslie/go-rabbits"
	"github.com/jamesainslie/go-rabbits/datefile"
	"github.com/jamesainslie/go-rabbits/gptprice"
	"github.com/jamesainslie/go-rabbits/inference"
	"github.com/jamesainslie/go-rabbits/internal/sweep"
	"github.com/jamesainslie/go-rabbits/loader"
	"github.com/jamesainslie/go-rabbits/plotter"
	"github.com/jamesainslie/go-rabbits/saver"
	"github.com/jamesainslie/go-rabbits/timer"
)

var errNoFiles = errors.New("no input files left after date cutoff")

// =============================================================================
// Classify
// =============================================================================

// fileMetrics is the evaluation of one input file.
type fileMetrics struct {
	Path    string          `json:"path"`
	Metrics rabbits.Metrics `json:"metrics"`
}

// classifyReport is what classify prints and appends to a log.
type classifyReport struct {
	Time  string          `json:"time"`
	Truth string          `json:"truth"`
	Pred  string          `json:"pred"`
	Files []fileMetrics   `json:"files"`
	Total rabbits.Metrics `json:"total"`
}

func runClassify(cmd *cobra.Command, logger *slog.Logger, cfg Config, o classifyOptions, paths []string) error {
	if o.after != "" || o.through != "" {
		kept, err := datefile.Cutoff(paths, o.after, o.through, cfg.Dates.Position)
		if err != nil {
			return err
		}
		logger.Debug("date cutoff", "after", o.after, "through", o.through, "kept", len(kept), "of", len(paths))
		paths = kept
	}
	if len(paths) == 0 {
		return errNoFiles
	}

	calc, err := rabbits.New(rabbits.WithBetas(cfg.Betas...), rabbits.WithLogger(logger))
	if err != nil {
		return err
	}

	once := func() error {
		report, err := classify(cmd.Context(), calc, cfg, paths)
		if err != nil {
			return err
		}
		if o.appendPath != "" {
			if err := saver.Append(o.appendPath, report); err != nil {
				return err
			}
			logger.Info("appended report", "path", o.appendPath)
		}
		if o.asJSON {
			return writeJSON(cmd.OutOrStdout(), report)
		}
		return printClassify(cmd, report)
	}

	if err := once(); err != nil {
		return err
	}
	if !o.watch {
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return watchFiles(ctx, logger, paths, once)
}

// classify evaluates every file and the sum of their confusion counts.
func classify(ctx context.Context, calc *rabbits.Calculator, cfg Config, paths []string) (classifyReport, error) {
	frames, err := loader.LoadAll(ctx, paths)
	if err != nil {
		return classifyReport{}, err
	}

	report := classifyReport{
		Time:  timer.FromMillis(time.Now().UnixMilli()).Timestamp,
		Truth: cfg.Truth,
		Pred:  cfg.Pred,
		Files: make([]fileMetrics, len(frames)),
	}

	var total rabbits.Counts
	for i, f := range frames {
		m, err := calc.Evaluate(f, cfg.Truth, cfg.Pred)
		if err != nil {
			return classifyReport{}, fmt.Errorf("%s: %w", paths[i], err)
		}
		report.Files[i] = fileMetrics{Path: paths[i], Metrics: m}
		total = total.Add(m.Counts)
	}
	report.Total = calc.Metrics(total)
	return report, nil
}

func printClassify(cmd *cobra.Command, r classifyReport) error {
	headers := []string{"metric"}
	columns := []rabbits.Metrics{r.Total}
	if len(r.Files) > 1 {
		columns = columns[:0]
		for _, f := range r.Files {
			headers = append(headers, filepath.Base(f.Path))
			columns = append(columns, f.Metrics)
		}
		columns = append(columns, r.Total)
		headers = append(headers, "total")
	} else {
		headers = append(headers, "value")
	}

	rows := lo.Map(r.Total.Keys(), func(key string, _ int) []string {
		row := []string{key}
		for _, m := range columns {
			v, _ := m.Value(key)
			row = append(row, formatValue(key, v))
		}
		return row
	})
	return renderTable(cmd.OutOrStdout(), headers, rows)
}

// =============================================================================
// Sweep
// =============================================================================

// sweepRow is one threshold in JSON output.
type sweepRow struct {
	Threshold float64         `json:"threshold"`
	Metrics   rabbits.Metrics `json:"metrics"`
}

func runSweep(cmd *cobra.Command, logger *slog.Logger, cfg Config, o sweepOptions, path string) error {
	frame, err := loader.Load(path)
	if err != nil {
		return err
	}

	thresholds := sweep.Thresholds(cfg.Sweep.Min, cfg.Sweep.Max, cfg.Sweep.Step)
	results, err := sweep.Run(frame, cfg.Truth, cfg.Score, thresholds, sweep.Config{
		Betas:     cfg.Betas,
		Objective: cfg.Sweep.Objective,
		Logger:    logger,
	})
	if err != nil {
		return err
	}
	if o.top > 0 && len(results) > o.top {
		results = results[:o.top]
	}

	if o.asJSON {
		return writeJSON(cmd.OutOrStdout(), lo.Map(results, func(r sweep.Result, _ int) sweepRow {
			return sweepRow(r)
		}))
	}

	obj := cfg.Sweep.Objective
	headers := []string{"threshold", obj, "precision", "recall", "tp", "fp", "tn", "fn"}
	rows := lo.Map(results, func(r sweep.Result, _ int) []string {
		m := r.Metrics
		return []string{
			strconv.FormatFloat(r.Threshold, 'f', 3, 64),
			formatValue(obj, r.Score(obj)),
			formatValue("precision", m.Precision),
			formatValue("recall", m.Recall),
			strconv.Itoa(m.TP),
			strconv.Itoa(m.FP),
			strconv.Itoa(m.TN),
			strconv.Itoa(m.FN),
		}
	})
	return renderTable(cmd.OutOrStdout(), headers, rows)
}

// =============================================================================
// Score
// =============================================================================

func runScore(cmd *cobra.Command, logger *slog.Logger, cfg Config, o scoreOptions, path string) error {
	if cfg.Model.Path == "" {
		return errors.New("--model is required")
	}
	if len(cfg.Model.Features) == 0 {
		return errors.New("--features is required")
	}

	frame, err := loader.Load(path)
	if err != nil {
		return err
	}
	rows, err := frame.Floats(cfg.Model.Features...)
	if err != nil {
		return err
	}

	if cfg.Model.Library != "" {
		inference.SetLibraryPath(cfg.Model.Library)
	}
	pool, err := inference.NewPool(cfg.Model.Path, cfg.Model.Sessions)
	if err != nil {
		return err
	}
	defer func() { _ = pool.Close() }() // Cleanup error ignored in CLI

	start := time.Now()
	scores, err := inference.NewScorer(pool, cfg.Model.BatchSize).Score(cmd.Context(), rows)
	if err != nil {
		return err
	}
	logger.Info("scored rows", "rows", len(scores), "sessions", pool.Size(), "elapsed", time.Since(start))

	preds := make([]int, len(scores))
	sweep.Predict(scores, cfg.Model.Threshold, preds)

	scored, err := frame.WithFloats(cfg.Score, scores)
	if err != nil {
		return err
	}
	if scored, err = scored.WithInts(cfg.Pred, preds); err != nil {
		return err
	}

	if o.out != "" {
		if err := saver.SaveFrame(o.out, scored); err != nil {
			return err
		}
		logger.Info("wrote scored rows", "path", o.out)
	}

	if !scored.Has(cfg.Truth) {
		logger.Warn("no truth column; skipping metrics", "column", cfg.Truth)
		return nil
	}

	calc, err := rabbits.New(rabbits.WithBetas(cfg.Betas...), rabbits.WithLogger(logger))
	if err != nil {
		return err
	}
	m, err := calc.Evaluate(scored, cfg.Truth, cfg.Pred)
	if err != nil {
		return err
	}

	report := classifyReport{
		Time:  timer.FromMillis(time.Now().UnixMilli()).Timestamp,
		Truth: cfg.Truth,
		Pred:  cfg.Pred,
		Files: []fileMetrics{{Path: path, Metrics: m}},
		Total: m,
	}
	if o.asJSON {
		return writeJSON(cmd.OutOrStdout(), report)
	}
	return printClassify(cmd, report)
}

// =============================================================================
// Dates
// =============================================================================

func runDates(cmd *cobra.Command, o datesOptions, position int, paths []string) error {
	if o.after != "" || o.through != "" {
		kept, err := datefile.Cutoff(paths, o.after, o.through, position)
		if err != nil {
			return err
		}
		paths = kept
	}

	sorted, err := datefile.SortByDate(paths, o.reverse)
	if err != nil {
		return err
	}
	for _, p := range sorted {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), p); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Price
// =============================================================================

func runPrice(cmd *cobra.Command, logger *slog.Logger, o priceOptions, output *int, args []string) error {
	if len(args) == 0 {
		rows := lo.Map(gptprice.Models(), func(name string, _ int) []string {
			p := gptprice.Prices[name]
			return []string{
				name,
				strconv.FormatFloat(p.Input, 'f', -1, 64),
				strconv.FormatFloat(p.Output, 'f', -1, 64),
			}
		})
		return renderTable(cmd.OutOrStdout(), []string{"model", "input $/1M", "output $/1M"}, rows)
	}

	var (
		est gptprice.Estimate
		err error
	)
	if o.usage != "" {
		var usage openai.Usage
		if err := loader.LoadJSON(o.usage, &usage); err != nil {
			return err
		}
		est, err = gptprice.FromUsage(logger, args[0], o.batch, usage)
	} else {
		est, err = gptprice.Compute(logger, args[0], o.batch, o.input, output)
	}
	if err != nil {
		return err
	}

	if o.asJSON {
		return writeJSON(cmd.OutOrStdout(), est)
	}

	outTokens := est.InputTokens
	if est.OutputTokens != nil {
		outTokens = *est.OutputTokens
	}
	usd := func(v float64) string { return "$" + strconv.FormatFloat(v, 'f', 4, 64) }
	return renderTable(cmd.OutOrStdout(), []string{"model", "input tokens", "output tokens", "input", "output", "total"},
		[][]string{{
			est.Model,
			strconv.Itoa(est.InputTokens),
			strconv.Itoa(outTokens),
			usd(est.InputCost),
			usd(est.OutputCost),
			usd(est.TotalCost),
		}})
}

// =============================================================================
// Time
// =============================================================================

func runTime(cmd *cobra.Command, asJSON bool, args []string) error {
	moments := make([]timer.Moment, len(args))
	for i, arg := range args {
		ms, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid millisecond timestamp %q: %w", arg, err)
		}
		moments[i] = timer.FromMillis(ms)
	}

	if asJSON {
		return writeJSON(cmd.OutOrStdout(), lo.Map(moments, func(m timer.Moment, _ int) map[string]any {
			return map[string]any{"timestamp": m.Timestamp, "date": m.Date, "hour": m.Hour}
		}))
	}

	rows := make([][]string, len(args))
	for i, m := range moments {
		rows[i] = []string{args[i], m.Timestamp, m.Date, strconv.Itoa(m.Hour)}
	}
	return renderTable(cmd.OutOrStdout(), []string{"millis", "timestamp", "date", "hour"}, rows)
}

// =============================================================================
// Plot
// =============================================================================

func runPlot(cmd *cobra.Command, o plotOptions, paths []string) error {
	frames, err := loader.LoadAll(cmd.Context(), paths)
	if err != nil {
		return err
	}

	var labels []string
	samples := make(map[string][]float64)
	for i, f := range frames {
		names, err := f.Strings(o.group)
		if err != nil {
			return fmt.Errorf("%s: %w", paths[i], err)
		}
		values, err := f.FloatColumn(o.value)
		if err != nil {
			return fmt.Errorf("%s: %w", paths[i], err)
		}
		for j, name := range names {
			samples[name] = append(samples[name], values[j])
		}
		labels = append(labels, names...)
	}

	groups := lo.Map(lo.Uniq(labels), func(label string, _ int) plotter.Group {
		return plotter.Group{Label: label, Samples: samples[label]}
	})

	ylabel := o.ylabel
	if ylabel == "" {
		ylabel = o.value
	}
	opts := []plotter.Option{
		plotter.WithTitle(o.title, o.subtitle),
		plotter.WithYLabel(ylabel),
		plotter.WithCIMultiplier(o.z),
		plotter.WithAnnotations(!o.noAnnotate),
		plotter.WithRotation(o.rotation),
		plotter.WithSize(o.width, o.height),
	}
	if len(o.order) > 0 {
		opts = append(opts, plotter.WithOrder(o.order...))
	}
	if o.autoY {
		opts = append(opts, plotter.WithAutoYLim())
	}

	if err := plotter.MeansWithCI(groups, o.out, opts...); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d groups)\n", o.out, len(groups))
	return err
}
