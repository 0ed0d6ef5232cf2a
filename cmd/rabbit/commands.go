package main

import (
	"github.com/spf13/cobra"
)

// =============================================================================
// Classify Command
// =============================================================================

type classifyOptions struct {
	truth, pred    string
	betas          []float64
	after, through string
	position       int
	asJSON         bool
	appendPath     string
	watch          bool
}

func buildClassifyCmd(a *app) *cobra.Command {
	var o classifyOptions

	cmd := &cobra.Command{
		Use:   "classify FILE...",
		Short: "Compute confusion-matrix metrics for label files",
		Long: `Compute confusion-matrix metrics for one or more .csv, .tsv, .json,
.parquet or single-file .zip datasets. With several files the confusion
counts are summed and the total is reported alongside each file.`,
		Example: `  rabbit classify --truth y --pred yhat preds.csv
  rabbit classify --betas 0.5,2 --json a.csv b.csv
  rabbit classify --after 2025-06-01 --position 1 runs/*/preds.parquet`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			override(cmd, "truth", o.truth, &cfg.Truth)
			override(cmd, "pred", o.pred, &cfg.Pred)
			override(cmd, "betas", o.betas, &cfg.Betas)
			override(cmd, "position", o.position, &cfg.Dates.Position)
			return runClassify(cmd, a.logger, cfg, o, args)
		},
	}

	cmd.Flags().StringVar(&o.truth, "truth", "truth", "Ground-truth column")
	cmd.Flags().StringVar(&o.pred, "pred", "pred", "Prediction column")
	cmd.Flags().Float64SliceVar(&o.betas, "betas", nil, "F-beta values to report (default 0.5,1,2)")
	cmd.Flags().StringVar(&o.after, "after", "", "Keep files dated strictly after this day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&o.through, "through", "", "Keep files dated on or before this day (YYYY-MM-DD)")
	cmd.Flags().IntVar(&o.position, "position", 0, "Path element holding the date (0 = file name)")
	cmd.Flags().BoolVar(&o.asJSON, "json", false, "Print JSON instead of a table")
	cmd.Flags().StringVar(&o.appendPath, "append", "", "Append the report to this JSON array file")
	cmd.Flags().BoolVarP(&o.watch, "watch", "w", false, "Re-run whenever an input file changes")

	return cmd
}

// =============================================================================
// Sweep Command
// =============================================================================

type sweepOptions struct {
	truth, score   string
	min, max, step float64
	objective      string
	betas          []float64
	top            int
	asJSON         bool
}

func buildSweepCmd(a *app) *cobra.Command {
	var o sweepOptions

	cmd := &cobra.Command{
		Use:   "sweep FILE",
		Short: "Evaluate a score column over a threshold grid",
		Example: `  rabbit sweep --score p scores.csv
  rabbit sweep --score p --objective mcc --min 0.1 --max 0.9 --step 0.01 scores.parquet`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			override(cmd, "truth", o.truth, &cfg.Truth)
			override(cmd, "score", o.score, &cfg.Score)
			override(cmd, "betas", o.betas, &cfg.Betas)
			override(cmd, "min", o.min, &cfg.Sweep.Min)
			override(cmd, "max", o.max, &cfg.Sweep.Max)
			override(cmd, "step", o.step, &cfg.Sweep.Step)
			override(cmd, "objective", o.objective, &cfg.Sweep.Objective)
			return runSweep(cmd, a.logger, cfg, o, args[0])
		},
	}

	d := defaultConfig().Sweep
	cmd.Flags().StringVar(&o.truth, "truth", "truth", "Ground-truth column")
	cmd.Flags().StringVar(&o.score, "score", "score", "Score column")
	cmd.Flags().Float64Var(&o.min, "min", d.Min, "Lowest threshold")
	cmd.Flags().Float64Var(&o.max, "max", d.Max, "Threshold upper bound (exclusive)")
	cmd.Flags().Float64Var(&o.step, "step", d.Step, "Threshold step")
	cmd.Flags().StringVar(&o.objective, "objective", d.Objective, "Metric key to maximise")
	cmd.Flags().Float64SliceVar(&o.betas, "betas", nil, "F-beta values to compute")
	cmd.Flags().IntVar(&o.top, "top", 10, "Rows to print (0 = all)")
	cmd.Flags().BoolVar(&o.asJSON, "json", false, "Print JSON instead of a table")

	return cmd
}

// =============================================================================
// Score Command
// =============================================================================

type scoreOptions struct {
	model     string
	library   string
	features  []string
	truth     string
	threshold float64
	sessions  int
	batchSize int
	out       string
	asJSON    bool
}

func buildScoreCmd(a *app) *cobra.Command {
	var o scoreOptions

	cmd := &cobra.Command{
		Use:   "score FILE",
		Short: "Score feature rows with an ONNX classifier and evaluate them",
		Long: `Run the feature columns of FILE through an ONNX binary classifier,
threshold the positive-class probability and report metrics against the
truth column. --out writes the input with score and pred columns added.`,
		Example: `  rabbit score --model clf.onnx --features age,income --truth churned users.csv`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			override(cmd, "model", o.model, &cfg.Model.Path)
			override(cmd, "library", o.library, &cfg.Model.Library)
			override(cmd, "features", o.features, &cfg.Model.Features)
			override(cmd, "truth", o.truth, &cfg.Truth)
			override(cmd, "threshold", o.threshold, &cfg.Model.Threshold)
			override(cmd, "sessions", o.sessions, &cfg.Model.Sessions)
			override(cmd, "batch-size", o.batchSize, &cfg.Model.BatchSize)
			return runScore(cmd, a.logger, cfg, o, args[0])
		},
	}

	d := defaultConfig().Model
	cmd.Flags().StringVar(&o.model, "model", "", "Path to ONNX model file")
	cmd.Flags().StringVar(&o.library, "library", "", "Path to the ONNX Runtime shared library")
	cmd.Flags().StringSliceVar(&o.features, "features", nil, "Feature columns in model input order")
	cmd.Flags().StringVar(&o.truth, "truth", "truth", "Ground-truth column")
	cmd.Flags().Float64Var(&o.threshold, "threshold", d.Threshold, "Decision threshold on the positive score")
	cmd.Flags().IntVar(&o.sessions, "sessions", d.Sessions, "Parallel ONNX sessions")
	cmd.Flags().IntVar(&o.batchSize, "batch-size", d.BatchSize, "Rows per inference run")
	cmd.Flags().StringVarP(&o.out, "out", "o", "", "Write scored rows to this file")
	cmd.Flags().BoolVar(&o.asJSON, "json", false, "Print JSON instead of a table")

	return cmd
}

// =============================================================================
// Dates Command
// =============================================================================

type datesOptions struct {
	after, through string
	position       int
	reverse        bool
}

func buildDatesCmd(a *app) *cobra.Command {
	var o datesOptions

	cmd := &cobra.Command{
		Use:   "dates PATH...",
		Short: "Sort or filter paths by the date they carry",
		Example: `  rabbit dates runs/*/report_*.json
  rabbit dates --after 2025-06-01 --through 2025-06-30 --position 1 runs/*/preds.csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			position := a.cfg.Dates.Position
			override(cmd, "position", o.position, &position)
			return runDates(cmd, o, position, args)
		},
	}

	cmd.Flags().StringVar(&o.after, "after", "", "Keep paths dated strictly after this day")
	cmd.Flags().StringVar(&o.through, "through", "", "Keep paths dated on or before this day")
	cmd.Flags().IntVar(&o.position, "position", 0, "Path element holding the date for filtering")
	cmd.Flags().BoolVarP(&o.reverse, "reverse", "r", false, "Newest first")

	return cmd
}

// =============================================================================
// Price Command
// =============================================================================

type priceOptions struct {
	input  int
	output int
	batch  bool
	usage  string
	asJSON bool
}

func buildPriceCmd(a *app) *cobra.Command {
	var o priceOptions

	cmd := &cobra.Command{
		Use:   "price [MODEL]",
		Short: "Estimate OpenAI API cost for a token volume",
		Long: `Estimate the USD cost of a request volume. Without --output the output is
assumed as long as the input. --usage reads token counts from a JSON usage
object as returned by the API. With no MODEL the known models are listed.`,
		Example: `  rabbit price gpt-4o-mini --input 1200000 --output 300000 --batch
  rabbit price gpt-5 --usage usage.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var output *int
			if cmd.Flags().Changed("output") {
				output = &o.output
			}
			return runPrice(cmd, a.logger, o, output, args)
		},
	}

	cmd.Flags().IntVar(&o.input, "input", 0, "Input tokens")
	cmd.Flags().IntVar(&o.output, "output", 0, "Output tokens (default: same as input)")
	cmd.Flags().BoolVar(&o.batch, "batch", false, "Price as a batch request")
	cmd.Flags().StringVar(&o.usage, "usage", "", "JSON file holding an API usage object")
	cmd.Flags().BoolVar(&o.asJSON, "json", false, "Print JSON instead of a table")

	return cmd
}

// =============================================================================
// Time Command
// =============================================================================

func buildTimeCmd(_ *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "time MILLIS...",
		Short:   "Convert millisecond Unix timestamps to UTC dates",
		Example: `  rabbit time 1750272643000`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTime(cmd, asJSON, args)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")

	return cmd
}

// =============================================================================
// Plot Command
// =============================================================================

type plotOptions struct {
	group, value    string
	out             string
	title, subtitle string
	ylabel          string
	order           []string
	z               float64
	autoY           bool
	noAnnotate      bool
	rotation        float64
	width, height   float64
}

func buildPlotCmd(_ *app) *cobra.Command {
	var o plotOptions

	cmd := &cobra.Command{
		Use:   "plot FILE...",
		Short: "Bar chart of group means with confidence intervals",
		Long: `Group the value column of the input files by the group column and draw
each group's mean with a confidence interval. The output format follows
the extension of --out (.png, .svg, .pdf).`,
		Example: `  rabbit plot --group model --value f1 --out f1.png runs.json
  rabbit plot --group model --value mcc --order base,tuned --z 2.576 --out mcc.svg runs.csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlot(cmd, o, args)
		},
	}

	cmd.Flags().StringVar(&o.group, "group", "group", "Column holding bar labels")
	cmd.Flags().StringVar(&o.value, "value", "value", "Column holding sample values")
	cmd.Flags().StringVarP(&o.out, "out", "o", "plot.png", "Output image path")
	cmd.Flags().StringVar(&o.title, "title", "", "Plot title")
	cmd.Flags().StringVar(&o.subtitle, "subtitle", "", "Second title line")
	cmd.Flags().StringVar(&o.ylabel, "ylabel", "", "Y axis label (default: value column)")
	cmd.Flags().StringSliceVar(&o.order, "order", nil, "Bar order; unnamed groups are dropped")
	cmd.Flags().Float64Var(&o.z, "z", 1.96, "Confidence interval multiplier")
	cmd.Flags().BoolVar(&o.autoY, "auto-y", false, "Fit the y range to the data instead of [0,1]")
	cmd.Flags().BoolVar(&o.noAnnotate, "no-annotate", false, "Hide mean and interval labels")
	cmd.Flags().Float64Var(&o.rotation, "rotation", 10, "X tick label rotation in degrees")
	cmd.Flags().Float64Var(&o.width, "width", 8, "Width in inches")
	cmd.Flags().Float64Var(&o.height, "height", 6, "Height in inches")

	return cmd
}
