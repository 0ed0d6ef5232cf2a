package plotter

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/plot"
	gplotter "gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
)

// ErrNoGroups indicates a chart request with nothing to draw.
var ErrNoGroups = errors.New("plotter: no groups to plot")

// Option configures MeansWithCI.
type Option func(*config)

type config struct {
	order        []string
	title        string
	subtitle     string
	yLabel       string
	yLim         *[2]float64
	ciMultiplier float64
	capWidth     vg.Length
	annotate     bool
	rotation     float64 // degrees
	width        vg.Length
	height       vg.Length
}

func defaultConfig() config {
	return config{
		yLim:         &[2]float64{0, 1},
		ciMultiplier: 1.96,
		capWidth:     5 * vg.Millimeter,
		annotate:     true,
		rotation:     10,
		width:        8 * vg.Inch,
		height:       6 * vg.Inch,
	}
}

// WithOrder draws only the named groups, in that order.
func WithOrder(labels ...string) Option {
	return func(c *config) { c.order = labels }
}

// WithTitle sets the title and an optional second line.
func WithTitle(title, subtitle string) Option {
	return func(c *config) {
		c.title = title
		c.subtitle = subtitle
	}
}

// WithYLabel sets the y axis label.
func WithYLabel(label string) Option {
	return func(c *config) { c.yLabel = label }
}

// WithYLim fixes the y axis range (default: 0 to 1).
func WithYLim(lo, hi float64) Option {
	return func(c *config) { c.yLim = &[2]float64{lo, hi} }
}

// WithAutoYLim lets the y axis fit the data.
func WithAutoYLim() Option {
	return func(c *config) { c.yLim = nil }
}

// WithCIMultiplier sets the z value of the interval (default: 1.96, i.e. 95%).
func WithCIMultiplier(z float64) Option {
	return func(c *config) { c.ciMultiplier = z }
}

// WithCapWidth sets the error bar cap width.
func WithCapWidth(w vg.Length) Option {
	return func(c *config) { c.capWidth = w }
}

// WithAnnotations toggles the n and mean labels above bars (default: on).
func WithAnnotations(on bool) Option {
	return func(c *config) { c.annotate = on }
}

// WithRotation rotates the x tick labels, in degrees (default: 10).
func WithRotation(deg float64) Option {
	return func(c *config) { c.rotation = deg }
}

// WithSize sets the image size in inches (default: 8x6).
func WithSize(w, h float64) Option {
	return func(c *config) {
		if w > 0 && h > 0 {
			c.width = vg.Length(w) * vg.Inch
			c.height = vg.Length(h) * vg.Inch
		}
	}
}

// errorPoints pairs bar tops with symmetric interval half-widths.
type errorPoints struct {
	gplotter.XYs
	gplotter.YErrors
}

// MeansWithCI draws one coloured bar per group with confidence interval
// error bars and saves it to path. The image format follows the extension
// (png, svg, pdf, jpg, eps, tif).
func MeansWithCI(groups []Group, path string, opts ...Option) error {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	stats := Order(PrepareStats(groups), cfg.order)
	if len(stats) == 0 {
		return ErrNoGroups
	}

	p, err := build(stats, cfg)
	if err != nil {
		return err
	}
	if err := p.Save(cfg.width, cfg.height, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func build(stats []Stat, cfg config) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = cfg.title
	if cfg.subtitle != "" {
		p.Title.Text = cfg.title + "\n" + cfg.subtitle
	}
	p.Y.Label.Text = cfg.yLabel

	labels := make([]string, len(stats))
	points := errorPoints{
		XYs:     make(gplotter.XYs, len(stats)),
		YErrors: make(gplotter.YErrors, len(stats)),
	}
	top := 0.0
	bottom := 0.0

	for i, s := range stats {
		labels[i] = s.Label
		height := s.Mean
		if math.IsNaN(height) {
			height = 0
		}
		ci := CIHalfWidth(s, cfg.ciMultiplier)

		bar, err := gplotter.NewBarChart(gplotter.Values{height}, vg.Points(40))
		if err != nil {
			return nil, fmt.Errorf("bar %q: %w", s.Label, err)
		}
		bar.XMin = float64(i)
		bar.Color = plotutil.Color(i)
		bar.LineStyle.Width = 0
		p.Add(bar)

		points.XYs[i] = gplotter.XY{X: float64(i), Y: height}
		points.YErrors[i].Low = ci
		points.YErrors[i].High = ci
		top = math.Max(top, height+ci)
		bottom = math.Min(bottom, height-ci)
	}

	errBars, err := gplotter.NewYErrorBars(points)
	if err != nil {
		return nil, fmt.Errorf("error bars: %w", err)
	}
	errBars.CapWidth = cfg.capWidth
	p.Add(errBars)

	p.NominalX(labels...)
	if cfg.rotation != 0 {
		p.X.Tick.Label.Rotation = cfg.rotation * math.Pi / 180
		p.X.Tick.Label.XAlign = text.XRight
	}

	if cfg.yLim != nil {
		p.Y.Min, p.Y.Max = cfg.yLim[0], cfg.yLim[1]
		bottom, top = cfg.yLim[0], cfg.yLim[1]
	}

	if cfg.annotate {
		notes, err := annotations(stats, points.XYs, (top-bottom)*0.02)
		if err != nil {
			return nil, err
		}
		p.Add(notes)
	}

	return p, nil
}

func annotations(stats []Stat, tops gplotter.XYs, offset float64) (*gplotter.Labels, error) {
	xys := make(gplotter.XYs, len(stats))
	texts := make([]string, len(stats))
	for i, s := range stats {
		xys[i] = gplotter.XY{X: tops[i].X, Y: tops[i].Y + offset}
		texts[i] = AnnotationText(s)
	}

	notes, err := gplotter.NewLabels(gplotter.XYLabels{XYs: xys, Labels: texts})
	if err != nil {
		return nil, fmt.Errorf("annotations: %w", err)
	}
	for i := range notes.TextStyle {
		notes.TextStyle[i].XAlign = text.XCenter
		notes.TextStyle[i].YAlign = text.YBottom
		notes.TextStyle[i].Font.Size = vg.Points(8)
	}
	return notes, nil
}

// AnnotationText is the label drawn above a bar.
func AnnotationText(s Stat) string {
	if math.IsNaN(s.Mean) {
		return fmt.Sprintf("n=%d\nMean=NA", s.N)
	}
	return fmt.Sprintf("n=%d\nMean=%.3f", s.N, s.Mean)
}
