package figure

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"github.com/KaramelBytes/chemeda/internal/analysis"
	"github.com/KaramelBytes/chemeda/internal/utils"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var (
	// ErrClosed is returned when a released figure is used again.
	ErrClosed = errors.New("figure: closed")
	// ErrNotDrawn is returned when saving a figure that has no content.
	ErrNotDrawn = errors.New("figure: nothing drawn")
)

var (
	barColor  = drawing.ColorFromHex("4c72b0")
	lineColor = drawing.ColorFromHex("2a4a7f")
)

// Histogram describes a histogram with an optional density overlay.
type Histogram struct {
	Title  string
	XLabel string
	YLabel string
	Values []float64
	Bins   int
	// Density overlays a kernel density estimate scaled to counts.
	Density bool
}

// CountPlot describes a bar chart of label frequencies.
type CountPlot struct {
	Title  string
	XLabel string
	YLabel string
	Counts []analysis.CategoryCount
}

// Figure is a single drawing canvas. Draw once, Save, then Close.
type Figure struct {
	Width  int
	Height int
	buf    *bytes.Buffer
	drawn  bool
}

// New acquires a canvas of the given pixel size.
func New(width, height int) *Figure {
	return &Figure{Width: width, Height: height, buf: new(bytes.Buffer)}
}

// Histogram draws h onto the figure, replacing any earlier drawing.
func (f *Figure) Histogram(h Histogram) error {
	if f.buf == nil {
		return ErrClosed
	}
	bins := Bins(h.Values, h.Bins)
	xs := make([]float64, len(bins))
	ys := make([]float64, len(bins))
	ymax := 0.0
	for i, b := range bins {
		xs[i] = b.Center()
		ys[i] = float64(b.Count)
		ymax = math.Max(ymax, ys[i])
	}
	lo, hi := bins[0].From, bins[len(bins)-1].To

	series := []chart.Series{
		chart.HistogramSeries{
			Name: "count",
			Style: chart.Style{
				StrokeColor: drawing.ColorWhite,
				StrokeWidth: 1,
				FillColor:   barColor.WithAlpha(180),
			},
			InnerSeries: chart.ContinuousSeries{XValues: xs, YValues: ys},
		},
	}
	if h.Density {
		grid := linspace(lo, hi, 200)
		if pdf := Density(h.Values, grid); pdf != nil {
			// Scale density to the count axis.
			scale := float64(len(h.Values)) * bins[0].Width()
			for i := range pdf {
				pdf[i] *= scale
				ymax = math.Max(ymax, pdf[i])
			}
			series = append(series, chart.ContinuousSeries{
				Name:    "density",
				Style:   chart.Style{StrokeColor: lineColor, StrokeWidth: 2},
				XValues: grid,
				YValues: pdf,
			})
		}
	}

	c := chart.Chart{
		Title:      h.Title,
		Width:      f.Width,
		Height:     f.Height,
		Background: chart.Style{Padding: chart.Box{Top: 48, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Name: h.XLabel, Range: &chart.ContinuousRange{Min: lo, Max: hi}},
		YAxis:      chart.YAxis{Name: h.YLabel, Range: &chart.ContinuousRange{Min: 0, Max: axisMax(ymax)}},
		Series:     series,
	}
	return f.render(c)
}

// CountPlot draws p onto the figure, replacing any earlier drawing.
func (f *Figure) CountPlot(p CountPlot) error {
	if f.buf == nil {
		return ErrClosed
	}
	bars := make([]chart.Value, 0, len(p.Counts))
	ymax := 0.0
	for _, kv := range p.Counts {
		bars = append(bars, chart.Value{
			Label: kv.Value,
			Value: float64(kv.Count),
			Style: chart.Style{FillColor: barColor, StrokeColor: barColor, StrokeWidth: 1},
		})
		ymax = math.Max(ymax, float64(kv.Count))
	}
	if len(bars) == 0 {
		bars = append(bars, chart.Value{Label: "(no data)", Value: 0})
	}
	barWidth := (f.Width - 120) * 2 / (3 * len(bars))
	if barWidth > 60 {
		barWidth = 60
	}
	if barWidth < 2 {
		barWidth = 2
	}

	c := chart.BarChart{
		Title:      titleWithLabels(p.Title, p.XLabel, p.YLabel),
		Width:      f.Width,
		Height:     f.Height,
		BarWidth:   barWidth,
		BarSpacing: barWidth / 2,
		Background: chart.Style{Padding: chart.Box{Top: 48, Left: 16, Right: 16, Bottom: 16}},
		YAxis:      chart.YAxis{Name: p.YLabel, Range: &chart.ContinuousRange{Min: 0, Max: axisMax(ymax)}},
		Bars:       bars,
	}
	f.buf.Reset()
	if err := c.Render(chart.PNG, f.buf); err != nil {
		return fmt.Errorf("render count plot: %w", err)
	}
	f.drawn = true
	return nil
}

func (f *Figure) render(c chart.Chart) error {
	f.buf.Reset()
	if err := c.Render(chart.PNG, f.buf); err != nil {
		return fmt.Errorf("render histogram: %w", err)
	}
	f.drawn = true
	return nil
}

// Bytes returns the encoded PNG of the current drawing.
func (f *Figure) Bytes() ([]byte, error) {
	if f.buf == nil {
		return nil, ErrClosed
	}
	if !f.drawn {
		return nil, ErrNotDrawn
	}
	return f.buf.Bytes(), nil
}

// Save writes the PNG to path, replacing any existing file.
func (f *Figure) Save(path string) error {
	b, err := f.Bytes()
	if err != nil {
		return err
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return fmt.Errorf("save figure: %w", err)
	}
	return nil
}

// Close releases the canvas. Closing twice is a no-op.
func (f *Figure) Close() error {
	f.buf = nil
	f.drawn = false
	return nil
}

// axisMax leaves headroom above the tallest bar.
func axisMax(v float64) float64 {
	if v <= 0 {
		return 1
	}
	return v * 1.1
}

// titleWithLabels folds axis labels into the title; bar charts have no axis names.
func titleWithLabels(title, x, y string) string {
	if x == "" || y == "" {
		return title
	}
	return fmt.Sprintf("%s (%s vs %s)", title, y, x)
}
