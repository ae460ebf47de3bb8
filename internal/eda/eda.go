// Package eda runs exploratory data analysis over a compound dataset: it
// prints diagnostics, renders distribution figures and returns a summary.
package eda

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/KaramelBytes/chemeda/internal/analysis"
	"github.com/KaramelBytes/chemeda/internal/dataset"
	"github.com/KaramelBytes/chemeda/internal/figure"
	"github.com/KaramelBytes/chemeda/internal/utils"
)

// Figure file names written to the output directory.
const (
	ActivityFigure     = "acvalue_distribution.png"
	CategoryFigure     = "category_distribution.png"
	SMILESLengthFigure = "smiles_length_distribution.png"
)

// DefaultOutputDir is where figures go when Options.OutputDir is empty.
const DefaultOutputDir = "reports/figures/"

// Options controls a run. The zero value is usable; see DefaultOptions.
type Options struct {
	OutputDir string
	// Bins is the histogram bin count.
	Bins int
	// HeadRows is how many leading rows are printed.
	HeadRows int
	// Out receives diagnostics. Nil means os.Stdout.
	Out  io.Writer
	Load dataset.LoadOptions
	// Histogram canvas size in pixels.
	FigureWidth  int
	FigureHeight int
	// Count plot canvas size in pixels.
	CountWidth  int
	CountHeight int
}

// DefaultOptions returns the defaults for a run.
func DefaultOptions() Options {
	return Options{
		OutputDir:    DefaultOutputDir,
		Bins:         30,
		HeadRows:     5,
		Load:         dataset.DefaultLoadOptions(),
		FigureWidth:  600,
		FigureHeight: 400,
		CountWidth:   500,
		CountHeight:  400,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.OutputDir == "" {
		o.OutputDir = d.OutputDir
	}
	if o.Bins <= 0 {
		o.Bins = d.Bins
	}
	if o.HeadRows < 0 {
		o.HeadRows = d.HeadRows
	}
	if o.Out == nil {
		o.Out = os.Stdout
	}
	if o.FigureWidth <= 0 || o.FigureHeight <= 0 {
		o.FigureWidth, o.FigureHeight = d.FigureWidth, d.FigureHeight
	}
	if o.CountWidth <= 0 || o.CountHeight <= 0 {
		o.CountWidth, o.CountHeight = d.CountWidth, d.CountHeight
	}
	return o
}

// Summary is the programmatic result of a run.
type Summary struct {
	NRows   int            `json:"n_rows" yaml:"n_rows"`
	NCols   int            `json:"n_cols" yaml:"n_cols"`
	Missing map[string]int `json:"missing" yaml:"missing"`
	// Categories is nil when the dataset has no categories column.
	Categories map[string]int `json:"categories,omitempty" yaml:"categories,omitempty"`
	// ActivityStats is nil when the dataset has no acvalue column.
	ActivityStats *analysis.Stats `json:"acvalue_stats" yaml:"acvalue_stats"`
}

// Run loads inputPath, prints diagnostics to opt.Out, writes figures into
// opt.OutputDir and returns the summary. Input and schema errors are
// returned before any directory or figure is written.
func Run(inputPath string, opt Options) (*Summary, error) {
	opt = opt.withDefaults()

	tab, err := dataset.Load(inputPath, opt.Load)
	if err != nil {
		return nil, err
	}
	schema, err := tab.ResolveSchema()
	if err != nil {
		return nil, err
	}
	nrows, ncols := tab.Rows(), tab.Cols()
	missing := analysis.MissingCounts(tab)

	p := analysis.NewPrinter(opt.Out)
	p.Shape(tab)
	p.Head(tab, opt.HeadRows)
	p.Info(tab)
	p.Missing(tab)

	var (
		activity   *dataset.Column
		actStats   *analysis.Stats
		categories *dataset.Column
		catCounts  []analysis.CategoryCount
	)
	if schema.HasActivity {
		activity, _ = tab.Column(dataset.ColActivity)
		s := analysis.Describe(activity.Floats())
		actStats = &s
		p.Describe(dataset.ColActivity, s)
	}
	if schema.HasCategories {
		categories, _ = tab.Column(dataset.ColCategories)
		catCounts = analysis.ValueCounts(categories)
		p.Categories(analysis.Unique(categories), catCounts)
	}

	if err := utils.EnsureDir(opt.OutputDir); err != nil {
		return nil, err
	}

	if schema.HasActivity {
		err := drawHistogram(opt, filepath.Join(opt.OutputDir, ActivityFigure), figure.Histogram{
			Title:   "Activity value distribution (acvalue)",
			XLabel:  dataset.ColActivity,
			YLabel:  "Count",
			Values:  activity.Floats(),
			Bins:    opt.Bins,
			Density: true,
		})
		if err != nil {
			return nil, err
		}
	}
	if schema.HasCategories {
		err := drawCountPlot(opt, filepath.Join(opt.OutputDir, CategoryFigure), figure.CountPlot{
			Title:  "Compound category distribution",
			XLabel: "Category",
			YLabel: "Count",
			Counts: catCounts,
		})
		if err != nil {
			return nil, err
		}
	}

	smiles, err := tab.MustColumn(dataset.ColSMILES)
	if err != nil {
		return nil, err
	}
	lengths := dataset.SMILESLength(smiles)
	if err := tab.AppendColumn(lengths); err != nil {
		return nil, err
	}
	err = drawHistogram(opt, filepath.Join(opt.OutputDir, SMILESLengthFigure), figure.Histogram{
		Title:   "SMILES length distribution",
		XLabel:  "SMILES length",
		YLabel:  "Count",
		Values:  lengths.Floats(),
		Bins:    opt.Bins,
		Density: true,
	})
	if err != nil {
		return nil, err
	}

	p.Done(opt.OutputDir)

	sum := &Summary{
		NRows:         nrows,
		NCols:         ncols,
		Missing:       missing,
		ActivityStats: actStats,
	}
	if schema.HasCategories {
		sum.Categories = analysis.CountsMap(catCounts)
	}
	return sum, nil
}

// drawHistogram acquires a canvas, draws, saves and releases it.
func drawHistogram(opt Options, path string, h figure.Histogram) error {
	f := figure.New(opt.FigureWidth, opt.FigureHeight)
	defer f.Close()
	if err := f.Histogram(h); err != nil {
		return fmt.Errorf("render %s: %w", filepath.Base(path), err)
	}
	if err := f.Save(path); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// drawCountPlot acquires a canvas, draws, saves and releases it.
func drawCountPlot(opt Options, path string, c figure.CountPlot) error {
	f := figure.New(opt.CountWidth, opt.CountHeight)
	defer f.Close()
	if err := f.CountPlot(c); err != nil {
		return fmt.Errorf("render %s: %w", filepath.Base(path), err)
	}
	if err := f.Save(path); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
