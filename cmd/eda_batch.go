package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/KaramelBytes/chemeda/internal/eda"
	"github.com/KaramelBytes/chemeda/internal/utils"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb"
	"github.com/vbauerster/mpb/decor"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// ManifestName is the batch manifest written into the batch output directory.
const ManifestName = "batch.yaml"

var (
	ebOutDir    string
	ebBins      int
	ebHeadRows  int
	ebDelimiter string
	ebQuiet     bool
)

type batchEntry struct {
	Input     string       `yaml:"input"`
	OutputDir string       `yaml:"output_dir"`
	Summary   *eda.Summary `yaml:"summary"`
}

type batchManifest struct {
	BatchID   string       `yaml:"batch_id"`
	CreatedAt time.Time    `yaml:"created_at"`
	Datasets  []batchEntry `yaml:"datasets"`
}

var edaBatchCmd = &cobra.Command{
	Use:   "eda-batch <files...>",
	Short: "Run EDA over multiple compound CSVs with progress and a batch manifest",
	Long: `Runs the same analysis as 'eda' for every file matched by the given paths or
glob patterns. Figures for each file go to <out-dir>/<file stem>/ and a batch.yaml
manifest listing every summary is written to <out-dir>.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := expandInputs(args)
		if err != nil {
			return err
		}
		opt, err := buildOptions(cmd, currentConfig(), ebOutDir, ebBins, ebHeadRows, ebDelimiter)
		if err != nil {
			return err
		}
		root := opt.OutputDir
		out := cmd.OutOrStdout()
		if ebQuiet {
			out = io.Discard
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		var (
			p   *mpb.Progress
			bar *mpb.Bar
		)
		if !ebQuiet {
			p = mpb.New(mpb.WithWidth(progressWidth()), mpb.WithOutput(cmd.ErrOrStderr()), mpb.WithContext(ctx))
			bar = p.AddBar(int64(len(files)),
				mpb.AppendDecorators(decor.AverageETA(decor.ET_STYLE_GO)),
				mpb.PrependDecorators(decor.Name("eda")),
				mpb.PrependDecorators(decor.CountersNoUnit("%d/%d", decor.WCSyncSpace)),
				mpb.BarRemoveOnComplete())
		}
		// An incomplete bar would block Wait, so failures only cancel rendering.
		finish := func(failed bool) {
			if p == nil {
				return
			}
			if failed {
				cancel()
				return
			}
			p.Wait()
		}

		m := batchManifest{BatchID: uuid.NewString(), CreatedAt: time.Now().UTC()}
		used := map[string]int{}
		start := time.Now()
		for i, path := range files {
			dir := filepath.Join(root, uniqueStem(used, utils.StemName(path)))
			fmt.Fprintf(out, "[%d/%d] Processing %s...\n", i+1, len(files), filepath.Base(path))
			debugf(cmd, "output dir for %s: %s", path, dir)

			run := opt
			run.OutputDir = dir
			run.Out = out
			sum, err := eda.Run(path, run)
			if err != nil {
				finish(true)
				return fmt.Errorf("%s: %w", path, err)
			}
			m.Datasets = append(m.Datasets, batchEntry{Input: path, OutputDir: dir, Summary: sum})
			if bar != nil {
				bar.IncrBy(1, time.Since(start))
			}
		}
		finish(false)

		b, err := yaml.Marshal(m)
		if err != nil {
			return fmt.Errorf("marshal manifest: %w", err)
		}
		if err := utils.EnsureDir(root); err != nil {
			return err
		}
		manifest := filepath.Join(root, ManifestName)
		if err := utils.SafeWriteFile(manifest, b); err != nil {
			return err
		}
		if !ebQuiet {
			fmt.Fprintf(out, "✓ Processed %d file(s); manifest %s (batch %s)\n", len(files), manifest, m.BatchID)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(edaBatchCmd)
	edaBatchCmd.Flags().StringVarP(&ebOutDir, "out-dir", "o", "", "root directory for per-file figures and the manifest (default from config: reports/figures/)")
	edaBatchCmd.Flags().IntVar(&ebBins, "bins", 0, "histogram bin count (default from config: 30)")
	edaBatchCmd.Flags().IntVar(&ebHeadRows, "head-rows", 0, "number of leading rows to print (default from config: 5)")
	edaBatchCmd.Flags().StringVar(&ebDelimiter, "delimiter", "", "CSV delimiter: ',', ';', or 'tab' (default auto)")
	edaBatchCmd.Flags().BoolVar(&ebQuiet, "quiet", false, "suppress diagnostics and the progress bar")
}

// expandInputs resolves globs and literal paths into a sorted, de-duplicated file list.
func expandInputs(args []string) ([]string, error) {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", arg, err)
		}
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files matched")
	}
	sort.Strings(files)
	return files, nil
}

// uniqueStem appends __2, __3, ... to stems already used in this batch.
func uniqueStem(used map[string]int, stem string) string {
	used[stem]++
	if n := used[stem]; n > 1 {
		return fmt.Sprintf("%s__%d", stem, n)
	}
	return stem
}

func progressWidth() int {
	w, _, err := term.GetSize(int(os.Stderr.Fd()))
	if err != nil || w <= 0 {
		return 64
	}
	if w > 100 {
		return 100
	}
	return w
}
