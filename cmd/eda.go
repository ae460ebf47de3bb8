package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	cfgpkg "github.com/KaramelBytes/chemeda/internal/config"
	"github.com/KaramelBytes/chemeda/internal/eda"
	"github.com/KaramelBytes/chemeda/internal/utils"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	edaOutDir     string
	edaBins       int
	edaHeadRows   int
	edaDelimiter  string
	edaSummaryOut string
	edaFormat     string
)

var edaCmd = &cobra.Command{
	Use:   "eda [input.csv]",
	Short: "Print diagnostics for a compound CSV and render distribution figures",
	Long: `Loads a compound CSV (a 'smiles' column is required; 'acvalue' and 'categories'
are optional), prints its shape, head, column info and missing counts, then writes
distribution figures to the output directory and prints a summary.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := currentConfig()
		input := c.InputPath
		if len(args) == 1 {
			input = args[0]
		}
		opt, err := buildOptions(cmd, c, edaOutDir, edaBins, edaHeadRows, edaDelimiter)
		if err != nil {
			return err
		}
		format := c.SummaryFormat
		if cmd.Flags().Changed("format") {
			format = edaFormat
		}
		if err := checkFormat(format); err != nil {
			return err
		}
		sumFormat := ""
		if edaSummaryOut != "" {
			sumFormat = strings.TrimPrefix(strings.ToLower(filepath.Ext(edaSummaryOut)), ".")
			if sumFormat == "yml" {
				sumFormat = "yaml"
			}
			if sumFormat == "" || checkFormat(sumFormat) != nil {
				return fmt.Errorf("--summary-out must end in .yaml, .yml or .json: %s", edaSummaryOut)
			}
		}
		debugf(cmd, "input=%s out_dir=%s bins=%d", input, opt.OutputDir, opt.Bins)

		opt.Out = cmd.OutOrStdout()
		sum, err := eda.Run(input, opt)
		if err != nil {
			return err
		}
		b, err := encodeSummary(sum, format)
		if err != nil {
			return err
		}
		fmt.Fprintln(opt.Out, strings.TrimRight(string(b), "\n"))

		if edaSummaryOut != "" {
			fb, err := encodeSummary(sum, sumFormat)
			if err != nil {
				return err
			}
			if err := utils.SafeWriteFile(edaSummaryOut, fb); err != nil {
				return err
			}
			fmt.Fprintf(opt.Out, "✓ Wrote summary to %s\n", edaSummaryOut)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(edaCmd)
	edaCmd.Flags().StringVarP(&edaOutDir, "out-dir", "o", "", "directory for figures (default from config: reports/figures/)")
	edaCmd.Flags().IntVar(&edaBins, "bins", 0, "histogram bin count (default from config: 30)")
	edaCmd.Flags().IntVar(&edaHeadRows, "head-rows", 0, "number of leading rows to print (default from config: 5)")
	edaCmd.Flags().StringVar(&edaDelimiter, "delimiter", "", "CSV delimiter: ',', ';', or 'tab' (default auto)")
	edaCmd.Flags().StringVar(&edaSummaryOut, "summary-out", "", "also write the summary to this .yaml or .json file")
	edaCmd.Flags().StringVar(&edaFormat, "format", "yaml", "summary output format: yaml or json")
}

// buildOptions layers explicitly set flags over the loaded configuration.
func buildOptions(cmd *cobra.Command, c *cfgpkg.Global, outDir string, bins, headRows int, delimiter string) (eda.Options, error) {
	opt := eda.DefaultOptions()
	if c.OutputDir != "" {
		opt.OutputDir = c.OutputDir
	}
	if c.Bins > 0 {
		opt.Bins = c.Bins
	}
	if c.HeadRows >= 0 {
		opt.HeadRows = c.HeadRows
	}
	if c.CategoryMaxUnique > 0 {
		opt.Load.CategoryMaxUnique = c.CategoryMaxUnique
	}
	if c.FigureWidth > 0 && c.FigureHeight > 0 {
		opt.FigureWidth, opt.FigureHeight = c.FigureWidth, c.FigureHeight
	}
	delim := c.Delimiter

	f := cmd.Flags()
	if f.Changed("out-dir") {
		opt.OutputDir = outDir
	}
	if f.Changed("bins") {
		if bins <= 0 {
			return opt, fmt.Errorf("--bins must be positive")
		}
		opt.Bins = bins
	}
	if f.Changed("head-rows") {
		if headRows < 0 {
			return opt, fmt.Errorf("--head-rows must not be negative")
		}
		opt.HeadRows = headRows
	}
	if f.Changed("delimiter") {
		delim = delimiter
	}
	if delim != "" {
		r, err := parseDelimiter(delim)
		if err != nil {
			return opt, err
		}
		opt.Load.Delimiter = r
	}
	return opt, nil
}

func parseDelimiter(s string) (rune, error) {
	switch s {
	case ",":
		return ',', nil
	case "\t", "tab":
		return '\t', nil
	case ";":
		return ';', nil
	default:
		return 0, fmt.Errorf("unsupported delimiter: %s", s)
	}
}

func checkFormat(format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "yaml", "json":
		return nil
	default:
		return fmt.Errorf("unsupported format: %s (use yaml or json)", format)
	}
}

func encodeSummary(sum any, format string) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "yaml":
		return yaml.Marshal(sum)
	case "json":
		return utils.PrettyJSON(sum)
	default:
		return nil, fmt.Errorf("unsupported format: %s (use yaml or json)", format)
	}
}
