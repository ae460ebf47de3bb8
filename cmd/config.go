package cmd

import (
	"fmt"
	"strconv"
	"strings"

	cfgpkg "github.com/KaramelBytes/chemeda/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set chemeda configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if cfg == nil {
			fmt.Fprintln(out, "No config loaded")
			return nil
		}
		fmt.Fprintf(out, "input_path: %s\n", cfg.InputPath)
		fmt.Fprintf(out, "output_dir: %s\n", cfg.OutputDir)
		fmt.Fprintf(out, "bins: %d\n", cfg.Bins)
		fmt.Fprintf(out, "head_rows: %d\n", cfg.HeadRows)
		if cfg.Delimiter != "" {
			fmt.Fprintf(out, "delimiter: %q\n", cfg.Delimiter)
		}
		fmt.Fprintf(out, "category_max_unique: %d\n", cfg.CategoryMaxUnique)
		fmt.Fprintf(out, "summary_format: %s\n", cfg.SummaryFormat)
		fmt.Fprintf(out, "figure_width: %d\n", cfg.FigureWidth)
		fmt.Fprintf(out, "figure_height: %d\n", cfg.FigureHeight)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		switch key {
		case "input_path":
			cfg.InputPath = val
		case "output_dir":
			cfg.OutputDir = val
		case "bins":
			n, err := positiveInt(key, val)
			if err != nil {
				return err
			}
			cfg.Bins = n
		case "head_rows":
			n, err := strconv.Atoi(val)
			if err != nil || n < 0 {
				return fmt.Errorf("invalid head_rows: %s", val)
			}
			cfg.HeadRows = n
		case "delimiter":
			if _, err := parseDelimiter(val); err != nil {
				return err
			}
			cfg.Delimiter = val
		case "category_max_unique":
			n, err := positiveInt(key, val)
			if err != nil {
				return err
			}
			cfg.CategoryMaxUnique = n
		case "summary_format":
			f := strings.ToLower(strings.TrimSpace(val))
			if f != "yaml" && f != "json" {
				return fmt.Errorf("invalid summary_format: %s (use yaml or json)", val)
			}
			cfg.SummaryFormat = f
		case "figure_width":
			n, err := positiveInt(key, val)
			if err != nil {
				return err
			}
			cfg.FigureWidth = n
		case "figure_height":
			n, err := positiveInt(key, val)
			if err != nil {
				return err
			}
			cfg.FigureHeight = n
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func positiveInt(key, val string) (int, error) {
	n, err := strconv.Atoi(val)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: %s (must be a positive integer)", key, val)
	}
	return n, nil
}
