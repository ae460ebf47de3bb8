package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultInputPath is the dataset read when no input is given.
const DefaultInputPath = "data/raw/dataset.csv"

// Global configuration structure.
type Global struct {
	InputPath         string `mapstructure:"input_path" yaml:"input_path"`
	OutputDir         string `mapstructure:"output_dir" yaml:"output_dir"`
	Bins              int    `mapstructure:"bins" yaml:"bins"`
	HeadRows          int    `mapstructure:"head_rows" yaml:"head_rows"`
	Delimiter         string `mapstructure:"delimiter" yaml:"delimiter"`
	CategoryMaxUnique int    `mapstructure:"category_max_unique" yaml:"category_max_unique"`
	SummaryFormat     string `mapstructure:"summary_format" yaml:"summary_format"`

	// Figure sizes in pixels
	FigureWidth  int `mapstructure:"figure_width" yaml:"figure_width"`
	FigureHeight int `mapstructure:"figure_height" yaml:"figure_height"`
}

// Defaults returns the built-in configuration.
func Defaults() *Global {
	return &Global{
		InputPath:         DefaultInputPath,
		OutputDir:         "reports/figures/",
		Bins:              30,
		HeadRows:          5,
		CategoryMaxUnique: 50,
		SummaryFormat:     "yaml",
		FigureWidth:       600,
		FigureHeight:      400,
	}
}

// DefaultPath returns ~/.chemeda/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".chemeda", "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.chemeda/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. A missing config file is not an error.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("CHEMEDA")
	v.AutomaticEnv()

	d := Defaults()
	v.SetDefault("input_path", d.InputPath)
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("bins", d.Bins)
	v.SetDefault("head_rows", d.HeadRows)
	v.SetDefault("delimiter", d.Delimiter)
	v.SetDefault("category_max_unique", d.CategoryMaxUnique)
	v.SetDefault("summary_format", d.SummaryFormat)
	v.SetDefault("figure_width", d.FigureWidth)
	v.SetDefault("figure_height", d.FigureHeight)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(filepath.Dir(p))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}
