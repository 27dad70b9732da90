package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	Input     string `mapstructure:"input" yaml:"input"`
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`

	// Charts
	ChartsDir     string `mapstructure:"charts_dir" yaml:"charts_dir"`
	ChartFormat   string `mapstructure:"chart_format" yaml:"chart_format"`
	ChartsEnabled bool   `mapstructure:"charts_enabled" yaml:"charts_enabled"`
	HistBins      int    `mapstructure:"hist_bins" yaml:"hist_bins"`

	// Intermediate CSV artifacts
	ArtifactsEnabled  bool   `mapstructure:"artifacts_enabled" yaml:"artifacts_enabled"`
	ArtifactsCompress bool   `mapstructure:"artifacts_compress" yaml:"artifacts_compress"`
	FilteredFile      string `mapstructure:"filtered_file" yaml:"filtered_file"`
	ProcessedFile     string `mapstructure:"processed_file" yaml:"processed_file"`

	ReportPath string `mapstructure:"report_path" yaml:"report_path"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

const (
	DefaultInput         = "alzheimers_disease_data.csv"
	DefaultFilteredFile  = "filtered_alzheimers_data.csv"
	DefaultProcessedFile = "processed_alzheimers_data.csv"
)

var defaults = map[string]interface{}{
	"input":              DefaultInput,
	"output_dir":         ".",
	"charts_dir":         "",
	"chart_format":       "png",
	"charts_enabled":     true,
	"hist_bins":          20,
	"artifacts_enabled":  true,
	"artifacts_compress": false,
	"filtered_file":      DefaultFilteredFile,
	"processed_file":     DefaultProcessedFile,
	"report_path":        "",
	"log_level":          "info",
	"log_format":         "console",
}

// Keys lists the settable configuration keys in sorted order.
func Keys() []string {
	out := make([]string, 0, len(defaults))
	for k := range defaults {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Path resolves the config file location, ~/.cohortscope/config.yaml unless
// cfgFile is given.
func Path(cfgFile string) (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".cohortscope", "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path, creating the
// directory if necessary.
func Save(c *Global, cfgFile string) error {
	path, err := Path(cfgFile)
	if err != nil {
		return err
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
// Precedence: flags (applied by the caller) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("COHORTSCOPE")
	v.AutomaticEnv()

	for k, d := range defaults {
		v.SetDefault(k, d)
	}

	path, err := Path(cfgFile)
	if err != nil {
		return nil, err
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		// a missing file is fine, a broken one is not
		if _, statErr := os.Stat(path); statErr == nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks enumerated and numeric settings.
func (c *Global) Validate() error {
	switch c.ChartFormat {
	case "png", "svg":
	default:
		return fmt.Errorf("chart_format must be png or svg, got %q", c.ChartFormat)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("log_format must be console or json, got %q", c.LogFormat)
	}
	if c.HistBins < 1 {
		return fmt.Errorf("hist_bins must be positive, got %d", c.HistBins)
	}
	return nil
}

// ResolvedChartsDir returns charts_dir, defaulting to "charts" under output_dir.
func (c *Global) ResolvedChartsDir() string {
	if c.ChartsDir != "" {
		return c.ChartsDir
	}
	return filepath.Join(c.OutputDir, "charts")
}

// Set assigns a single key from its string form. c is left unchanged when the
// result would not validate.
func (c *Global) Set(key, value string) error {
	next := *c
	if err := next.set(key, value); err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

func (c *Global) set(key, value string) error {
	parseBool := func() (bool, error) {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return false, fmt.Errorf("%s expects true/false: %w", key, err)
		}
		return b, nil
	}
	var err error
	switch strings.ToLower(key) {
	case "input":
		c.Input = value
	case "output_dir":
		c.OutputDir = value
	case "charts_dir":
		c.ChartsDir = value
	case "chart_format":
		c.ChartFormat = value
	case "charts_enabled":
		c.ChartsEnabled, err = parseBool()
	case "hist_bins":
		c.HistBins, err = strconv.Atoi(value)
		if err != nil {
			err = fmt.Errorf("hist_bins expects an integer: %w", err)
		}
	case "artifacts_enabled":
		c.ArtifactsEnabled, err = parseBool()
	case "artifacts_compress":
		c.ArtifactsCompress, err = parseBool()
	case "filtered_file":
		c.FilteredFile = value
	case "processed_file":
		c.ProcessedFile = value
	case "report_path":
		c.ReportPath = value
	case "log_level":
		c.LogLevel = value
	case "log_format":
		c.LogFormat = value
	default:
		return fmt.Errorf("unknown config key %q (known: %s)", key, strings.Join(Keys(), ", "))
	}
	return err
}
