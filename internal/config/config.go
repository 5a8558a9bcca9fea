// Package config loads the pipeline configuration file and the environment
// connection settings.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"fx-calendar-lab/internal/direction"
	"fx-calendar-lab/internal/domain"
	"fx-calendar-lab/internal/ingestion"
	"fx-calendar-lab/internal/projection"
	"fx-calendar-lab/internal/signalfilter"
	"fx-calendar-lab/internal/timeresolve"
)

// InputConfig names one calendar file to ingest.
type InputConfig struct {
	Source string `yaml:"source"` // csv, ffhtml, ffjson, tejson
	Path   string `yaml:"path"`
	Year   int    `yaml:"year,omitempty"` // calendar year for ffhtml day labels
}

// PipelineConfig is the YAML pipeline configuration.
type PipelineConfig struct {
	Inputs     []InputConfig     `yaml:"inputs"`
	Pairs      []string          `yaml:"pairs"`
	ImpactMin  int               `yaml:"impact_min"`
	ZMin       float64           `yaml:"z_min"`
	Sessions   []string          `yaml:"sessions"`
	Windows    string            `yaml:"windows"`
	Bucket     string            `yaml:"bucket"`
	TieBreak   string            `yaml:"tie_break"`
	MinGap     string            `yaml:"min_gap"`
	MinSamples int               `yaml:"min_samples"`
	Timezones  map[string]string `yaml:"timezones"`
	RulesCSV   string            `yaml:"rules_csv"`
	Years      string            `yaml:"years"` // "2012-2024", "2015" or empty for all
}

// Default returns the documented defaults.
func Default() *PipelineConfig {
	return &PipelineConfig{
		Pairs:      append([]string(nil), projection.DefaultPairs...),
		Bucket:     "1m",
		TieBreak:   string(signalfilter.TieBreakImpactFirst),
		MinGap:     "0s",
		MinSamples: domain.DefaultMinSamples,
	}
}

// Load reads a YAML file over the defaults and validates it.
func Load(path string) (*PipelineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*PipelineConfig, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: parse config: %v", domain.ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate resolves every setting that can fail so configuration errors surface
// before any processing starts.
func (c *PipelineConfig) Validate() error {
	if _, err := c.PairList(); err != nil {
		return err
	}
	if _, err := c.FilterConfig(); err != nil {
		return err
	}
	if c.MinSamples < 2 {
		return fmt.Errorf("%w: min_samples must be >= 2, got %d", domain.ErrInvalidConfig, c.MinSamples)
	}
	if _, _, err := c.YearRange(); err != nil {
		return err
	}
	if _, err := timeresolve.NewResolver(c.Timezones); err != nil {
		return err
	}
	for i, in := range c.Inputs {
		if strings.TrimSpace(in.Path) == "" {
			return fmt.Errorf("%w: inputs[%d] has no path", domain.ErrInvalidConfig, i)
		}
		if _, err := ingestion.ParserFor(in.Source, in.Year); err != nil {
			return fmt.Errorf("inputs[%d]: %w", i, err)
		}
	}
	return nil
}

// PairList returns the validated, uppercased pair universe.
func (c *PipelineConfig) PairList() ([]string, error) {
	if len(c.Pairs) == 0 {
		return append([]string(nil), projection.DefaultPairs...), nil
	}
	return projection.ValidatePairs(c.Pairs)
}

// FilterConfig resolves sessions, windows, durations and the tie-break policy.
func (c *PipelineConfig) FilterConfig() (signalfilter.Config, error) {
	fc := signalfilter.DefaultConfig()
	fc.MinImpact = c.ImpactMin
	fc.MinAbsZ = c.ZMin

	sessions, err := signalfilter.ResolveSessions(c.Sessions)
	if err != nil {
		return fc, err
	}
	windows, err := signalfilter.ParseWindows(c.Windows)
	if err != nil {
		return fc, err
	}
	fc.Windows = append(sessions, windows...)

	if fc.Bucket, err = parseDuration("bucket", c.Bucket, time.Minute); err != nil {
		return fc, err
	}
	if fc.MinGap, err = parseDuration("min_gap", c.MinGap, 0); err != nil {
		return fc, err
	}
	if fc.TieBreak, err = signalfilter.ParseTieBreak(c.TieBreak); err != nil {
		return fc, err
	}
	return fc, fc.Validate()
}

// YearRange returns the inclusive local-year bounds; 0, 0 means unbounded.
func (c *PipelineConfig) YearRange() (from, to int, err error) {
	s := strings.TrimSpace(c.Years)
	if s == "" {
		return 0, 0, nil
	}
	a, b, isRange := strings.Cut(s, "-")
	if from, err = strconv.Atoi(strings.TrimSpace(a)); err != nil {
		return 0, 0, fmt.Errorf("%w: years %q", domain.ErrInvalidConfig, c.Years)
	}
	to = from
	if isRange {
		if to, err = strconv.Atoi(strings.TrimSpace(b)); err != nil {
			return 0, 0, fmt.Errorf("%w: years %q", domain.ErrInvalidConfig, c.Years)
		}
	}
	if from > to {
		return 0, 0, fmt.Errorf("%w: years %q is reversed", domain.ErrInvalidConfig, c.Years)
	}
	return from, to, nil
}

// Classifier returns the external rule table when rules_csv is set, otherwise
// the built-in table.
func (c *PipelineConfig) Classifier() (*direction.Classifier, error) {
	if strings.TrimSpace(c.RulesCSV) == "" {
		return direction.Builtin(), nil
	}
	rules, err := direction.LoadRulesFile(c.RulesCSV)
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("%w: rules csv %s has no rules", domain.ErrInvalidConfig, c.RulesCSV)
	}
	return direction.NewClassifier(rules), nil
}

// Resolver returns the time resolver with the configured zone overrides.
func (c *PipelineConfig) Resolver() (*timeresolve.Resolver, error) {
	return timeresolve.NewResolver(c.Timezones)
}

// IngestInputs builds the ingestion inputs of the configured files.
func (c *PipelineConfig) IngestInputs() ([]ingestion.Input, error) {
	inputs := make([]ingestion.Input, 0, len(c.Inputs))
	for _, in := range c.Inputs {
		p, err := ingestion.ParserFor(in.Source, in.Year)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, ingestion.Input{Location: in.Path, Parser: p})
	}
	return inputs, nil
}

func parseDuration(name, s string, def time.Duration) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	if s == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q: %v", domain.ErrInvalidConfig, name, s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: %s must be >= 0, got %s", domain.ErrInvalidConfig, name, s)
	}
	return d, nil
}

// LoadOrDefault loads path, or returns validated defaults when path is empty.
func LoadOrDefault(path string) (*PipelineConfig, error) {
	if strings.TrimSpace(path) == "" {
		cfg := Default()
		return cfg, cfg.Validate()
	}
	return Load(path)
}
