package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/blob-detector-mcp/internal/detector"
	"github.com/ironsheep/blob-detector-mcp/internal/filter"
	"github.com/ironsheep/blob-detector-mcp/internal/imaging"
	"github.com/ironsheep/blob-detector-mcp/internal/threshold"
)

// EnvConfigPath names the environment variable holding the default
// configuration file path.
const EnvConfigPath = "BLOB_MCP_CONFIG"

// maxFileSize bounds configuration files read from disk.
const maxFileSize = 1 * 1024 * 1024 // 1MB

// Attributes are the free-form parameters of a threshold policy record.
type Attributes map[string]any

// Config is the persisted description of a detector.
type Config struct {
	// Threshold selects the threshold policy and its parameters.
	Threshold ThresholdSpec `yaml:"threshold" json:"threshold"`

	// MinDistBetweenObjects is the distance below which candidates of
	// different levels are merged.
	MinDistBetweenObjects float64 `yaml:"minDistBetweenObjects" json:"minDistBetweenObjects"`

	// Filters run in the listed order.
	Filters []FilterSpec `yaml:"filters" json:"filters"`

	// Gray selects the color to gray conversion: "luma" (default) or
	// "lightness".
	Gray string `yaml:"gray,omitempty" json:"gray,omitempty"`
}

// ThresholdSpec names a threshold policy. Every key besides type is passed to
// the policy constructor.
type ThresholdSpec struct {
	Type       string     `yaml:"type" json:"type"`
	Attributes Attributes `yaml:",inline" json:"attributes,omitempty"`
}

// FilterSpec names a filter and its inclusive acceptance interval.
type FilterSpec struct {
	Type string  `yaml:"type" json:"type"`
	Min  float64 `yaml:"min" json:"min"`
	Max  float64 `yaml:"max" json:"max"`
}

// Default returns the demo configuration: Otsu thresholding, objects at least
// 10 pixels apart, areas between 2000 and 20000 and circularity above 0.8.
func Default() *Config {
	return &Config{
		Threshold: ThresholdSpec{
			Type:       threshold.OtsuName,
			Attributes: Attributes{"minRepeatability": 1},
		},
		MinDistBetweenObjects: detector.DefaultMinDistBetweenObjects,
		Filters: []FilterSpec{
			{Type: filter.AreaName, Min: 2000, Max: 20000},
			{Type: filter.CircularityName, Min: 0.8, Max: 1.0},
		},
	}
}

// Load reads and validates a YAML configuration file. The file must have a
// .yaml or .yml extension and be at most 1MB.
func Load(path string, reg *Registry) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if err := checkExtension(cleanPath); err != nil {
		return nil, err
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data, reg)
}

// LoadFromEnv loads the file named by BLOB_MCP_CONFIG, or returns Default when
// the variable is unset.
func LoadFromEnv(reg *Registry) (*Config, error) {
	path := os.Getenv(EnvConfigPath)
	if path == "" {
		return Default(), nil
	}
	return Load(path, reg)
}

// Parse decodes and validates a YAML configuration document. Unknown top-level
// or filter keys are rejected.
func Parse(data []byte, reg *Registry) (*Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	cfg := &Config{}
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	if err := cfg.Validate(reg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate builds every record with reg and reports all failures at once.
func (c *Config) Validate(reg *Registry) error {
	_, _, err := c.build(reg)
	return err
}

func (c *Config) build(reg *Registry) (threshold.Policy, []filter.Filter, error) {
	var errs error

	if c.Threshold.Type == "" {
		errs = multierr.Append(errs, errors.New("threshold: type is required"))
	}
	policy, err := reg.Policy(c.Threshold)
	if c.Threshold.Type != "" && err != nil {
		errs = multierr.Append(errs, err)
	}

	if c.MinDistBetweenObjects < 0 {
		errs = multierr.Append(errs, fmt.Errorf("minDistBetweenObjects must not be negative, got %g", c.MinDistBetweenObjects))
	}
	if _, err := imaging.ParseGrayMode(c.Gray); err != nil {
		errs = multierr.Append(errs, err)
	}

	filters := make([]filter.Filter, 0, len(c.Filters))
	for i, spec := range c.Filters {
		f, err := reg.Filter(spec)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("filters[%d]: %w", i, err))
			continue
		}
		filters = append(filters, f)
	}

	if errs != nil {
		return nil, nil, errs
	}
	return policy, filters, nil
}

// Build returns a detector configured from c. Additional options, such as a
// logger, are applied after the configured ones.
func (c *Config) Build(reg *Registry, opts ...detector.Option) (*detector.Detector, error) {
	policy, filters, err := c.build(reg)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	mode, _ := imaging.ParseGrayMode(c.Gray)

	base := []detector.Option{
		detector.WithPolicy(policy),
		detector.WithFilters(filters...),
		detector.WithMinDistBetweenObjects(c.MinDistBetweenObjects),
		detector.WithGrayscale(imaging.GrayConverter(mode)),
	}
	return detector.New(append(base, opts...)...), nil
}

// FromDetector describes the current configuration of d.
func FromDetector(d *detector.Detector) (*Config, error) {
	cfg := &Config{MinDistBetweenObjects: d.MinDistBetweenObjects()}

	spec, err := describePolicy(d.Policy())
	if err != nil {
		return nil, err
	}
	cfg.Threshold = spec

	for _, f := range d.Filters() {
		min, max := f.Bounds()
		cfg.Filters = append(cfg.Filters, FilterSpec{Type: f.Name(), Min: min, Max: max})
	}
	return cfg, nil
}

func describePolicy(p threshold.Policy) (ThresholdSpec, error) {
	switch p := p.(type) {
	case *threshold.Fixed:
		return ThresholdSpec{Type: p.Name(), Attributes: Attributes{
			"threshold":        p.Threshold(),
			"minRepeatability": p.MinRepeatability(),
		}}, nil
	case *threshold.Range:
		min, max, step := p.Params()
		return ThresholdSpec{Type: p.Name(), Attributes: Attributes{
			"min":              min,
			"max":              max,
			"step":             step,
			"minRepeatability": p.MinRepeatability(),
		}}, nil
	case *threshold.Otsu:
		return ThresholdSpec{Type: p.Name(), Attributes: Attributes{
			"minRepeatability": p.MinRepeatability(),
		}}, nil
	case nil:
		return ThresholdSpec{}, detector.ErrNoPolicy
	default:
		return ThresholdSpec{}, fmt.Errorf("threshold policy %q cannot be persisted", p.Name())
	}
}

// Save writes c as YAML to path, which must end in .yaml or .yml.
func Save(path string, c *Config) error {
	cleanPath := filepath.Clean(path)
	if err := checkExtension(cleanPath); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(cleanPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func checkExtension(path string) error {
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		return nil
	default:
		return fmt.Errorf("config file must have .yaml or .yml extension, got %q", ext)
	}
}
