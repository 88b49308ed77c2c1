// Package config loads the YAML run configuration of the horn CLI.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/cognicore/horn/pkg/horn/internalerr"
)

// Config is the full run configuration. Threshold fields are pointers so
// that an absent value falls back to the hint file.
type Config struct {
	KB          KB     `yaml:"kb"`
	Search      Search `yaml:"search"`
	Output      Output `yaml:"output"`
	Log         Log    `yaml:"log"`
	MetricsAddr string `yaml:"metrics_addr" validate:"omitempty,hostname_port"`
}

// KB names the knowledge base source: a text fact file or a sqlite
// database, never both.
type KB struct {
	Facts string `yaml:"facts" validate:"omitempty,excluded_with=DB"`
	DB    string `yaml:"db"`
	Name  string `yaml:"name" validate:"omitempty,printascii,excludesall=/\\"`
}

// Search holds search thresholds and limits. Nil thresholds defer to the
// hint file.
type Search struct {
	MinFactCoverage     *float64 `yaml:"min_fact_coverage" validate:"omitempty,gte=0,lte=1"`
	MinCompressionRatio *float64 `yaml:"min_compression_ratio" validate:"omitempty,gte=0"`
	Backend             string   `yaml:"backend" validate:"oneof=native datalog"`
	MaxFingerprints     int      `yaml:"max_fingerprints" validate:"gte=0"`
}

// Output selects where and in which format candidates are written.
type Output struct {
	Path   string `yaml:"path"`
	Format string `yaml:"format" validate:"oneof=tsv json"`
}

// Log configures the zap logger.
type Log struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Search: Search{Backend: "native"},
		Output: Output{Format: "tsv"},
		Log:    Log{Level: "info"},
	}
}

var validate = validator.New()

// Load reads path over the defaults and validates the result. An empty
// path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", internalerr.ErrInvalidConfig, path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and reports every violation.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", internalerr.ErrInvalidConfig, err)
	}
	msgs := make([]error, len(verrs))
	for i, fe := range verrs {
		msgs[i] = fmt.Errorf("%s: failed %q", fe.Namespace(), fe.Tag())
	}
	return fmt.Errorf("%w: %w", internalerr.ErrInvalidConfig, errors.Join(msgs...))
}
