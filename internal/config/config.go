// Package config resolves the training job configuration from defaults, an
// optional YAML file, environment variables and SageMaker-style hyperparameters.
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/ChizhovVadim/churnann/internal/ml"
	"github.com/ChizhovVadim/churnann/internal/search"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPrefix = "/opt/ml/"

	ModelFile    = "ann.nn"
	MetadataFile = "ann.json"
	FailureFile  = "failure"
)

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	// Prefix is the container mount root the other paths default under.
	Prefix              string `yaml:"prefix"`
	InputPath           string `yaml:"input_path"`
	OutputDir           string `yaml:"output_dir"`
	ModelDir            string `yaml:"model_dir"`
	HyperparametersPath string `yaml:"hyperparameters_path"`

	Grid     search.Grid `yaml:"grid"`
	Folds    int         `yaml:"folds"`
	Jobs     int         `yaml:"jobs"`
	Seed     int64       `yaml:"seed"`
	TestSize float64     `yaml:"test_size"`
	Verbose  bool        `yaml:"verbose"`
}

func DefaultConfig() *Config {
	return &Config{
		Prefix:   DefaultPrefix,
		Grid:     search.DefaultGrid(),
		Folds:    10,
		Jobs:     runtime.NumCPU(),
		Seed:     0,
		TestSize: 0.25,
	}
}

// Load reads a YAML file over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	var cfg = DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.Wrap(err, "read config")
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}
	return cfg, nil
}

// LoadEnvFile loads variables from a dotenv file without overriding the
// process environment. A missing file is ignored.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return errors.Wrap(godotenv.Load(path), "load env file")
}

// ApplyEnv overrides fields from CHURN_* environment variables.
func (c *Config) ApplyEnv() error {
	var strs = map[string]*string{
		"CHURN_PREFIX":          &c.Prefix,
		"CHURN_INPUT":           &c.InputPath,
		"CHURN_OUTPUT_DIR":      &c.OutputDir,
		"CHURN_MODEL_DIR":       &c.ModelDir,
		"CHURN_HYPERPARAMETERS": &c.HyperparametersPath,
	}
	for name, field := range strs {
		if v, ok := os.LookupEnv(name); ok {
			*field = v
		}
	}
	var ints = map[string]*int{
		"CHURN_FOLDS": &c.Folds,
		"CHURN_JOBS":  &c.Jobs,
	}
	for name, field := range ints {
		if v, ok := os.LookupEnv(name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return errors.Wrapf(ErrInvalid, "%s=%q", name, v)
			}
			*field = n
		}
	}
	if v, ok := os.LookupEnv("CHURN_SEED"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return errors.Wrapf(ErrInvalid, "CHURN_SEED=%q", v)
		}
		c.Seed = n
	}
	if v, ok := os.LookupEnv("CHURN_VERBOSE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrapf(ErrInvalid, "CHURN_VERBOSE=%q", v)
		}
		c.Verbose = b
	}
	return nil
}

// Resolve fills the container paths that were left empty.
func (c *Config) Resolve() {
	if c.Prefix == "" {
		c.Prefix = DefaultPrefix
	}
	if c.InputPath == "" {
		c.InputPath = filepath.Join(c.Prefix, "input", "data", "training", "churn.csv")
	}
	if c.OutputDir == "" {
		c.OutputDir = filepath.Join(c.Prefix, "output")
	}
	if c.ModelDir == "" {
		c.ModelDir = filepath.Join(c.Prefix, "model")
	}
	if c.HyperparametersPath == "" {
		c.HyperparametersPath = filepath.Join(c.Prefix, "input", "config", "hyperparameters.json")
	}
}

func (c *Config) Validate() error {
	if err := c.Grid.Validate(); err != nil {
		return errors.Wrap(ErrInvalid, err.Error())
	}
	for _, name := range c.Grid.Optimizers {
		if _, err := ml.NewOptimizer(name); err != nil {
			return errors.Wrap(ErrInvalid, err.Error())
		}
	}
	if c.Folds < 2 {
		return errors.Wrapf(ErrInvalid, "folds must be at least 2, got %d", c.Folds)
	}
	if c.TestSize <= 0 || c.TestSize >= 1 {
		return errors.Wrapf(ErrInvalid, "test size must be in (0, 1), got %v", c.TestSize)
	}
	if c.Jobs <= 0 {
		c.Jobs = runtime.NumCPU()
	}
	return nil
}

func (c *Config) ModelPath() string    { return filepath.Join(c.ModelDir, ModelFile) }
func (c *Config) MetadataPath() string { return filepath.Join(c.ModelDir, MetadataFile) }
func (c *Config) FailurePath() string  { return filepath.Join(c.OutputDir, FailureFile) }
