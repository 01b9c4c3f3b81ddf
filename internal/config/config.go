package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/stoik/email-fraud-classifier/internal/application"
	"github.com/stoik/email-fraud-classifier/internal/domain"
	"github.com/stoik/email-fraud-classifier/internal/domain/classification"
)

const (
	configPathEnv      = "FRAUD_CLASSIFIER_CONFIG"
	databaseURLEnv     = "DATABASE_URL"
	sqlitePathEnv      = "FRAUD_SQLITE_PATH"
	datasetDirEnv      = "FRAUD_DATASET_DIR"
	logLevelEnv        = "LOG_LEVEL"
	httpAddrEnv        = "FRAUD_HTTP_ADDR"
	retrainScheduleEnv = "FRAUD_RETRAIN_SCHEDULE"
)

// Config holds every setting the classifier needs
type Config struct {
	LogLevel  string          `yaml:"log_level"`
	Dataset   DatasetConfig   `yaml:"dataset"`
	Storage   StorageConfig   `yaml:"storage"`
	Model     ModelConfig     `yaml:"model"`
	Server    ServerConfig    `yaml:"server"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// DatasetConfig describes where corpora are looked up
type DatasetConfig struct {
	// Dir is searched for a dataset's base name when the given path doesn't exist
	Dir string `yaml:"dir"`
	// Path is the dataset serve and scheduled retraining use
	Path string `yaml:"path"`
}

// StorageConfig selects the history store. DatabaseURL wins over SQLitePath.
type StorageConfig struct {
	DatabaseURL string `yaml:"database_url"`
	SQLitePath  string `yaml:"sqlite_path"`
}

// ModelConfig holds the feature space, split and classifier parameters
type ModelConfig struct {
	MaxFeatures           int     `yaml:"max_features"`
	TestFraction          float64 `yaml:"test_fraction"`
	SplitSeed             uint64  `yaml:"split_seed"`
	ModelSeed             uint64  `yaml:"model_seed"`
	MaxIterations         int     `yaml:"max_iterations"`
	LearningRate          float64 `yaml:"learning_rate"`
	InverseRegularization float64 `yaml:"inverse_regularization"`
	Tolerance             float64 `yaml:"tolerance"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// SchedulerConfig defines when serve retrains. Empty disables retraining.
type SchedulerConfig struct {
	RetrainSchedule string `yaml:"retrain_schedule"`
}

// Load reads YAML configuration from path (or the FRAUD_CLASSIFIER_CONFIG
// env var when path is empty), merges it over the defaults and applies
// environment overrides. A missing or unparsable explicit file is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		var fileCfg Config
		if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
			return Config{}, domain.NewConfigError("cannot parse %s: %v", path, err)
		}
		cfg = mergeConfig(cfg, fileCfg)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default returns the built-in configuration
func Default() Config {
	opts := classification.DefaultClassifierOptions()
	return Config{
		LogLevel: "info",
		Dataset:  DatasetConfig{Dir: "datasets"},
		Storage:  StorageConfig{SQLitePath: "fraud-classifier.db"},
		Model: ModelConfig{
			MaxFeatures:           classification.DefaultMaxFeatures,
			TestFraction:          classification.DefaultTestFraction,
			SplitSeed:             42,
			ModelSeed:             opts.Seed,
			MaxIterations:         opts.MaxIterations,
			LearningRate:          opts.LearningRate,
			InverseRegularization: opts.C,
			Tolerance:             opts.Tolerance,
		},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// Validate reports out-of-range values as a ConfigError
func (c Config) Validate() error {
	m := c.Model
	switch {
	case m.MaxFeatures <= 0:
		return domain.NewConfigError("model.max_features must be positive, got %d", m.MaxFeatures)
	case m.TestFraction <= 0 || m.TestFraction >= 1:
		return domain.NewConfigError("model.test_fraction must be in (0, 1), got %g", m.TestFraction)
	case m.MaxIterations <= 0:
		return domain.NewConfigError("model.max_iterations must be positive, got %d", m.MaxIterations)
	case m.LearningRate <= 0:
		return domain.NewConfigError("model.learning_rate must be positive, got %g", m.LearningRate)
	case m.InverseRegularization <= 0:
		return domain.NewConfigError("model.inverse_regularization must be positive, got %g", m.InverseRegularization)
	case m.Tolerance < 0:
		return domain.NewConfigError("model.tolerance must not be negative, got %g", m.Tolerance)
	}
	return nil
}

// PipelineOptions converts the model section to pipeline options
func (c Config) PipelineOptions() application.PipelineOptions {
	return application.PipelineOptions{
		MaxFeatures:  c.Model.MaxFeatures,
		TestFraction: c.Model.TestFraction,
		SplitSeed:    c.Model.SplitSeed,
		Classifier: classification.ClassifierOptions{
			MaxIterations: c.Model.MaxIterations,
			LearningRate:  c.Model.LearningRate,
			C:             c.Model.InverseRegularization,
			Tolerance:     c.Model.Tolerance,
			Seed:          c.Model.ModelSeed,
		},
	}
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseURLEnv); v != "" {
		c.Storage.DatabaseURL = v
	}

	if v := os.Getenv(sqlitePathEnv); v != "" {
		c.Storage.SQLitePath = v
	}

	if v := os.Getenv(datasetDirEnv); v != "" {
		c.Dataset.Dir = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.LogLevel = v
	}

	if v := os.Getenv(httpAddrEnv); v != "" {
		c.Server.Addr = v
	}

	if v := os.Getenv(retrainScheduleEnv); v != "" {
		c.Scheduler.RetrainSchedule = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.LogLevel != "" {
		base.LogLevel = override.LogLevel
	}

	if override.Dataset.Dir != "" {
		base.Dataset.Dir = override.Dataset.Dir
	}
	if override.Dataset.Path != "" {
		base.Dataset.Path = override.Dataset.Path
	}

	if override.Storage.DatabaseURL != "" {
		base.Storage.DatabaseURL = override.Storage.DatabaseURL
	}
	if override.Storage.SQLitePath != "" {
		base.Storage.SQLitePath = override.Storage.SQLitePath
	}

	// Zero means "not set" for every model field
	m := override.Model
	if m.MaxFeatures != 0 {
		base.Model.MaxFeatures = m.MaxFeatures
	}
	if m.TestFraction != 0 {
		base.Model.TestFraction = m.TestFraction
	}
	if m.SplitSeed != 0 {
		base.Model.SplitSeed = m.SplitSeed
	}
	if m.ModelSeed != 0 {
		base.Model.ModelSeed = m.ModelSeed
	}
	if m.MaxIterations != 0 {
		base.Model.MaxIterations = m.MaxIterations
	}
	if m.LearningRate != 0 {
		base.Model.LearningRate = m.LearningRate
	}
	if m.InverseRegularization != 0 {
		base.Model.InverseRegularization = m.InverseRegularization
	}
	if m.Tolerance != 0 {
		base.Model.Tolerance = m.Tolerance
	}

	if override.Server.Addr != "" {
		base.Server.Addr = override.Server.Addr
	}

	if override.Scheduler.RetrainSchedule != "" {
		base.Scheduler.RetrainSchedule = override.Scheduler.RetrainSchedule
	}

	return base
}
