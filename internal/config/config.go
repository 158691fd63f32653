package config

import (
	"fmt"
	"os"
	"time"

	"decision-service/internal/dataset"
	"decision-service/internal/features"
	"decision-service/internal/llm"
	"decision-service/internal/pipeline"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	Server struct {
		Port           string   `yaml:"port"`
		AllowedOrigins []string `yaml:"allowed_origins"` // empty allows any origin
	} `yaml:"server"`

	Logging struct {
		Production bool `yaml:"production"`
	} `yaml:"logging"`

	Model struct {
		ArtifactPath string `yaml:"artifact_path"`
		DatasetPath  string `yaml:"dataset_path"`
	} `yaml:"model"`

	Training struct {
		MaxFeatures     int     `yaml:"max_features"`
		NEstimators     int     `yaml:"n_estimators"`
		MaxDepth        int     `yaml:"max_depth"`
		MinSamplesSplit int     `yaml:"min_samples_split"`
		// TestSize and Seed are pointers so an explicit 0 is kept
		TestSize *float64 `yaml:"test_size"`
		Seed     *int64   `yaml:"seed"`
	} `yaml:"training"`

	Generation struct {
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"generation"`

	// Text generation providers, tried in order
	Providers []llm.ProviderConfig `yaml:"providers"`

	Database struct {
		Path string `yaml:"path"` // SQLite path for the feedback store; "-" disables it
	} `yaml:"database"`

	MaxFailuresBeforeSwitch int `yaml:"max_failures_before_switch"`
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	config.applyDefaults()
	return config, nil
}

// Default returns the configuration used when no file is present
func Default() *Config {
	config := &Config{}
	config.applyDefaults()
	return config
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8000"
	}

	if c.Model.ArtifactPath == "" {
		c.Model.ArtifactPath = dataset.DefaultArtifactPath
	}

	if c.Model.DatasetPath == "" {
		c.Model.DatasetPath = dataset.DefaultPath
	}

	defaults := pipeline.DefaultTrainConfig()
	if c.Training.MaxFeatures == 0 {
		c.Training.MaxFeatures = features.DefaultMaxFeatures
	}
	if c.Training.NEstimators == 0 {
		c.Training.NEstimators = defaults.Forest.NEstimators
	}
	if c.Training.MinSamplesSplit == 0 {
		c.Training.MinSamplesSplit = defaults.Forest.MinSamplesSplit
	}
	if c.Training.TestSize == nil {
		c.Training.TestSize = &defaults.TestFraction
	}
	if c.Training.Seed == nil {
		c.Training.Seed = &defaults.Forest.Seed
	}

	if c.Generation.Timeout == 0 {
		c.Generation.Timeout = 60 * time.Second
	}

	if c.Database.Path == "" {
		c.Database.Path = "./data/feedback.db"
	}

	if c.MaxFailuresBeforeSwitch == 0 {
		c.MaxFailuresBeforeSwitch = 3
	}

	// Expand environment variables in provider API keys
	for i := range c.Providers {
		c.Providers[i].APIKey = os.ExpandEnv(c.Providers[i].APIKey)
	}
}

// TrainConfig converts the training section into pipeline settings
func (c *Config) TrainConfig() pipeline.TrainConfig {
	tc := pipeline.DefaultTrainConfig()
	tc.MaxFeatures = c.Training.MaxFeatures
	tc.TestFraction = *c.Training.TestSize
	tc.Forest.NEstimators = c.Training.NEstimators
	tc.Forest.MaxDepth = c.Training.MaxDepth
	tc.Forest.MinSamplesSplit = c.Training.MinSamplesSplit
	tc.Forest.Seed = *c.Training.Seed
	return tc
}

// FeedbackEnabled reports whether the feedback store should be opened
func (c *Config) FeedbackEnabled() bool {
	return c.Database.Path != "-"
}
