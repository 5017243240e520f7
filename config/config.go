// Package config loads the autoprice configuration with viper.
package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/YuminosukeSato/autoprice/dataset"
	"github.com/YuminosukeSato/autoprice/pkg/errors"
	"github.com/YuminosukeSato/autoprice/pkg/log"
	"github.com/YuminosukeSato/autoprice/training"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. AUTOPRICE_SERVER_PORT.
const EnvPrefix = "AUTOPRICE"

type Config struct {
	Server  ServerConfig   `mapstructure:"server"`
	Dataset dataset.Config `mapstructure:"dataset"`
	Model   ModelConfig    `mapstructure:"model"`
	Predict PredictConfig  `mapstructure:"predict"`
	Log     LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type ModelConfig struct {
	Features []string `mapstructure:"features"`
	Target   string   `mapstructure:"target"`
	TestSize float64  `mapstructure:"test_size"`
	Seed     uint64   `mapstructure:"seed"`
	// Rcond is the relative singular value cutoff; 0 selects the default.
	Rcond float64 `mapstructure:"rcond"`
}

type PredictConfig struct {
	Delay time.Duration `mapstructure:"delay"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	ds := dataset.DefaultConfig()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 7860)
	v.SetDefault("server.read_timeout", 10*time.Second)
	// covers the prediction delay
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("dataset.url", ds.URL)
	v.SetDefault("dataset.path", "")
	v.SetDefault("dataset.headers", ds.Headers)
	v.SetDefault("dataset.numeric_columns", ds.NumericColumns)
	v.SetDefault("dataset.missing_marker", ds.MissingMarker)
	v.SetDefault("dataset.timeout", ds.Timeout)

	v.SetDefault("model.features", slices.Clone(training.CarFeatures))
	v.SetDefault("model.target", training.Price)
	v.SetDefault("model.test_size", 0.25)
	v.SetDefault("model.seed", 5)
	v.SetDefault("model.rcond", 0.0)

	v.SetDefault("predict.delay", 1500*time.Millisecond)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", log.FormatPretty)
}

// Load reads the configuration file at path, if any, applies AUTOPRICE_*
// environment overrides and defaults, and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "error reading config file %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unable to decode into config struct")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the rest of the program cannot run with.
func (c *Config) Validate() error {
	if c.Model.TestSize <= 0 || c.Model.TestSize >= 1 {
		return errors.NewValidationError("model.test_size", "must be in the open interval (0, 1)", c.Model.TestSize)
	}
	// the dashboard form and /api/predict always send the car inputs
	if !slices.Equal(c.Model.Features, training.CarFeatures) {
		return errors.NewValidationError("model.features",
			fmt.Sprintf("must be %v in this order", training.CarFeatures), c.Model.Features)
	}
	if c.Model.Target != training.Price {
		return errors.NewValidationError("model.target", fmt.Sprintf("must be %q", training.Price), c.Model.Target)
	}
	if c.Model.Rcond < 0 {
		return errors.NewValidationError("model.rcond", "must not be negative", c.Model.Rcond)
	}
	if c.Predict.Delay < 0 {
		return errors.NewValidationError("predict.delay", "must not be negative", c.Predict.Delay)
	}
	if c.Dataset.Path == "" && c.Dataset.URL == "" {
		return errors.NewValidationError("dataset", "either path or url must be set", "")
	}
	if len(c.Dataset.Headers) == 0 {
		return errors.NewValidationError("dataset.headers", "at least one column name is required", c.Dataset.Headers)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.NewValidationError("server.port", "must be between 1 and 65535", c.Server.Port)
	}
	if _, err := log.ToLogLevel(c.Log.Level); err != nil {
		return errors.NewValidationError("log.level", err.Error(), c.Log.Level)
	}
	if c.Log.Format != log.FormatJSON && c.Log.Format != log.FormatPretty {
		return errors.NewValidationError("log.format", "must be json or pretty", c.Log.Format)
	}
	return nil
}
