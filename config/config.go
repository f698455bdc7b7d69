// Copyright 2024 The courier Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gogama/courier/plugin/logging"
	"github.com/gogama/courier/plugin/metrics"
	"github.com/gogama/courier/plugin/tracing"
	"github.com/gogama/courier/timeout"
	"github.com/gogama/courier/transport"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultEnvPrefix prefixes the environment variables read by Load.
const DefaultEnvPrefix = "COURIER"

// DefaultHistoryPath is the default history database file.
const DefaultHistoryPath = "courier-history.db"

// Config is the complete courier command configuration.
type Config struct {
	Log       logging.Config   `yaml:"log" mapstructure:"log"`
	Transport transport.Config `yaml:"transport" mapstructure:"transport"`
	// Timeout is the request timeout used when a request does not set
	// its own.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`
	Metrics Metrics       `yaml:"metrics" mapstructure:"metrics"`
	History History       `yaml:"history" mapstructure:"history"`
	Tracing Tracing       `yaml:"tracing" mapstructure:"tracing"`
}

// Metrics configures Prometheus metrics.
type Metrics struct {
	Enabled   bool   `yaml:"enabled" mapstructure:"enabled"`
	Namespace string `yaml:"namespace" mapstructure:"namespace" validate:"required_if=Enabled true"`
	// File, if set, is a node exporter textfile the metrics are
	// written to when the command exits.
	File string `yaml:"file" mapstructure:"file"`
}

// History configures the execution history store.
type History struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path" validate:"required_if=Enabled true"`
}

// Tracing configures OpenTelemetry trace export.
type Tracing struct {
	Enabled        bool `yaml:"enabled" mapstructure:"enabled"`
	tracing.Config `yaml:",inline" mapstructure:",squash"`
}

// Default returns the default configuration.
func Default() Config {
	cfg := Config{
		Transport: transport.DefaultConfig(),
		Timeout:   timeout.DefaultTimeout,
		Metrics:   Metrics{Namespace: metrics.DefaultNamespace},
		History:   History{Path: DefaultHistoryPath},
		Tracing:   Tracing{Config: tracing.DefaultConfig()},
	}
	cfg.Log.ApplyDefaults()
	return cfg
}

// An Option customizes Load.
type Option func(*options)

type options struct {
	file      string
	envFile   string
	envPrefix string
}

// WithFile reads the YAML configuration file at path. The file must
// exist.
func WithFile(path string) Option {
	return func(o *options) { o.file = path }
}

// WithEnvFile loads the dotenv file at path into the environment before
// the configuration is read. The file must exist.
func WithEnvFile(path string) Option {
	return func(o *options) { o.envFile = path }
}

// WithEnvPrefix changes the environment variable prefix from
// DefaultEnvPrefix.
func WithEnvPrefix(prefix string) Option {
	return func(o *options) { o.envPrefix = prefix }
}

// Load builds the configuration from defaults, the optional file and
// the environment, then validates it.
func Load(opts ...Option) (Config, error) {
	o := options{envPrefix: DefaultEnvPrefix}
	for _, opt := range opts {
		opt(&o)
	}

	if o.envFile != "" {
		if err := godotenv.Load(o.envFile); err != nil {
			return Config{}, fmt.Errorf("courier/config: load env file: %w", err)
		}
	}

	v := viper.New()
	v.SetConfigType("yaml")
	base, err := yaml.Marshal(Default())
	if err != nil {
		return Config{}, fmt.Errorf("courier/config: encode defaults: %w", err)
	}
	if err := v.ReadConfig(bytes.NewReader(base)); err != nil {
		return Config{}, fmt.Errorf("courier/config: read defaults: %w", err)
	}

	if o.file != "" {
		f, err := os.Open(o.file)
		if err != nil {
			return Config{}, fmt.Errorf("courier/config: %w", err)
		}
		err = v.MergeConfig(f)
		_ = f.Close()
		if err != nil {
			return Config{}, fmt.Errorf("courier/config: read %s: %w", o.file, err)
		}
	}

	if o.envPrefix != "" {
		v.SetEnvPrefix(o.envPrefix)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("courier/config: decode: %w", err)
	}
	cfg.Log.ApplyDefaults()
	cfg.Transport.ApplyDefaults()

	if err := Validate(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// Validate checks cfg, reporting each invalid setting by its key path.
func Validate(cfg *Config) error {
	var errs []error
	if err := getValidator().Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("courier/config: %w", err)
		}
		for _, fe := range fieldErrs {
			errs = append(errs, fmt.Errorf("%s: %s", keyPath(fe.Namespace()), describe(fe)))
		}
	}
	if err := cfg.Log.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := cfg.Transport.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("courier/config: invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// keyPath drops the root type name and, for squashed embedded structs,
// the embedded type name.
func keyPath(ns string) string {
	parts := strings.Split(ns, ".")[1:]
	out := parts[:0]
	for _, p := range parts {
		if p != "Config" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ".")
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required_if":
		return "is required when enabled"
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "is invalid"
	}
}

// Dump writes cfg to w as YAML.
func Dump(w io.Writer, cfg Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("courier/config: dump: %w", err)
	}
	return enc.Close()
}
