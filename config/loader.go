package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete agentpipe configuration.
type Config struct {
	// Invoker configures the backend agent gateway client.
	Invoker InvokerConfig `yaml:"invoker" env:"INVOKER"`

	// Engine configures pipeline execution.
	Engine EngineConfig `yaml:"engine" env:"ENGINE"`

	// History configures run history persistence.
	History HistoryConfig `yaml:"history" env:"HISTORY"`

	// Log configures logging output.
	Log LogConfig `yaml:"log" env:"LOG"`

	// Telemetry configures OpenTelemetry export.
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`

	// Metrics configures Prometheus metric registration.
	Metrics MetricsConfig `yaml:"metrics" env:"METRICS"`
}

// InvokerConfig is the HTTP gateway client configuration.
type InvokerConfig struct {
	// Base URL of the agent gateway, for example http://localhost:8000.
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
	// Bearer token sent with each request. Empty disables auth.
	APIKey string `yaml:"api_key" env:"API_KEY"`
	// Path of the chat endpoint relative to BaseURL.
	EndpointPath string `yaml:"endpoint_path" env:"ENDPOINT_PATH"`
	// Per-request timeout.
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
	// Minimum spacing between consecutive requests.
	Cooldown time.Duration `yaml:"cooldown" env:"COOLDOWN"`
}

// EngineConfig is the pipeline execution configuration.
type EngineConfig struct {
	// Model assigned to invocations when no node supplies one.
	DefaultModel string `yaml:"default_model" env:"DEFAULT_MODEL"`
	// Overall deadline for a single run. Zero means no deadline.
	RunTimeout time.Duration `yaml:"run_timeout" env:"RUN_TIMEOUT"`
	// Schema selects the connection rule set: "staged" or "freeform".
	Schema string `yaml:"schema" env:"SCHEMA"`
}

// HistoryConfig is the run history persistence configuration.
type HistoryConfig struct {
	// Enabled toggles persistence entirely.
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// DSN is the sqlite path, or ":memory:" for an ephemeral store.
	DSN string `yaml:"dsn" env:"DSN"`
}

// LogConfig is the logging configuration.
type LogConfig struct {
	// Level: debug, info, warn, error.
	Level string `yaml:"level" env:"LEVEL"`
	// Format: json or console.
	Format string `yaml:"format" env:"FORMAT"`
}

// TelemetryConfig is the OpenTelemetry export configuration.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled" env:"ENABLED"`
	ServiceName  string  `yaml:"service_name" env:"SERVICE_NAME"`
	OTLPEndpoint string  `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	SampleRate   float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// MetricsConfig is the Prometheus metrics configuration.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" env:"ENABLED"`
	Namespace string `yaml:"namespace" env:"NAMESPACE"`
}

// Loader loads configuration with precedence defaults, then YAML file,
// then environment variables.
type Loader struct {
	configPath string
	envPrefix  string
	validators []func(*Config) error
}

// NewLoader creates a loader with the default env prefix.
func NewLoader() *Loader {
	return &Loader{
		envPrefix:  "AGENTPIPE",
		validators: make([]func(*Config) error, 0),
	}
}

// WithConfigPath sets the YAML file to load. A missing file is not an
// error; defaults and env vars still apply.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix overrides the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithValidator appends a validation hook run after loading.
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load resolves the configuration.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		envTag := t.Field(i).Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}
		envKey := prefix + "_" + envTag

		if field.Kind() == reflect.Struct {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		envValue := os.Getenv(envKey)
		if envValue == "" {
			continue
		}
		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("set %s: %w", envKey, err)
		}
	}
	return nil
}

func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
			return nil
		}
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(i)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}
	return nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Invoker.Timeout < 0 {
		return fmt.Errorf("invoker.timeout must not be negative")
	}
	if c.Invoker.Cooldown < 0 {
		return fmt.Errorf("invoker.cooldown must not be negative")
	}
	switch c.Engine.Schema {
	case "staged", "freeform":
	default:
		return fmt.Errorf("engine.schema must be staged or freeform, got %q", c.Engine.Schema)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	return nil
}

// MustLoad loads configuration from path and panics on failure.
func MustLoad(path string) *Config {
	cfg, err := NewLoader().WithConfigPath(path).Load()
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return cfg
}

// LoadFromEnv loads configuration from defaults and environment only.
func LoadFromEnv() (*Config, error) {
	return NewLoader().Load()
}
