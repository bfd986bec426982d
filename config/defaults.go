package config

import "time"

// DefaultConfig returns the configuration used when no file or
// environment overrides are present.
func DefaultConfig() *Config {
	return &Config{
		Invoker:   DefaultInvokerConfig(),
		Engine:    DefaultEngineConfig(),
		History:   DefaultHistoryConfig(),
		Log:       DefaultLogConfig(),
		Telemetry: DefaultTelemetryConfig(),
		Metrics:   DefaultMetricsConfig(),
	}
}

// DefaultInvokerConfig returns the default gateway client settings.
func DefaultInvokerConfig() InvokerConfig {
	return InvokerConfig{
		BaseURL:      "http://localhost:8000",
		EndpointPath: "/api/chat",
		Timeout:      60 * time.Second,
		Cooldown:     0,
	}
}

// DefaultEngineConfig returns the default execution settings.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		DefaultModel: "openai/gpt-oss-120b",
		RunTimeout:   5 * time.Minute,
		Schema:       "staged",
	}
}

// DefaultHistoryConfig returns the default persistence settings.
func DefaultHistoryConfig() HistoryConfig {
	return HistoryConfig{
		Enabled: false,
		DSN:     "agentpipe.db",
	}
}

// DefaultLogConfig returns the default logging settings.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:  "info",
		Format: "console",
	}
}

// DefaultTelemetryConfig returns telemetry disabled by default.
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		ServiceName:  "agentpipe",
		OTLPEndpoint: "localhost:4317",
		SampleRate:   1.0,
	}
}

// DefaultMetricsConfig returns the default metrics settings.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:   false,
		Namespace: "agentpipe",
	}
}
