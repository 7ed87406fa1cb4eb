package observability

import (
	"strings"
	"time"

	"github.com/smallbiznis/hirehub/internal/config"
)

// Config is the observability view of the application config.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel  string
	LogFormat string

	OtelEnabled          bool
	OtelExporterEndpoint string
	OtelExporterProtocol string
	OtelSamplingRatio    float64

	SlowQueryThreshold time.Duration
}

func LoadConfig(cfg config.Config) Config {
	obs := cfg.Observability

	// Export telemetry by default everywhere except developer machines.
	enabled := !cfg.IsDevelopment()
	if obs.OtelEnabled != nil {
		enabled = *obs.OtelEnabled
	}

	serviceName := cfg.AppName
	if serviceName == "" {
		serviceName = "hirehub"
	}

	return Config{
		ServiceName:          serviceName,
		Environment:          cfg.Environment,
		Version:              cfg.AppVersion,
		LogLevel:             obs.LogLevel,
		LogFormat:            obs.LogFormat,
		OtelEnabled:          enabled,
		OtelExporterEndpoint: obs.OtelEndpoint,
		OtelExporterProtocol: obs.OtelProtocol,
		OtelSamplingRatio:    obs.OtelSamplingRatio,
		SlowQueryThreshold:   obs.SlowQueryThreshold,
	}
}

// Debug turns on verbose SQL and stack traces.
func (c Config) Debug() bool {
	return strings.EqualFold(c.LogLevel, "debug") || config.IsDevEnvironment(c.Environment)
}
