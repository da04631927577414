package telemetry

import (
	"sync"

	"go.uber.org/zap"

	"github.com/young1lin/scout/internal/config"
	"github.com/young1lin/scout/pkg/logger"
)

// Pass-through observability shim. When a telemetry token is configured,
// every tool call and agent phase emits a structured event through a named
// logger. No buffering, sampling, or aggregation. The enabled flag is set
// once at startup and only read afterwards.

var (
	once    sync.Once
	enabled bool
	project string
	log     *zap.Logger
)

// Init configures the shim from config. Safe to call multiple times; only
// the first call takes effect.
func Init(cfg *config.TelemetryConfig) {
	once.Do(func() {
		if !cfg.Enabled || cfg.Token == "" {
			logger.Debug("telemetry disabled",
				zap.Bool("config_enabled", cfg.Enabled),
				zap.Bool("token_present", cfg.Token != ""),
			)
			return
		}
		project = cfg.Project
		log = logger.Named("telemetry")
		enabled = true
		log.Info("telemetry initialized", zap.String("project", project))
	})
}

// Enabled reports whether events are being emitted
func Enabled() bool {
	return enabled
}

// Event emits a structured telemetry event if the shim is enabled
func Event(name string, fields ...zap.Field) {
	if !enabled {
		return
	}
	fields = append(fields, zap.String("project", project))
	log.Info(name, fields...)
}

// ErrorEvent emits an error-level telemetry event if the shim is enabled
func ErrorEvent(name string, err error, fields ...zap.Field) {
	if !enabled {
		return
	}
	fields = append(fields, zap.Error(err), zap.String("project", project))
	log.Error(name, fields...)
}
