package logger

import (
	"context"
	"fmt"

	"github.com/smallbiznis/teamgate/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewFromConfig builds the process-wide logger. Development environments get
// the console encoder; everything else emits JSON. The logger is installed
// via zap.ReplaceGlobals so packages log through zap.L().
func NewFromConfig(appCfg config.Config) (*zap.Logger, error) {
	level := appCfg.LogLevel
	if level == "" {
		level = "info"
	}

	var parsed zapcore.Level
	if err := parsed.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", appCfg.LogLevel, err)
	}

	zapCfg := zap.NewProductionConfig()
	if appCfg.Environment == "development" {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(parsed)
	zapCfg.EncoderConfig.TimeKey = "ts"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	log, err := zapCfg.Build(zap.Fields(zap.String("service", appCfg.AppName)))
	if err != nil {
		return nil, err
	}

	zap.ReplaceGlobals(log)
	return log, nil
}

func registerHooks(lc fx.Lifecycle, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			_ = log.Sync()
			return nil
		},
	})
}

// Module wires the global zap logger for the application.
var Module = fx.Module("logger",
	fx.Provide(
		NewFromConfig,
	),
	fx.Invoke(registerHooks),
)
