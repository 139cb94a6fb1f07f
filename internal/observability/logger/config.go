package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config configura el logger.
type Config struct {
	// Env: "dev" (consola con colores), "prod"/"production" (JSON) o "test"
	// (descarta todo). Default: "dev"
	Env string

	// Level: "debug", "info", "warn", "error". Default: "info"
	Level string

	// ServiceName y Version se agregan como campos base si no son vacíos.
	ServiceName string
	Version     string

	// OutputPaths pisa el destino de zap (default: stderr).
	OutputPaths []string
}

func normalizeEnv(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "prod", "production":
		return "prod"
	case "test":
		return "test"
	default:
		return "dev"
	}
}

// build construye el logger según la configuración. Si zap no puede
// construirlo (p.ej. un OutputPath inválido) cae a zap.NewProduction.
func build(cfg Config) *zap.Logger {
	env := normalizeEnv(cfg.Env)
	if env == "test" {
		return zap.NewNop()
	}

	zcfg := zapConfig(env, parseLevel(cfg.Level))
	if len(cfg.OutputPaths) > 0 {
		zcfg.OutputPaths = cfg.OutputPaths
	}

	opts := []zap.Option{zap.AddCaller()}
	if env == "prod" {
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	}
	l, err := zcfg.Build(opts...)
	if err != nil {
		l, _ = zap.NewProduction()
	}
	return withBaseFields(l, cfg)
}

func zapConfig(env string, level zapcore.Level) zap.Config {
	var zcfg zap.Config
	if env == "prod" {
		zcfg = zap.NewProductionConfig()
		zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zcfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		// sin stacktraces en dev: los warn del flujo son esperables
		zcfg.DisableStacktrace = true
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	return zcfg
}

func withBaseFields(l *zap.Logger, cfg Config) *zap.Logger {
	if cfg.ServiceName != "" {
		l = l.With(zap.String("service", cfg.ServiceName))
	}
	if cfg.Version != "" {
		l = l.With(zap.String("version", cfg.Version))
	}
	return l
}

// parseLevel convierte un string a zapcore.Level; lo desconocido es info.
func parseLevel(lvl string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
