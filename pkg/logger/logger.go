package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process logger. Development gets a colored console encoder
// with debug output; every other environment logs JSON at info and above,
// with errors also copied to stderr.
func New(env string) *zap.Logger {
	if env == "development" {
		encoderCfg := zap.NewDevelopmentEncoderConfig()
		encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		core := zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderCfg),
			zapcore.AddSync(os.Stdout),
			zap.DebugLevel,
		)
		return zap.New(core, zap.AddCaller(), zap.Development())
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "time"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderCfg)

	infoCore := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout),
		zap.LevelEnablerFunc(func(level zapcore.Level) bool {
			return level >= zapcore.InfoLevel && level < zapcore.ErrorLevel
		}),
	)
	errorCore := zapcore.NewCore(encoder, zapcore.AddSync(os.Stderr),
		zap.LevelEnablerFunc(func(level zapcore.Level) bool {
			return level >= zapcore.ErrorLevel
		}),
	)

	return zap.New(zapcore.NewTee(infoCore, errorCore), zap.AddCaller())
}

// Sync flushes buffered entries, ignoring the error stdout/stderr return on
// some platforms.
func Sync(log *zap.Logger) {
	_ = log.Sync()
}
