package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the service logger: JSON in production mode, console
// otherwise.
func NewLogger(mode string) *zap.SugaredLogger {
	var encoderCfg zapcore.EncoderConfig
	var encoder zapcore.Encoder

	if mode == "production" {
		encoderCfg = zap.NewProductionEncoderConfig()
		encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	} else {
		encoderCfg = zap.NewDevelopmentEncoderConfig()
		encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stderr), zap.NewAtomicLevelAt(zapcore.InfoLevel))
	return zap.New(core, zap.AddCaller()).Sugar()
}

// NewTestLogger returns a no-op logger for tests.
func NewTestLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
