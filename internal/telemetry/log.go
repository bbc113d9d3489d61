// Package telemetry builds the structured logger used by the persistence
// and store boundary. The core engine packages never import this package:
// the core never logs, swallows, or retries. Only the collaborators around
// it do.
package telemetry

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production zap.Logger with ISO8601 timestamps.
func New() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

// NewWithFile logs to both stdout and the given file path, via a
// zapcore.Tee, for deployments that want a durable log file alongside
// console output.
func NewWithFile(path string) (*zap.Logger, error) {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encCfg)

	consoleSink := zapcore.AddSync(zapcore.Lock(zapcore.AddSync(consoleWriter{})))

	fileSink, err := zapFileSync(path)
	if err != nil {
		return nil, err
	}

	core := zapcore.NewTee(
		zapcore.NewCore(encoder, consoleSink, zap.InfoLevel),
		zapcore.NewCore(encoder, fileSink, zap.InfoLevel),
	)
	return zap.New(core), nil
}
