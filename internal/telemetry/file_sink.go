package telemetry

import (
	"os"

	"go.uber.org/zap/zapcore"
)

type consoleWriter struct{}

func (consoleWriter) Write(p []byte) (int, error) {
	return os.Stdout.Write(p)
}

func (consoleWriter) Sync() error {
	return nil
}

func zapFileSync(path string) (zapcore.WriteSyncer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return zapcore.AddSync(f), nil
}
