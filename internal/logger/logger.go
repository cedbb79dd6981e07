package logger

import "go.uber.org/zap"

// New builds the process logger: human-readable in development, JSON
// production encoding otherwise.
func New(appEnv string) *zap.Logger {
	if appEnv == "development" {
		return zap.Must(zap.NewDevelopment())
	}
	return zap.Must(zap.NewProduction())
}
