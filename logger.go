package viewbridge

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// newLogger builds the bridge's logger. Debug mode writes a development
// logger to bridge.log under the base directory (or the working directory
// when none is configured); otherwise logging is a no-op.
func newLogger(baseDir string, debug bool) (*zap.Logger, error) {
	if !debug {
		return zap.NewNop(), nil
	}
	logPath := "bridge.log"
	if baseDir != "" {
		if err := os.MkdirAll(baseDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
		logPath = filepath.Join(baseDir, "bridge.log")
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{logPath}
	cfg.ErrorOutputPaths = []string{logPath}
	log, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building debug logger: %w", err)
	}
	return log, nil
}
