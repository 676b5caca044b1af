package replay

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/okian/accelstream/pkg/logger"
)

const logFilePermission = 0o600

// SetupLogging sends log output to stdout and, when logFile is set, to
// that file as well.
func SetupLogging(logFile string) error {
	if logFile == "" {
		return logger.Init()
	}
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	if err := logger.InitWith(io.MultiWriter(os.Stdout, file), "text"); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the replay tool.
func ShowHelp() {
	os.Stdout.WriteString(`accelstream replay
==================

Replays a recorded CSV session against a running service as notifications.

Usage:
  go run ./cmd/replay -file data/circle-1.csv [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -file string
        Recording to replay (required)
  -source string
        Source identity sent with every notification (default "replay")
  -wire string
        packed or per_axis (default "packed")
  -encoding string
        text or binary, per_axis only (default "text")
  -rate float
        Samples per second; 0 sends as fast as possible (default 50)
  -timeout duration
        HTTP request timeout (default 10s)
  -log string
        Also write log output to this file
  -verbose
        Log every failed notification
  -help
        Show this help message
`)
}
