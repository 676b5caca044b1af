package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/accelstream/internal/replay"
	"github.com/okian/accelstream/pkg/logger"
)

// Default configuration constants.
const (
	defaultRate    = 50
	defaultTimeout = 10 * time.Second
)

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:9080", "Base URL of the service")
		file     = flag.String("file", "", "Recording to replay")
		source   = flag.String("source", "replay", "Source identity sent with every notification")
		wire     = flag.String("wire", replay.WirePacked, "packed or per_axis")
		encoding = flag.String("encoding", replay.EncodingText, "text or binary (per_axis only)")
		rate     = flag.Float64("rate", defaultRate, "Samples per second; 0 sends as fast as possible")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		logFile  = flag.String("log", "", "Also write log output to this file")
		verbose  = flag.Bool("verbose", false, "Log every failed notification")
		help     = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help || *file == "" {
		replay.ShowHelp()
		return
	}

	if err := replay.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := &replay.Config{
		BaseURL:  *baseURL,
		File:     *file,
		Source:   *source,
		WireMode: *wire,
		Encoding: *encoding,
		Rate:     *rate,
		Timeout:  *timeout,
		Verbose:  *verbose,
	}

	stats, err := replay.Run(ctx, cfg)
	if err != nil {
		logger.Get().Error(ctx, "replay failed", logger.Error(err))
		os.Exit(1)
	}
	if stats.Failed > 0 {
		os.Exit(2)
	}
}
