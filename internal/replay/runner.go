package replay

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/accelstream/internal/adapters/storage/csvstore"
	"github.com/okian/accelstream/internal/domain/model"
	"github.com/okian/accelstream/pkg/logger"
)

const percentageMultiplier = 100

// Run replays cfg.File against the service and returns the run statistics.
// Notifications are sent one at a time so the service sees them in
// recorded order.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	log := logger.Get().Named("replay")
	stats := &Stats{StartTime: time.Now()}

	rec, err := csvstore.ReadFile(cfg.File)
	if err != nil {
		return nil, fmt.Errorf("read recording: %w", err)
	}
	notes, err := Build(rec.Samples, cfg.Source, cfg.WireMode, cfg.Encoding)
	if err != nil {
		return nil, err
	}
	stats.Samples = len(rec.Samples)

	log.Info(ctx, "starting replay",
		logger.String("baseURL", cfg.BaseURL),
		logger.String("file", cfg.File),
		logger.String("wireMode", cfg.WireMode),
		logger.Int("samples", stats.Samples),
		logger.Int("notifications", len(notes)),
		logger.Float64("rate", cfg.Rate))

	client := newHTTPClient(cfg.Timeout)
	if err := checkServiceHealth(ctx, client, cfg.BaseURL); err != nil {
		return nil, err
	}

	perSample := len(notes) / max(1, stats.Samples)
	var tick <-chan time.Time
	if cfg.Rate > 0 {
		ticker := time.NewTicker(time.Duration(float64(time.Second) / cfg.Rate))
		defer ticker.Stop()
		tick = ticker.C
	}

	url := cfg.BaseURL + "/notifications"
	for i, n := range notes {
		if tick != nil && i%perSample == 0 {
			select {
			case <-ctx.Done():
				return finish(ctx, stats), ctx.Err()
			case <-tick:
			}
		}
		if err := ctx.Err(); err != nil {
			return finish(ctx, stats), err
		}

		result, err := submit(ctx, client, url, n)
		stats.Submitted++
		switch result {
		case resultAccepted:
			stats.Accepted++
		case resultBackpressure:
			stats.Backpressure++
		default:
			stats.Failed++
			if cfg.Verbose {
				log.Warn(ctx, "notification failed", logger.Int("index", i), logger.Error(err))
			}
		}
	}

	var p model.Prediction
	if ok, err := getJSON(ctx, client, cfg.BaseURL+"/prediction", &p); err != nil {
		log.Warn(ctx, "failed to fetch prediction", logger.Error(err))
	} else if ok {
		log.Info(ctx, "latest prediction", logger.String("class", p.Class), logger.Float64("confidence", p.Confidence))
	}

	return finish(ctx, stats), nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *HTTPClient, baseURL string) error {
	resp, err := client.Get(ctx, baseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	defer resp.Body.Close()

	// Accept any 200 response as healthy (the service returns Prometheus metrics)
	if resp.StatusCode != 200 {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, resp.StatusCode)
	}
	return nil
}

func finish(ctx context.Context, stats *Stats) *Stats {
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)
	return stats
}

// displayFinalStats logs the final replay statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var acceptRate, perSecond float64
	if stats.Submitted > 0 {
		acceptRate = float64(stats.Accepted) / float64(stats.Submitted) * percentageMultiplier
	}
	if stats.Duration > 0 {
		perSecond = float64(stats.Submitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("samples", stats.Samples),
		logger.Int("submitted", stats.Submitted),
		logger.Int("accepted", stats.Accepted),
		logger.Int("backpressure", stats.Backpressure),
		logger.Int("failed", stats.Failed),
		logger.Duration("duration", stats.Duration),
		logger.Float64("acceptRate", acceptRate),
		logger.Float64("notificationsPerSecond", perSecond))
}
