// Command windows turns recorded sessions into labeled look-back frames,
// optionally scores the configured model on the held-out frames and
// classifies every frame of an experiment recording.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"

	"github.com/okian/accelstream/internal/adapters/storage/csvstore"
	app "github.com/okian/accelstream/internal/app"
	"github.com/okian/accelstream/internal/config"
	"github.com/okian/accelstream/internal/domain/model"
	"github.com/okian/accelstream/pkg/logger"
)

func main() {
	var (
		experiment = flag.String("experiment", "", "Recording to classify frame by frame")
		export     = flag.String("export", "", "Directory to write train.json and test.json")
		testRatio  = flag.Float64("test-ratio", app.DefaultTestRatio, "Share of frames held out for testing")
		seed       = flag.Int64("seed", app.DefaultSplitSeed, "Shuffle seed for the train/test split")
	)
	flag.Parse()

	if err := run(context.Background(), *experiment, *export, *testRatio, *seed); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

func run(ctx context.Context, experiment, export string, testRatio float64, seed int64) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.InitWith(os.Stdout, cfg.LogFormat); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	_ = logger.SetLevelString(cfg.LogLevel)
	log := logger.Get().Named("windows")

	recs, err := app.LoadRecordings(ctx, cfg)
	if err != nil {
		return fmt.Errorf("load recordings: %w", err)
	}
	split, err := app.BuildDataset(ctx, cfg, recs, testRatio, seed)
	if err != nil {
		return err
	}
	log.Info(ctx, "dataset built",
		logger.Int("recordings", len(split.Dataset.Loaded)),
		logger.Int("skipped", len(split.Dataset.Skipped)),
		logger.Int("frames", len(split.Dataset.Windows)),
		logger.Int("train", len(split.Train)),
		logger.Int("test", len(split.Test)),
		logger.String("frameShape", fmt.Sprintf("(%d, %d)", cfg.LookBackWindowSize, cfg.NumFeatures)))

	if export != "" {
		if err := exportSplit(export, split); err != nil {
			return err
		}
		log.Info(ctx, "dataset exported", logger.String("dir", export))
	}

	if cfg.ModelFile == "" {
		if experiment != "" {
			return app.ErrNoModel
		}
		return nil
	}
	m, err := app.LoadModel(cfg)
	if err != nil {
		return err
	}
	adapter, err := app.NewAdapter(cfg, m)
	if err != nil {
		return err
	}

	if len(split.Test) > 0 {
		ev, err := app.Evaluate(ctx, adapter, m, split.Test)
		if err != nil {
			return fmt.Errorf("evaluate: %w", err)
		}
		log.Info(ctx, fmt.Sprintf("Test accuracy %.2f%%", ev.Accuracy),
			logger.Int("frames", ev.Frames),
			logger.Int("correct", ev.Correct))
		fmt.Printf("Confusion Matrix\n%v\n", mat.Formatted(ev.Confusion))
	}

	if experiment == "" {
		return nil
	}
	rec, err := csvstore.ReadFile(experiment)
	if err != nil {
		return fmt.Errorf("read experiment: %w", err)
	}
	log.Info(ctx, "loading experiment", logger.String("file", experiment), logger.Int("samples", len(rec.Samples)))
	preds, err := app.Experiment(ctx, adapter, rec.Samples, cfg.LookBackWindowSize)
	for _, p := range preds {
		fmt.Println(p.String())
	}
	return err
}

// frameFile is the exported form of one labeled frame.
type frameFile struct {
	Window [][model.NumFeatures]float64 `json:"window"`
	Label  []float64                    `json:"label"`
}

func exportSplit(dir string, split *app.Split) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	return errors.Join(
		writeFrames(filepath.Join(dir, "train.json"), split.Train),
		writeFrames(filepath.Join(dir, "test.json"), split.Test),
	)
}

func writeFrames(path string, frames []model.LabeledWindow) error {
	out := make([]frameFile, len(frames))
	for i, f := range frames {
		rows := make([][model.NumFeatures]float64, len(f.Samples))
		for j, s := range f.Samples {
			rows[j] = s.Values()
		}
		out[i] = frameFile{Window: rows, Label: f.Label}
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	enc := json.NewEncoder(file)
	if err := enc.Encode(out); err != nil {
		_ = file.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return file.Close()
}
