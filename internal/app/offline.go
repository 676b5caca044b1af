package service

import (
	"context"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/okian/accelstream/internal/adapters/storage/csvstore"
	"github.com/okian/accelstream/internal/adapters/storage/sqlitestore"
	"github.com/okian/accelstream/internal/config"
	"github.com/okian/accelstream/internal/domain/classify"
	"github.com/okian/accelstream/internal/domain/model"
	"github.com/okian/accelstream/internal/domain/window"
	"github.com/okian/accelstream/pkg/logger"
)

// Offline defaults.
const (
	DefaultTestRatio = 0.2
	DefaultSplitSeed = 42
)

// LoadRecordings reads every finished recording from the configured store.
func LoadRecordings(ctx context.Context, cfg *config.Config) ([]window.Recording, error) {
	switch cfg.Store {
	case StoreCSV:
		return csvstore.ReadDir(cfg.OutputDir)
	case StoreSQLite:
		db, err := sqlitestore.Open(ctx, DBPath(cfg))
		if err != nil {
			return nil, err
		}
		defer db.Close()
		return db.Recordings(ctx)
	}
	return nil, fmt.Errorf("unknown store %q", cfg.Store)
}

// Split is a labeled dataset divided into train and test frames.
type Split struct {
	Dataset *window.Dataset
	Train   []model.LabeledWindow
	Test    []model.LabeledWindow
}

// BuildDataset labels recordings by name, frames them with the configured
// look-back size and splits off testRatio of the frames.
func BuildDataset(ctx context.Context, cfg *config.Config, recs []window.Recording, testRatio float64, seed int64) (*Split, error) {
	table, err := cfg.ClassTable()
	if err != nil {
		return nil, err
	}
	w, err := window.NewWindower(cfg.LookBackWindowSize)
	if err != nil {
		return nil, err
	}
	ds, err := window.BuildDataset(ctx, recs, table, w, logger.Get().Named("dataset"))
	if err != nil {
		return nil, err
	}
	train, test := ds.Split(testRatio, seed)
	return &Split{Dataset: ds, Train: train, Test: test}, nil
}

// FramePrediction is the classification of one experiment frame.
type FramePrediction struct {
	Index      int     `json:"index"`
	Class      string  `json:"class"`
	Confidence float64 `json:"confidence"`
}

func (f FramePrediction) String() string {
	return fmt.Sprintf("Sample # [%d] Activity [%s] with certainty %.0f%%", f.Index, f.Class, f.Confidence)
}

// Experiment classifies every stride-1 frame of samples, in order.
func Experiment(ctx context.Context, a *classify.Adapter, samples []model.Sample, windowSize int) ([]FramePrediction, error) {
	w, err := window.NewWindower(windowSize)
	if err != nil {
		return nil, err
	}
	frames := w.Build(samples, nil)
	if len(frames) == 0 {
		return nil, fmt.Errorf("%w: %d samples, window %d", window.ErrNoData, len(samples), windowSize)
	}
	out := make([]FramePrediction, 0, len(frames))
	for i, f := range frames {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		p, err := a.Classify(ctx, f.Window)
		if err != nil {
			return out, fmt.Errorf("frame %d: %w", i, err)
		}
		out = append(out, FramePrediction{Index: i, Class: p.Class, Confidence: p.Confidence})
	}
	return out, nil
}

// Evaluation summarizes classifier accuracy over labeled frames.
type Evaluation struct {
	Frames   int
	Correct  int
	Accuracy float64 // percent
	// Confusion[i][j] counts frames labeled class i and predicted class j.
	Confusion *mat.Dense
}

// Evaluate runs c on every frame and compares the arg-max of its output
// with the arg-max of the frame label.
func Evaluate(ctx context.Context, a *classify.Adapter, c classify.Classifier, frames []model.LabeledWindow) (*Evaluation, error) {
	if len(frames) == 0 {
		return nil, window.ErrNoData
	}
	n := len(frames[0].Label)
	if n == 0 {
		return nil, errors.New("frames carry no labels")
	}
	ev := &Evaluation{Frames: len(frames), Confusion: mat.NewDense(n, n, nil)}
	for i, f := range frames {
		t, err := a.Reshape(f.Window)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		out, err := c.Predict(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		if len(out) != n || len(f.Label) != n {
			return nil, fmt.Errorf("frame %d: %w", i, classify.ErrOutputSize)
		}
		want, got := floats.MaxIdx(f.Label), floats.MaxIdx(out)
		ev.Confusion.Set(want, got, ev.Confusion.At(want, got)+1)
		if want == got {
			ev.Correct++
		}
	}
	ev.Accuracy = 100 * float64(ev.Correct) / float64(ev.Frames)
	return ev, nil
}
