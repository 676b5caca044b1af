package window

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/okian/accelstream/internal/domain/model"
	"github.com/okian/accelstream/pkg/logger"
	"github.com/okian/accelstream/pkg/metrics"
)

// Recording is one class-labeled source file: its base name and samples
// in recorded order.
type Recording struct {
	Name    string
	Samples []model.Sample
}

// Dataset is the concatenation of labeled frames from several recordings.
type Dataset struct {
	Windows []model.LabeledWindow
	Loaded  []string // recordings that contributed, in input order
	Skipped []string // recordings with no matching class
}

// BuildDataset resolves each recording's class by name (first match in
// table order wins), frames it and concatenates the results. Recordings
// that match no class are skipped with a warning. ErrNoData is returned
// when nothing usable remains.
func BuildDataset(ctx context.Context, recs []Recording, table model.ClassTable, w *Windower, log logger.Logger) (*Dataset, error) {
	ds := &Dataset{}
	for _, rec := range recs {
		class, ok := table.Resolve(rec.Name)
		if !ok {
			ds.Skipped = append(ds.Skipped, rec.Name)
			metrics.RecordRecordingSkipped()
			if log != nil {
				log.Warn(ctx, "skipping recording of unknown class", logger.String("recording", rec.Name))
			}
			continue
		}
		frames := w.Build(rec.Samples, class.OneHot)
		if log != nil {
			log.Info(ctx, "loaded recording",
				logger.String("recording", rec.Name),
				logger.String("class", class.Name),
				logger.Int("samples", len(rec.Samples)),
				logger.Int("windows", len(frames)))
		}
		ds.Loaded = append(ds.Loaded, rec.Name)
		ds.Windows = append(ds.Windows, frames...)
	}
	metrics.RecordWindowsBuilt(len(ds.Windows))

	if len(ds.Loaded) == 0 {
		return ds, fmt.Errorf("%w: none of %d recordings matched a class", ErrNoData, len(recs))
	}
	if len(ds.Windows) == 0 {
		return ds, fmt.Errorf("%w: recordings shorter than window size %d", ErrNoData, w.Size())
	}
	return ds, nil
}

// Split shuffles a copy of the frames with a fixed seed and splits off
// testRatio of them (rounded up) as a test set.
func (d *Dataset) Split(testRatio float64, seed int64) (train, test []model.LabeledWindow) {
	all := make([]model.LabeledWindow, len(d.Windows))
	copy(all, d.Windows)
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // deterministic split
	rng.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })

	nTest := int(math.Ceil(float64(len(all)) * testRatio))
	nTest = min(max(nTest, 0), len(all))
	return all[nTest:], all[:nTest]
}
