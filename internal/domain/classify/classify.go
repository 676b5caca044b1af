// Package classify adapts look-back windows to an attached classifier and
// normalizes its output into a prediction.
package classify

import (
	"context"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/okian/accelstream/internal/domain/model"
)

// Classifier is the capability a trained model exposes. Any model family
// (sequence, convolutional, flat) implements it.
type Classifier interface {
	// InputShape returns the physical input shape including the batch
	// dimension of 1.
	InputShape() Shape
	// Predict returns one probability per class, in class table order.
	Predict(ctx context.Context, in Tensor) ([]float64, error)
	// Ready reports whether weights have been loaded or trained.
	Ready() bool
}

// Adapter reshapes windows for a classifier and interprets its output.
type Adapter struct {
	classifier Classifier
	classes    model.ClassTable
	window     int
	features   int
	shape      Shape
	now        func() time.Time
}

// NewAdapter binds a classifier to a class table and window geometry.
// Shape or class table mismatches are wiring errors and are returned here
// rather than at classification time.
func NewAdapter(c Classifier, classes model.ClassTable, windowSize, features int) (*Adapter, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: nil classifier", ErrNotReady)
	}
	if err := validateClasses(classes); err != nil {
		return nil, err
	}
	shape := c.InputShape()
	if err := validateShape(shape, windowSize, features); err != nil {
		return nil, err
	}
	return &Adapter{
		classifier: c,
		classes:    classes,
		window:     windowSize,
		features:   features,
		shape:      append(Shape(nil), shape...),
		now:        time.Now,
	}, nil
}

func validateClasses(classes model.ClassTable) error {
	if len(classes) == 0 {
		return fmt.Errorf("%w: no classes", ErrClassTable)
	}
	for _, c := range classes {
		if len(c.OneHot) != len(classes) {
			return fmt.Errorf("%w: class %q has %d-wide vector for %d classes", ErrClassTable, c.Name, len(c.OneHot), len(classes))
		}
		ones := 0
		for _, v := range c.OneHot {
			switch v {
			case 1:
				ones++
			case 0:
			default:
				return fmt.Errorf("%w: class %q vector is not one-hot", ErrClassTable, c.Name)
			}
		}
		if ones != 1 {
			return fmt.Errorf("%w: class %q vector is not one-hot", ErrClassTable, c.Name)
		}
	}
	return nil
}

// Shape returns the physical shape tensors are relabeled to.
func (a *Adapter) Shape() Shape { return append(Shape(nil), a.shape...) }

// Reshape relabels a (W, F) window into the classifier's physical shape.
// Values are copied in row-major order, unchanged.
func (a *Adapter) Reshape(w model.Window) (Tensor, error) {
	if w.Len() != a.window {
		return Tensor{}, fmt.Errorf("%w: got %d samples, want %d", ErrWindowSize, w.Len(), a.window)
	}
	return Tensor{Shape: a.Shape(), Data: w.Features()}, nil
}

// Classify runs the classifier over one window. Confidence is the highest
// probability as a percentage; the class is the table entry whose one-hot
// vector equals the rounded probabilities, or "Unknown" when none does.
func (a *Adapter) Classify(ctx context.Context, w model.Window) (model.Prediction, error) {
	if !a.classifier.Ready() {
		return model.Prediction{}, ErrNotReady
	}
	in, err := a.Reshape(w)
	if err != nil {
		return model.Prediction{}, err
	}
	probs, err := a.classifier.Predict(ctx, in)
	if err != nil {
		return model.Prediction{}, fmt.Errorf("predict: %w", err)
	}
	if len(probs) != len(a.classes) {
		return model.Prediction{}, fmt.Errorf("%w: got %d values for %d classes", ErrOutputSize, len(probs), len(a.classes))
	}

	rounded := make([]float64, len(probs))
	for i, p := range probs {
		if !(p >= 0 && p <= 1) {
			return model.Prediction{}, fmt.Errorf("%w: output %d is %v", ErrOutputRange, i, p)
		}
		// half to even, as the training side rounds
		rounded[i] = math.RoundToEven(p)
	}

	var source string
	if len(w.Samples) > 0 {
		source = w.Samples[len(w.Samples)-1].Source
	}
	return model.Prediction{
		Confidence: floats.Max(probs) * 100,
		Class:      a.classes.Match(rounded),
		Source:     source,
		At:         a.now(),
	}, nil
}
