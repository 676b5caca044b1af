package classify_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/okian/accelstream/internal/domain/classify"
	"github.com/okian/accelstream/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeClassifier struct {
	shape classify.Shape
	ready bool
	out   []float64
	err   error
	seen  classify.Tensor
}

func (f *fakeClassifier) InputShape() classify.Shape { return f.shape }
func (f *fakeClassifier) Ready() bool                { return f.ready }
func (f *fakeClassifier) Predict(_ context.Context, in classify.Tensor) ([]float64, error) {
	f.seen = in
	return f.out, f.err
}

func classes() model.ClassTable {
	circle, _ := model.NewClassDef("circle", []float64{1, 0, 0}, "")
	stationary, _ := model.NewClassDef("stationary", []float64{0, 1, 0}, "")
	upDown, _ := model.NewClassDef("up-down", []float64{0, 0, 1}, "")
	return model.ClassTable{circle, stationary, upDown}
}

func window(n int) model.Window {
	w := model.Window{}
	for i := 0; i < n; i++ {
		f := float64(i)
		w.Samples = append(w.Samples, model.Sample{X: f, Y: f + 0.1, Z: f + 0.2, Source: "nano"})
	}
	return w
}

func TestNewAdapter(t *testing.T) {
	Convey("Given classifiers declaring various input shapes", t, func() {
		accepted := []classify.Shape{{1, 4, 3}, {1, 4, 3, 1}, {1, 12}}
		for _, s := range accepted {
			_, err := classify.NewAdapter(&fakeClassifier{shape: s}, classes(), 4, 3)
			So(err, ShouldBeNil)
		}

		rejected := []classify.Shape{{4, 3}, {2, 4, 3}, {1, 5, 3}, {1, 4, 3, 2}, {1, 11}, {}}
		for _, s := range rejected {
			_, err := classify.NewAdapter(&fakeClassifier{shape: s}, classes(), 4, 3)
			So(errors.Is(err, classify.ErrShapeMismatch), ShouldBeTrue)

			var sm *classify.ShapeMismatchError
			So(errors.As(err, &sm), ShouldBeTrue)
			So(sm.Window, ShouldEqual, 4)
			So(sm.Features, ShouldEqual, 3)
		}
	})

	Convey("Given a malformed class table", t, func() {
		bad, _ := model.NewClassDef("circle", []float64{1, 1, 0}, "")
		table := classes()
		table[0] = bad
		_, err := classify.NewAdapter(&fakeClassifier{shape: classify.Shape{1, 4, 3}}, table, 4, 3)
		So(errors.Is(err, classify.ErrClassTable), ShouldBeTrue)

		_, err = classify.NewAdapter(&fakeClassifier{shape: classify.Shape{1, 4, 3}}, classes()[:2], 4, 3)
		So(errors.Is(err, classify.ErrClassTable), ShouldBeTrue)
	})

	Convey("Given no classifier", t, func() {
		_, err := classify.NewAdapter(nil, classes(), 4, 3)
		So(errors.Is(err, classify.ErrNotReady), ShouldBeTrue)
	})
}

func TestClassify(t *testing.T) {
	Convey("Given a ready 2-D conv style classifier", t, func() {
		ctx := context.Background()
		fc := &fakeClassifier{shape: classify.Shape{1, 4, 3, 1}, ready: true, out: []float64{0.05, 0.9, 0.05}}
		a, err := classify.NewAdapter(fc, classes(), 4, 3)
		So(err, ShouldBeNil)

		Convey("When classifying a window", func() {
			p, err := a.Classify(ctx, window(4))

			Convey("Then the tensor is a pure relabel of the window", func() {
				So(err, ShouldBeNil)
				So(fc.seen.Shape, ShouldResemble, classify.Shape{1, 4, 3, 1})
				So(fc.seen.Data, ShouldResemble, window(4).Features())
			})

			Convey("Then the result names the matching class", func() {
				So(p.Class, ShouldEqual, "stationary")
				So(p.Confidence, ShouldAlmostEqual, 90, 1e-9)
				So(p.Source, ShouldEqual, "nano")
			})
		})

		Convey("When the output rounds to an unregistered combination", func() {
			fc.out = []float64{0.5, 0.5, 0.0}
			p, err := a.Classify(ctx, window(4))
			So(err, ShouldBeNil)
			So(p.Class, ShouldEqual, model.UnknownClass)

			fc.out = []float64{0.7, 0.6, 0.0}
			p, err = a.Classify(ctx, window(4))
			So(err, ShouldBeNil)
			So(p.Class, ShouldEqual, model.UnknownClass)
			So(p.Confidence, ShouldAlmostEqual, 70, 1e-9)

			fc.out = []float64{0.34, 0.33, 0.33}
			p, err = a.Classify(ctx, window(4))
			So(err, ShouldBeNil)
			So(p.Class, ShouldEqual, model.UnknownClass)
		})

		Convey("When the window has the wrong length", func() {
			_, err := a.Classify(ctx, window(3))
			So(errors.Is(err, classify.ErrWindowSize), ShouldBeTrue)
		})

		Convey("When the classifier returns the wrong number of values", func() {
			fc.out = []float64{1, 0}
			_, err := a.Classify(ctx, window(4))
			So(errors.Is(err, classify.ErrOutputSize), ShouldBeTrue)
		})

		Convey("When the classifier returns values that are not probabilities", func() {
			for _, out := range [][]float64{{1.7, -0.7, 0}, {0.2, 0.3, math.NaN()}} {
				fc.out = out
				_, err := a.Classify(ctx, window(4))
				So(errors.Is(err, classify.ErrOutputRange), ShouldBeTrue)
			}
		})

		Convey("When the classifier fails", func() {
			fc.err = errors.New("interpreter crashed")
			_, err := a.Classify(ctx, window(4))
			So(err, ShouldNotBeNil)
		})

		Convey("When the classifier is not loaded", func() {
			fc.ready = false
			_, err := a.Classify(ctx, window(4))
			So(errors.Is(err, classify.ErrNotReady), ShouldBeTrue)
		})
	})
}

func TestShape(t *testing.T) {
	Convey("Given shapes", t, func() {
		So(classify.Shape{1, 20, 3, 1}.Size(), ShouldEqual, 60)
		So(classify.Shape{}.Size(), ShouldEqual, 0)
		So(classify.Shape{1, 20, 3}.String(), ShouldEqual, "(1, 20, 3)")
		So(classify.Shape{1, 2}.Equal(classify.Shape{1, 2}), ShouldBeTrue)
		So(classify.Shape{1, 2}.Equal(classify.Shape{1, 2, 1}), ShouldBeFalse)
	})
}
