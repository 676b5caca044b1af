package window_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/okian/accelstream/internal/domain/model"
	"github.com/okian/accelstream/internal/domain/window"
	"github.com/okian/accelstream/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func seq(n int) []model.Sample {
	out := make([]model.Sample, n)
	for i := range out {
		f := float64(i + 1)
		out[i] = model.Sample{X: f, Y: f * 10, Z: f * 100}
	}
	return out
}

func TestBuffer(t *testing.T) {
	Convey("Given a rolling buffer of capacity 5", t, func() {
		b, err := window.NewBuffer(5)
		So(err, ShouldBeNil)
		s := seq(7)

		Convey("When pushing s1..s7", func() {
			full := make([]bool, 0, 7)
			for _, x := range s {
				b.Push(x)
				full = append(full, b.IsFull())
			}

			Convey("Then it is full only from the fifth push on", func() {
				So(full, ShouldResemble, []bool{false, false, false, false, true, true, true})
				So(b.Len(), ShouldEqual, 5)
				So(b.Cap(), ShouldEqual, 5)
			})

			Convey("Then the snapshot is s3..s7 in order", func() {
				w, err := b.Snapshot()
				So(err, ShouldBeNil)
				So(cmp.Diff(s[2:7], w.Samples), ShouldBeEmpty)
			})

			Convey("Then the snapshot is a copy", func() {
				w, _ := b.Snapshot()
				w.Samples[0].X = -1
				again, _ := b.Snapshot()
				So(again.Samples[0].X, ShouldEqual, 3)
			})
		})

		Convey("When it is not yet full", func() {
			b.Push(s[0])
			_, err := b.Snapshot()

			Convey("Then snapshot reports the precondition violation", func() {
				So(errors.Is(err, window.ErrBufferNotReady), ShouldBeTrue)
			})
		})

		Convey("When reset", func() {
			for _, x := range s {
				b.Push(x)
			}
			b.Reset()
			So(b.Len(), ShouldEqual, 0)
			So(b.IsFull(), ShouldBeFalse)
		})
	})

	Convey("Given an invalid capacity", t, func() {
		_, err := window.NewBuffer(0)
		So(errors.Is(err, window.ErrInvalidSize), ShouldBeTrue)
	})
}

func TestWindower(t *testing.T) {
	Convey("Given a windower of size 20", t, func() {
		w, err := window.NewWindower(20)
		So(err, ShouldBeNil)
		label := []float64{0, 1, 0}

		Convey("When framing 25 samples", func() {
			in := seq(25)
			frames := w.Build(in, label)

			Convey("Then 6 stride-1 frames are produced", func() {
				So(frames, ShouldHaveLength, 6)
				So(cmp.Diff(in[0:20], frames[0].Samples), ShouldBeEmpty)
				So(cmp.Diff(in[5:25], frames[5].Samples), ShouldBeEmpty)
				for _, f := range frames {
					So(f.Label, ShouldResemble, label)
					So(f.Shape(), ShouldResemble, [2]int{20, 3})
				}
			})

			Convey("Then the input is left untouched and frames are independent", func() {
				frames[0].Samples[0].X = -1
				frames[0].Label[1] = 7
				So(in[0].X, ShouldEqual, 1)
				So(frames[1].Label[1], ShouldEqual, 1)
				So(label[1], ShouldEqual, 1)
			})
		})

		Convey("When framing 10 samples", func() {
			frames := w.Build(seq(10), label)

			Convey("Then no frames are produced and nothing fails", func() {
				So(frames, ShouldBeEmpty)
			})
		})

		Convey("When framing exactly 20 samples", func() {
			So(w.Build(seq(20), label), ShouldHaveLength, 1)
		})
	})

	Convey("Given an invalid size", t, func() {
		_, err := window.NewWindower(-3)
		So(errors.Is(err, window.ErrInvalidSize), ShouldBeTrue)
	})
}

func classTable() model.ClassTable {
	circle, _ := model.NewClassDef("circle", []float64{1, 0, 0}, "")
	stationary, _ := model.NewClassDef("stationary", []float64{0, 1, 0}, "")
	upDown, _ := model.NewClassDef("up-down", []float64{0, 0, 1}, "")
	return model.ClassTable{circle, stationary, upDown}
}

func TestBuildDataset(t *testing.T) {
	Convey("Given recordings of known and unknown provenance", t, func() {
		ctx := context.Background()
		w, _ := window.NewWindower(3)
		recs := []window.Recording{
			{Name: "circle-1.csv", Samples: seq(5)},
			{Name: "mystery-1.csv", Samples: seq(50)},
			{Name: "up-down-1.csv", Samples: seq(4)},
		}

		Convey("When building the dataset", func() {
			ds, err := window.BuildDataset(ctx, recs, classTable(), w, logger.Get())

			Convey("Then frames are concatenated in recording order", func() {
				So(err, ShouldBeNil)
				So(ds.Windows, ShouldHaveLength, 3+2)
				So(ds.Windows[0].Label, ShouldResemble, []float64{1, 0, 0})
				So(ds.Windows[4].Label, ShouldResemble, []float64{0, 0, 1})
				So(ds.Loaded, ShouldResemble, []string{"circle-1.csv", "up-down-1.csv"})
			})

			Convey("Then the unknown recording is skipped, not an error", func() {
				So(ds.Skipped, ShouldResemble, []string{"mystery-1.csv"})
			})

			Convey("Then the split is deterministic and covers every frame", func() {
				train, test := ds.Split(0.2, 42)
				So(test, ShouldHaveLength, 1)
				So(train, ShouldHaveLength, 4)
				train2, test2 := ds.Split(0.2, 42)
				So(cmp.Diff(train, train2), ShouldBeEmpty)
				So(cmp.Diff(test, test2), ShouldBeEmpty)
			})
		})

		Convey("When no recording matches a class", func() {
			_, err := window.BuildDataset(ctx, recs[1:2], classTable(), w, nil)
			So(errors.Is(err, window.ErrNoData), ShouldBeTrue)
		})

		Convey("When every matching recording is too short", func() {
			short := []window.Recording{{Name: "circle-2.csv", Samples: seq(2)}}
			ds, err := window.BuildDataset(ctx, short, classTable(), w, nil)
			So(errors.Is(err, window.ErrNoData), ShouldBeTrue)
			So(ds.Loaded, ShouldHaveLength, 1)
		})
	})
}
