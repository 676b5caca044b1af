package model_test

import (
	"testing"

	"github.com/okian/accelstream/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestAxis(t *testing.T) {
	convey.Convey("Given axis names", t, func() {
		for in, want := range map[string]model.Axis{"x": model.AxisX, "Y": model.AxisY, " z ": model.AxisZ, "": model.AxisNone} {
			got, err := model.ParseAxis(in)
			convey.So(err, convey.ShouldBeNil)
			convey.So(got, convey.ShouldEqual, want)
		}

		_, err := model.ParseAxis("w")
		convey.So(err, convey.ShouldNotBeNil)

		convey.So(model.AxisX.Index(), convey.ShouldEqual, 0)
		convey.So(model.AxisZ.Index(), convey.ShouldEqual, 2)
		convey.So(model.AxisNone.Index(), convey.ShouldEqual, -1)
		convey.So(model.AxisY.String(), convey.ShouldEqual, "y")
	})
}

func TestWindowFeatures(t *testing.T) {
	convey.Convey("Given a two-sample window", t, func() {
		w := model.Window{Samples: []model.Sample{{X: 1, Y: 2, Z: 3}, {X: 4, Y: 5, Z: 6}}}

		convey.Convey("Then features are row-major and shape is (2, 3)", func() {
			convey.So(w.Features(), convey.ShouldResemble, []float64{1, 2, 3, 4, 5, 6})
			convey.So(w.Shape(), convey.ShouldResemble, [2]int{2, 3})
			convey.So(w.Len(), convey.ShouldEqual, 2)
		})

		convey.Convey("Then mutating features does not touch the samples", func() {
			f := w.Features()
			f[0] = 99
			convey.So(w.Samples[0].X, convey.ShouldEqual, 1)
		})
	})
}

func TestClassTable(t *testing.T) {
	convey.Convey("Given a class table", t, func() {
		circle, err := model.NewClassDef("circle", []float64{1, 0, 0}, "")
		convey.So(err, convey.ShouldBeNil)
		stationary, err := model.NewClassDef("stationary", []float64{0, 1, 0}, "")
		convey.So(err, convey.ShouldBeNil)
		upDown, err := model.NewClassDef("up-down", []float64{0, 0, 1}, `^(up-down|updown).*\.csv$`)
		convey.So(err, convey.ShouldBeNil)
		table := model.ClassTable{circle, stationary, upDown}

		convey.Convey("When resolving file names", func() {
			c, ok := table.Resolve("circle-3.csv")
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(c.Name, convey.ShouldEqual, "circle")

			c, ok = table.Resolve("updown-1.csv")
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(c.Name, convey.ShouldEqual, "up-down")

			_, ok = table.Resolve("experiment-1.csv")
			convey.So(ok, convey.ShouldBeFalse)

			_, ok = table.Resolve("circle-3.txt")
			convey.So(ok, convey.ShouldBeFalse)
		})

		convey.Convey("When matching prediction vectors", func() {
			convey.So(table.Match([]float64{0, 1, 0}), convey.ShouldEqual, "stationary")
			convey.So(table.Match([]float64{1, 1, 0}), convey.ShouldEqual, model.UnknownClass)
			convey.So(table.Match([]float64{0, 0, 0}), convey.ShouldEqual, model.UnknownClass)
			convey.So(table.Match([]float64{1, 0}), convey.ShouldEqual, model.UnknownClass)
		})

		convey.Convey("When a pattern does not compile", func() {
			_, err := model.NewClassDef("bad", []float64{1}, "(")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}
