package assemble_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/okian/accelstream/internal/domain/assemble"
	"github.com/okian/accelstream/internal/domain/decode"
	"github.com/okian/accelstream/internal/domain/model"
	"github.com/okian/accelstream/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func axisUpdate(source string, axis model.Axis, value string) model.Notification {
	return model.Notification{Source: source, Axis: axis, Payload: value}
}

// feed runs updates through a and collects every emitted sample along with
// the index of the update that completed it.
func feed(a *assemble.Assembler, updates ...model.Notification) ([]model.Sample, []int) {
	var (
		out []model.Sample
		at  []int
	)
	for i, u := range updates {
		s, ok, err := a.Assemble(context.Background(), u)
		So(err, ShouldBeNil)
		if ok {
			out = append(out, s)
			at = append(at, i)
		}
	}
	return out, at
}

func TestPackedMode(t *testing.T) {
	Convey("Given a packed-mode assembler", t, func() {
		a := assemble.New(assemble.WithMode(assemble.ModePacked))

		Convey("When a full record arrives", func() {
			s, ok, err := a.Assemble(context.Background(), model.Notification{Source: "nano", Payload: []byte("1.0;2.0;3.0;")})

			Convey("Then it is emitted immediately", func() {
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(s, ShouldResemble, model.Sample{X: 1, Y: 2, Z: 3, Source: "nano"})
				So(a.InFlight(), ShouldEqual, 0)
			})
		})

		Convey("When the record is malformed", func() {
			_, ok, err := a.Assemble(context.Background(), model.Notification{Payload: "1.0;2.0"})

			Convey("Then a decode error is reported", func() {
				So(ok, ShouldBeFalse)
				So(errors.Is(err, decode.ErrDecode), ShouldBeTrue)
			})
		})
	})
}

func TestPerAxisSingleSource(t *testing.T) {
	Convey("Given a per-axis assembler", t, func() {
		a := assemble.New(assemble.WithMode(assemble.ModePerAxis))

		Convey("When x, y and z arrive in order", func() {
			samples, at := feed(a,
				axisUpdate("", model.AxisX, "0.1"),
				axisUpdate("", model.AxisY, "0.2"),
				axisUpdate("", model.AxisZ, "0.3"),
			)

			Convey("Then exactly one sample is emitted after the third update", func() {
				So(samples, ShouldHaveLength, 1)
				So(at, ShouldResemble, []int{2})
				So(samples[0], ShouldResemble, model.Sample{X: 0.1, Y: 0.2, Z: 0.3})
				So(a.InFlight(), ShouldEqual, 0)
			})
		})

		Convey("When axes arrive out of order", func() {
			samples, _ := feed(a,
				axisUpdate("", model.AxisZ, "3"),
				axisUpdate("", model.AxisX, "1"),
				axisUpdate("", model.AxisY, "2"),
			)

			Convey("Then each value lands in its own slot", func() {
				So(samples, ShouldResemble, []model.Sample{{X: 1, Y: 2, Z: 3}})
			})
		})

		Convey("When updates carry the axis in-band", func() {
			samples, _ := feed(a,
				axisUpdate("", model.AxisNone, "x;1"),
				axisUpdate("", model.AxisNone, "y;2"),
				axisUpdate("", model.AxisNone, "z;3"),
			)

			So(samples, ShouldResemble, []model.Sample{{X: 1, Y: 2, Z: 3}})
		})

		Convey("When a malformed update interrupts a sample", func() {
			ctx := context.Background()
			_, _, err := a.Assemble(ctx, axisUpdate("", model.AxisX, "1"))
			So(err, ShouldBeNil)
			_, ok, err := a.Assemble(ctx, axisUpdate("", model.AxisY, "bogus"))
			So(ok, ShouldBeFalse)
			So(errors.Is(err, decode.ErrDecode), ShouldBeTrue)
			So(a.InFlight(), ShouldEqual, 1)

			samples, _ := feed(a,
				axisUpdate("", model.AxisY, "2"),
				axisUpdate("", model.AxisZ, "3"),
			)

			Convey("Then the in-flight sample is unaffected", func() {
				So(samples, ShouldResemble, []model.Sample{{X: 1, Y: 2, Z: 3}})
				So(a.Evictions(), ShouldEqual, 0)
			})
		})

		Convey("When an axis repeats before the sample completes", func() {
			samples, _ := feed(a,
				axisUpdate("", model.AxisX, "1"),
				axisUpdate("", model.AxisY, "2"),
				axisUpdate("", model.AxisX, "10"),
				axisUpdate("", model.AxisY, "20"),
				axisUpdate("", model.AxisZ, "30"),
			)

			Convey("Then the stale partial is evicted, never merged", func() {
				So(samples, ShouldResemble, []model.Sample{{X: 10, Y: 20, Z: 30}})
				So(a.Evictions(), ShouldEqual, 1)
			})
		})
	})

	Convey("Given an assembler allowing overlapping partials", t, func() {
		a := assemble.New(assemble.WithMode(assemble.ModePerAxis), assemble.WithMaxInFlight(2))

		Convey("When two samples interleave on one source", func() {
			samples, at := feed(a,
				axisUpdate("", model.AxisX, "1"),
				axisUpdate("", model.AxisX, "4"),
				axisUpdate("", model.AxisY, "2"),
				axisUpdate("", model.AxisY, "5"),
				axisUpdate("", model.AxisZ, "3"),
				axisUpdate("", model.AxisZ, "6"),
			)

			Convey("Then the first unfilled slot is used and both complete in order", func() {
				So(samples, ShouldResemble, []model.Sample{{X: 1, Y: 2, Z: 3}, {X: 4, Y: 5, Z: 6}})
				So(at, ShouldResemble, []int{4, 5})
				So(a.Evictions(), ShouldEqual, 0)
			})
		})
	})
}

func TestPerAxisMultipleSources(t *testing.T) {
	Convey("Given two sources interleaving on one assembler", t, func() {
		a := assemble.New(assemble.WithMode(assemble.ModePerAxis))

		samples, _ := feed(a,
			axisUpdate("A", model.AxisX, "1"),
			axisUpdate("B", model.AxisX, "-1"),
			axisUpdate("B", model.AxisY, "-2"),
			axisUpdate("A", model.AxisY, "2"),
			axisUpdate("A", model.AxisZ, "3"),
			axisUpdate("B", model.AxisZ, "-3"),
		)

		Convey("Then each sample carries only its own source's values", func() {
			want := []model.Sample{
				{X: 1, Y: 2, Z: 3, Source: "A"},
				{X: -1, Y: -2, Z: -3, Source: "B"},
			}
			So(cmp.Diff(want, samples), ShouldBeEmpty)
		})
	})

	Convey("Given a source limit of two", t, func() {
		a := assemble.New(assemble.WithMode(assemble.ModePerAxis), assemble.WithMaxSources(2))

		feed(a,
			axisUpdate("A", model.AxisX, "1"),
			axisUpdate("B", model.AxisX, "1"),
			axisUpdate("B", model.AxisY, "1"),
			axisUpdate("C", model.AxisX, "1"),
		)

		Convey("Then the least recently touched source is dropped", func() {
			So(a.Evictions(), ShouldEqual, 1)
			So(a.InFlight(), ShouldEqual, 2)

			samples, _ := feed(a,
				axisUpdate("A", model.AxisY, "2"),
				axisUpdate("A", model.AxisZ, "3"),
			)
			So(samples, ShouldBeEmpty)
		})
	})
}

func TestEvictionLogging(t *testing.T) {
	Convey("Given a one-source assembler logging JSON", t, func() {
		var buf bytes.Buffer
		So(logger.InitWith(&buf, "json"), ShouldBeNil)
		Reset(func() { _ = logger.Init() })

		a := assemble.New(
			assemble.WithMode(assemble.ModePerAxis),
			assemble.WithMaxInFlight(2),
			assemble.WithMaxSources(1),
		)

		Convey("When a second source displaces one holding two partials", func() {
			feed(a,
				axisUpdate("left-wrist", model.AxisX, "1"),
				axisUpdate("left-wrist", model.AxisX, "2"),
				axisUpdate("right-wrist", model.AxisX, "3"),
			)

			Convey("Then both partials are counted and the peripheral is named in the log", func() {
				So(a.Evictions(), ShouldEqual, 2)
				So(a.InFlight(), ShouldEqual, 1)

				var line map[string]any
				So(json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line), ShouldBeNil)
				fields, ok := line["assembler"].(map[string]any)
				So(ok, ShouldBeTrue)
				So(fields["peripheral"], ShouldEqual, "left-wrist")
				So(fields["partials"], ShouldEqual, 2.0)
				So(fields["source"], ShouldContainSubstring, "assembler.go")
			})
		})
	})
}

func TestDiscard(t *testing.T) {
	Convey("Given open partials at session end", t, func() {
		a := assemble.New(assemble.WithMode(assemble.ModePerAxis))
		feed(a,
			axisUpdate("A", model.AxisX, "1"),
			axisUpdate("B", model.AxisY, "1"),
		)

		Convey("When discarding", func() {
			n := a.Discard()

			Convey("Then they are dropped without error", func() {
				So(n, ShouldEqual, 2)
				So(a.InFlight(), ShouldEqual, 0)
			})
		})
	})
}

func TestParseMode(t *testing.T) {
	Convey("Given wire mode names", t, func() {
		m, err := assemble.ParseMode("per_axis")
		So(err, ShouldBeNil)
		So(m, ShouldEqual, assemble.ModePerAxis)

		_, err = assemble.ParseMode("axis")
		So(errors.Is(err, assemble.ErrUnknownMode), ShouldBeTrue)
	})
}
