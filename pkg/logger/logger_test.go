package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	err := Init()
	if err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}
}

func TestLoggerFormats(t *testing.T) {
	Convey("Given a logger writing JSON to a buffer", t, func() {
		var buf bytes.Buffer
		So(InitWith(&buf, "json"), ShouldBeNil)
		ctx := context.Background()

		Convey("When logging with fields", func() {
			Get().Info(ctx, "sample assembled",
				String("peripheral", "left"),
				Int("in_flight", 2),
				Bool("complete", true),
				Duration("elapsed", 5*time.Millisecond),
				Error(errors.New("boom")))

			Convey("Then the line is valid JSON carrying the message", func() {
				var line map[string]any
				So(json.Unmarshal(buf.Bytes(), &line), ShouldBeNil)
				So(line["msg"], ShouldEqual, "sample assembled")
				So(line["in_flight"], ShouldEqual, 2.0)
				So(line["complete"], ShouldEqual, true)
			})
		})

		Convey("When the level filters a message", func() {
			So(SetLevelString("warn"), ShouldBeNil)
			Get().Debug(ctx, "hidden")
			Get().Info(ctx, "hidden too")

			Convey("Then nothing is written", func() {
				So(buf.Len(), ShouldEqual, 0)
			})
			So(SetLevelString("info"), ShouldBeNil)
		})

		Convey("When using a named logger", func() {
			Named("assembler").Warn(ctx, "evicted")

			Convey("Then fields are grouped under the name", func() {
				So(buf.String(), ShouldContainSubstring, `"assembler"`)
			})
		})
	})

	Convey("Given a text logger", t, func() {
		var buf bytes.Buffer
		So(InitWith(&buf, "TEXT"), ShouldBeNil)
		Get().Info(context.Background(), "hello", String("k", "v"))

		So(strings.Contains(buf.String(), "msg=hello"), ShouldBeTrue)
		So(buf.String(), ShouldContainSubstring, "k=v")
	})

	Convey("Given an unknown format", t, func() {
		So(InitWith(&bytes.Buffer{}, "xml"), ShouldNotBeNil)
		So(Init(), ShouldBeNil)
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given level strings", t, func() {
		for _, lvl := range []string{"debug", "INFO", "", "warning", "warn", "error"} {
			So(SetLevelString(lvl), ShouldBeNil)
		}
		So(SetLevelString("verbose"), ShouldNotBeNil)
		So(SetLevelString("info"), ShouldBeNil)
	})
}
