package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	app "github.com/okian/accelstream/internal/app"
	"github.com/okian/accelstream/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestExportSplit(t *testing.T) {
	convey.Convey("Given a train/test split", t, func() {
		frame := model.LabeledWindow{
			Window: model.Window{Samples: []model.Sample{{X: 1, Y: 2, Z: 3}, {X: 4, Y: 5, Z: 6}}},
			Label:  []float64{0, 1, 0},
		}
		split := &app.Split{Train: []model.LabeledWindow{frame, frame}, Test: []model.LabeledWindow{frame}}
		dir := filepath.Join(t.TempDir(), "export")

		convey.Convey("When it is exported", func() {
			convey.So(exportSplit(dir, split), convey.ShouldBeNil)

			convey.Convey("Then both files hold (W, 3) windows with labels", func() {
				raw, err := os.ReadFile(filepath.Join(dir, "train.json"))
				convey.So(err, convey.ShouldBeNil)
				var train []frameFile
				convey.So(json.Unmarshal(raw, &train), convey.ShouldBeNil)
				convey.So(train, convey.ShouldHaveLength, 2)
				convey.So(train[0].Window[1], convey.ShouldResemble, [model.NumFeatures]float64{4, 5, 6})
				convey.So(train[0].Label, convey.ShouldResemble, []float64{0, 1, 0})

				raw, err = os.ReadFile(filepath.Join(dir, "test.json"))
				convey.So(err, convey.ShouldBeNil)
				var test []frameFile
				convey.So(json.Unmarshal(raw, &test), convey.ShouldBeNil)
				convey.So(test, convey.ShouldHaveLength, 1)
			})
		})
	})
}
