package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	app "github.com/okian/accelstream/internal/app"
	"github.com/okian/accelstream/internal/config"
	"github.com/okian/accelstream/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			// Test with environment variables
			_ = os.Setenv("ACCEL_ADDR", ":8080")
			_ = os.Setenv("ACCEL_QUEUE_SIZE", "1000")
			_ = os.Setenv("ACCEL_SESSION_SECONDS", "30")
			defer func() {
				_ = os.Unsetenv("ACCEL_ADDR")
				_ = os.Unsetenv("ACCEL_QUEUE_SIZE")
				_ = os.Unsetenv("ACCEL_SESSION_SECONDS")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				ctx := context.Background()
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 1000)
				convey.So(cfg.SessionSeconds, convey.ShouldEqual, 30)
			})
		})

		convey.Convey("When testing invalid configuration", func() {
			_ = os.Setenv("ACCEL_ADDR", "")
			defer func() { _ = os.Unsetenv("ACCEL_ADDR") }()

			convey.Convey("Then configuration loading should fail", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestSessionContext(t *testing.T) {
	convey.Convey("Given a parent context", t, func() {
		parent, cancel := context.WithCancel(context.Background())
		defer cancel()

		convey.Convey("When no duration is configured", func() {
			ctx, done := sessionContext(parent, 0)
			defer done()

			convey.Convey("Then the session lasts until the parent ends", func() {
				_, ok := ctx.Deadline()
				convey.So(ok, convey.ShouldBeFalse)
				cancel()
				<-ctx.Done()
			})
		})

		convey.Convey("When a duration is configured", func() {
			ctx, done := sessionContext(parent, 5)
			defer done()

			convey.Convey("Then the session carries a deadline", func() {
				deadline, ok := ctx.Deadline()
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(time.Until(deadline), convey.ShouldBeBetween, 4*time.Second, 6*time.Second)
			})
		})
	})
}

func TestMainApplicationIntegration(t *testing.T) {
	convey.Convey("Given a record session behind the HTTP mux", t, func() {
		ctx := context.Background()
		cfg := config.New()
		cfg.Mode = "record"
		cfg.Activity = "circle"
		cfg.OutputDir = t.TempDir()

		svc := app.New(cfg)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		srv := httptest.NewServer(newMux(ctx, svc, nil))
		defer srv.Close()

		convey.Convey("When notifications are posted", func() {
			for _, p := range []string{"1;2;3;", "4;5;6;"} {
				resp, err := http.Post(srv.URL+"/notifications", "application/json",
					strings.NewReader(`{"source":"nano","payload":"`+p+`"}`))
				convey.So(err, convey.ShouldBeNil)
				_ = resp.Body.Close()
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusAccepted)
			}
			sctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			convey.So(svc.Stop(sctx), convey.ShouldBeNil)

			convey.Convey("Then stats report the stored samples", func() {
				resp, err := http.Get(srv.URL + "/stats")
				convey.So(err, convey.ShouldBeNil)
				defer resp.Body.Close()
				var stats map[string]any
				convey.So(json.NewDecoder(resp.Body).Decode(&stats), convey.ShouldBeNil)
				convey.So(stats["samples"], convey.ShouldEqual, 2.0)
			})

			convey.Convey("Then the recording exists on disk", func() {
				raw, err := os.ReadFile(filepath.Join(cfg.OutputDir, "circle-1.csv"))
				convey.So(err, convey.ShouldBeNil)
				convey.So(string(raw), convey.ShouldEqual, ",accel_x,accel_y,accel_z\n0,1,2,3\n1,4,5,6\n")
			})

			convey.Convey("Then a closed session refuses new notifications", func() {
				resp, err := http.Post(srv.URL+"/notifications", "application/json", strings.NewReader(`{"payload":"1;2;3;"}`))
				convey.So(err, convey.ShouldBeNil)
				_ = resp.Body.Close()
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusServiceUnavailable)
			})
		})

		convey.Convey("When the API docs are requested", func() {
			resp, err := http.Get(srv.URL + "/openapi.yaml")
			convey.So(err, convey.ShouldBeNil)
			_ = resp.Body.Close()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
			sctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			convey.So(svc.Stop(sctx), convey.ShouldBeNil)
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("When testing system metrics updater", func() {
			convey.Convey("Then it should return when the context ends", func() {
				ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				defer cancel()

				convey.So(func() {
					startSystemMetricsUpdater(ctx)
				}, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When testing system metrics update", func() {
			convey.Convey("Then it should update metrics without panicking", func() {
				convey.So(func() {
					updateSystemMetrics()
				}, convey.ShouldNotPanic)
			})
		})
	})
}
