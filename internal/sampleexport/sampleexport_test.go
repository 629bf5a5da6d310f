package sampleexport

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/compass-wrapped/internal/adapters/http/api"
	service "github.com/okian/compass-wrapped/internal/app"
	"github.com/okian/compass-wrapped/internal/domain/analytics"
	"github.com/okian/compass-wrapped/internal/domain/normalize"
	"github.com/okian/compass-wrapped/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func init() {
	_ = logger.Init()
	_ = logger.SetLevelString("error")
}

func testConfig() *Config {
	return &Config{
		Riders:        6,
		TripsPerRider: 20,
		Days:          28,
		Start:         time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC),
		Workers:       3,
		Timeout:       5 * time.Second,
		Seed:          42,
		WithEstimate:  true,
	}
}

func TestGenerate(t *testing.T) {
	Convey("Given a seeded configuration", t, func() {
		cfg := testConfig()

		Convey("When generating the same rider twice", func() {
			a, errA := Generate(cfg, 3)
			b, errB := Generate(cfg, 3)

			Convey("Then the rows are identical", func() {
				So(errA, ShouldBeNil)
				So(errB, ShouldBeNil)
				So(bytes.Equal(a.Data, b.Data), ShouldBeTrue)
				So(a.Trips, ShouldEqual, b.Trips)
				So(a.Filename, ShouldEndWith, ".csv")
			})
		})

		Convey("When the export is analyzed", func() {
			exp, err := Generate(cfg, 0)
			So(err, ShouldBeNil)
			table, err := normalize.New().Normalize(context.Background(), bytes.NewReader(exp.Data))
			So(err, ShouldBeNil)
			res := analytics.New(analytics.WithLogger(logger.Nop())).Analyze(context.Background(), table)

			Convey("Then the totals match what was generated", func() {
				So(res.Status.Success, ShouldBeTrue)
				So(table.UnparsedTimestamps, ShouldEqual, 0)
				So(table.UnparsedJourneyIDs, ShouldEqual, 0)
				So(res.TotalStats.TotalTaps, ShouldEqual, exp.Rows)
				So(res.TotalStats.TotalJourneys, ShouldEqual, exp.Trips)
				So(res.MissingTaps.MissingTapOuts, ShouldEqual, exp.MissingTapOuts)
				So(res.MissingTaps.MissingTapIns, ShouldEqual, 0)
			})

			Convey("And the rider's summary is valid", func() {
				resp := &service.AnalysisResponse{Result: res}
				stats := BuildUserStats(cfg, exp, resp)
				So(stats.UserID, ShouldEqual, exp.RiderID)
				So(stats.TotalTrips, ShouldEqual, exp.Trips)
				So(stats.TimePeriod.PeriodType, ShouldEqual, "monthly")
				So(stats.TimePeriod.StartDate, ShouldEqual, "2024-03-04")
				So(stats.TimePeriod.EndDate, ShouldEqual, "2024-03-31")
				So(stats.Estimate, ShouldNotBeNil)
				So(stats.Estimate.EstimatedTripsPerWeek, ShouldBeGreaterThan, 0)
				So(service.NewValidator().Struct(stats), ShouldBeNil)
			})
		})

		Convey("When days is not positive", func() {
			cfg.Days = 0
			_, err := Generate(cfg, 0)

			Convey("Then generation fails", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given a running server", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithLogger(logger.Nop()))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()
		ts := httptest.NewServer(api.NewServer(svc, svc).Handler(ctx))
		defer ts.Close()

		cfg := testConfig()
		cfg.BaseURL = ts.URL
		cfg.OutputDir = filepath.Join(t.TempDir(), "exports")

		Convey("When a sample run completes", func() {
			outcomes, stats, err := Run(ctx, cfg)

			Convey("Then every rider is analyzed, submitted and looked up", func() {
				So(err, ShouldBeNil)
				So(stats.RidersGenerated, ShouldEqual, cfg.Riders)
				So(stats.ExportsAnalyzed, ShouldEqual, cfg.Riders)
				So(stats.Submitted, ShouldEqual, cfg.Riders)
				So(stats.LookedUp, ShouldEqual, cfg.Riders)
				for _, o := range outcomes {
					So(o.Lookup.Comparison.PopulationSize, ShouldEqual, cfg.Riders)
					So(o.Lookup.Comparison.Percentile, ShouldBeBetweenOrEqual, 0.0, 100.0)
				}
			})

			Convey("And the exports are written to disk", func() {
				entries, err := os.ReadDir(cfg.OutputDir)
				So(err, ShouldBeNil)
				So(len(entries), ShouldEqual, cfg.Riders)
			})
		})
	})

	Convey("Given no server", t, func() {
		cfg := testConfig()
		cfg.BaseURL = "http://127.0.0.1:1"
		cfg.Timeout = 500 * time.Millisecond

		Convey("Then the health check fails the run", func() {
			_, _, err := Run(context.Background(), cfg)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestGenerateOnly(t *testing.T) {
	Convey("Given an output directory", t, func() {
		cfg := testConfig()
		cfg.OutputDir = t.TempDir()

		Convey("Then every export is written", func() {
			So(GenerateOnly(context.Background(), cfg), ShouldBeNil)
			entries, err := os.ReadDir(cfg.OutputDir)
			So(err, ShouldBeNil)
			So(len(entries), ShouldEqual, cfg.Riders)
		})

		Convey("Then a missing directory is rejected", func() {
			cfg.OutputDir = ""
			So(GenerateOnly(context.Background(), cfg), ShouldNotBeNil)
		})
	})
}

func TestClientPropagatesTraceContext(t *testing.T) {
	Convey("Given a server that records the traceparent header", t, func() {
		otel.SetTextMapPropagator(propagation.TraceContext{})
		tp := sdktrace.NewTracerProvider()
		defer func() { _ = tp.Shutdown(context.Background()) }()

		var got string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = r.Header.Get("traceparent")
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		Convey("When the client checks health inside a span", func() {
			ctx, span := tp.Tracer("unit").Start(context.Background(), "run")
			err := NewClient(srv.URL, time.Second).Health(ctx)
			span.End()

			Convey("Then the request carries the span's trace id", func() {
				So(err, ShouldBeNil)
				So(got, ShouldContainSubstring, span.SpanContext().TraceID().String())
			})
		})
	})
}
