package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/okian/compass-wrapped/internal/adapters/repository"
	service "github.com/okian/compass-wrapped/internal/app"
	"github.com/okian/compass-wrapped/internal/domain/model"
	"github.com/okian/compass-wrapped/internal/domain/normalize"
	"github.com/okian/compass-wrapped/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

const export = `DateTime,Transaction,LocationDisplay,JourneyId
Jan-05-2024 09:00 AM,Tap in at Bus Stop 50123,"Bus Stop 50123
Stored Value",2024-01-05T09:00:00
Jan-05-2024 09:20 AM,Tap out at Waterfront Stn,"Waterfront Stn
Stored Value",2024-01-05T09:00:00
Jan-06-2024 08:00 AM,Tap in at Bus Stop 50123,"Bus Stop 50123
Stored Value",2024-01-06T08:00:00
`

func userStats(userID string, trips int) model.UserStats {
	return model.UserStats{
		UserID:       userID,
		TotalTrips:   trips,
		TotalHours:   12.5,
		MostUsedMode: "Bus",
		TopStops:     []model.NamedCount{{Name: "Bus Stop 50123", Count: 12}},
		TimePeriod: model.TimePeriod{
			StartDate:  "2024-01-01",
			EndDate:    "2024-01-31T00:00:00Z",
			PeriodType: model.PeriodMonthly,
			TotalDays:  28,
		},
	}
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New(service.WithDetailLimit(5))

		Convey("When starting it twice and stopping", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
			So(svc.Start(context.Background()), ShouldBeNil)
			So(svc.GetStats()["started"], ShouldBeTrue)
			So(svc.GetStats()["storedRecords"], ShouldEqual, 0)
			svc.Stop()

			Convey("Then it is marked as stopped", func() {
				So(svc.GetStats()["started"], ShouldBeFalse)
				So(svc.GetStats()["detailLimit"], ShouldEqual, 5)
			})
		})
	})
}

func TestService_StatsWithOpenedStore(t *testing.T) {
	Convey("Given a service over a store from repository.Open", t, func() {
		store, err := repository.Open(context.Background(), repository.DriverMemory)
		So(err, ShouldBeNil)
		svc := service.New(service.WithStore(store))
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()

		Convey("When one record is processed", func() {
			_, err := svc.Process(context.Background(), userStats("rider-1", 20))
			So(err, ShouldBeNil)

			Convey("Then the stored record count is reported", func() {
				So(svc.GetStats()["storedRecords"], ShouldEqual, 1)
			})
		})
	})
}

func TestService_Analyze(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := service.New()
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()

		Convey("When analyzing a valid export with an estimate", func() {
			estimate := 4
			resp, err := svc.Analyze(context.Background(), service.AnalyzeRequest{
				Filename:              "compass.csv",
				Body:                  strings.NewReader(export),
				EstimatedTripsPerWeek: &estimate,
			})

			Convey("Then all components succeed and file info is filled", func() {
				So(err, ShouldBeNil)
				So(resp.Status.Success, ShouldBeTrue)
				So(resp.FileInfo.Processed, ShouldBeTrue)
				So(resp.FileInfo.Rows, ShouldEqual, 3)
				So(resp.FileInfo.Journeys, ShouldEqual, 2)
				So(resp.FileInfo.Columns, ShouldResemble, model.RequiredColumns)
				So(*resp.FileInfo.EstimatedTripsPerWeek, ShouldEqual, 4)
				So(resp.TimeStats.TotalHours, ShouldEqual, 0.33)
				So(resp.MissingTaps.MissingTapOuts, ShouldEqual, 1)
			})
		})

		Convey("When a required column is missing", func() {
			resp, err := svc.Analyze(context.Background(), service.AnalyzeRequest{
				Filename: "broken.csv",
				Body:     strings.NewReader("DateTime,Transaction\nJan-05-2024 09:00 AM,Tap in\n"),
			})

			Convey("Then a parse error is returned with a failed status", func() {
				So(errors.Is(err, normalize.ErrParse), ShouldBeTrue)
				So(resp.Status.Success, ShouldBeFalse)
				So(resp.Status.Errors[service.FileComponent], ShouldContainSubstring, model.ColumnLocationDisplay)
				So(resp.FileInfo.Processed, ShouldBeFalse)
				So(resp.TotalStats, ShouldBeNil)
			})
		})
	})
}

func TestService_Process(t *testing.T) {
	Convey("Given a service over an empty store", t, func() {
		store := repository.NewMemoryStore()
		svc := service.New(service.WithStore(store))

		Convey("When the first summary is submitted", func() {
			resp, err := svc.Process(context.Background(), userStats("rider-1", 40))

			Convey("Then it is stored and ranked at the default percentile", func() {
				So(err, ShouldBeNil)
				So(store.Len(), ShouldEqual, 1)
				So(resp.Stats.ID, ShouldNotBeEmpty)
				So(resp.Stats.CreatedAt.IsZero(), ShouldBeFalse)
				So(resp.Comparison.Percentile, ShouldEqual, 50)
				So(resp.Comparison.Message, ShouldContainSubstring, "Insufficient data")
				So(resp.Personality.Type, ShouldEqual, "Regular Commuter")
			})

			Convey("And the same summary submitted again ranks within two records", func() {
				again, err := svc.Process(context.Background(), userStats("rider-2", 40))
				So(err, ShouldBeNil)
				So(again.Comparison.PopulationSize, ShouldEqual, 2)
				So(again.Comparison.Percentile, ShouldEqual, 100)
				So(again.Comparison.AverageTripsPerWeek, ShouldEqual, 10)
				So(again.Personality.Type, ShouldEqual, "Transit Veteran")
			})
		})

		Convey("When a summary has malformed dates", func() {
			bad := userStats("rider-1", 40)
			bad.TimePeriod.StartDate = "31/01/2024"
			bad.TimePeriod.PeriodType = "daily"
			_, err := svc.Process(context.Background(), bad)

			Convey("Then it is rejected before persistence", func() {
				So(errors.Is(err, service.ErrValidation), ShouldBeTrue)
				var verr *service.ValidationError
				So(errors.As(err, &verr), ShouldBeTrue)
				So(verr.Fields, ShouldContain, service.FieldError{Field: "time_period.start_date", Message: "must be an ISO-8601 date"})
				So(verr.Fields, ShouldContain, service.FieldError{Field: "time_period.period_type", Message: "must be one of: weekly monthly yearly"})
				So(store.Len(), ShouldEqual, 0)
			})
		})

		Convey("When a summary carries an estimate", func() {
			s := userStats("rider-3", 40)
			s.Estimate = &model.Estimate{EstimatedTripsPerWeek: 5, ActualTripsPerWeek: 10, AccuracyPercentage: 50}
			resp, err := svc.Process(context.Background(), s)

			Convey("Then the message compares against it", func() {
				So(err, ShouldBeNil)
				So(resp.Personality.Description, ShouldContainSubstring, "quite different from expected")
			})
		})
	})
}

func TestService_Lookup(t *testing.T) {
	Convey("Given a service with one stored summary", t, func() {
		store := repository.NewMemoryStore()
		svc := service.New(service.WithStore(store))
		_, err := svc.Process(context.Background(), userStats("rider-1", 40))
		So(err, ShouldBeNil)

		Convey("When looking up an unknown user", func() {
			_, err := svc.Lookup(context.Background(), "ghost")

			Convey("Then not found is returned", func() {
				So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When looking up the stored user", func() {
			resp, err := svc.Lookup(context.Background(), "rider-1")

			Convey("Then it is ranked without storing a new record", func() {
				So(err, ShouldBeNil)
				So(resp.Stats.UserID, ShouldEqual, "rider-1")
				So(resp.Comparison.Percentile, ShouldEqual, 50)
				So(store.Len(), ShouldEqual, 1)
			})
		})
	})
}

type downStore struct{ repository.MemoryStore }

func (d *downStore) Insert(context.Context, *model.UserStats) error {
	return repository.ErrUnavailable
}

func TestService_StoreUnavailable(t *testing.T) {
	Convey("Given a store that is down", t, func() {
		svc := service.New(service.WithStore(&downStore{}))

		Convey("When submitting", func() {
			_, err := svc.Process(context.Background(), userStats("rider-1", 40))

			Convey("Then the failure is retryable", func() {
				So(errors.Is(err, service.ErrUnavailable), ShouldBeTrue)
			})
		})
	})
}
