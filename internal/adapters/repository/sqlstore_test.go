package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/compass-wrapped/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSQLStoreSQLite(t *testing.T) {
	Convey("Given a sqlite store in memory", t, func() {
		ctx := context.Background()
		tick := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
		clock := func() time.Time {
			tick = tick.Add(time.Second)
			return tick
		}

		store, err := Open(ctx, DriverSQLite, WithDSN(":memory:"), WithClock(clock))
		So(err, ShouldBeNil)
		Reset(func() { _ = store.Close() })

		Convey("When no record exists for a user", func() {
			_, err := store.Latest(ctx, "ghost")

			Convey("Then ErrNotFound is returned", func() {
				So(errors.Is(err, ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When records are inserted", func() {
			a := stats("rider", model.PeriodMonthly, 40)
			b := stats("rider", model.PeriodMonthly, 44)
			b.Estimate = nil
			c := stats("other", model.PeriodYearly, 400)
			So(store.Insert(ctx, a), ShouldBeNil)
			So(store.Insert(ctx, b), ShouldBeNil)
			So(store.Insert(ctx, c), ShouldBeNil)

			Convey("Then ids and creation times are assigned", func() {
				So(a.ID, ShouldNotBeEmpty)
				So(a.ID, ShouldNotEqual, b.ID)
				So(b.CreatedAt.After(a.CreatedAt), ShouldBeTrue)
			})

			Convey("Then the latest record of the user round trips", func() {
				got, err := store.Latest(ctx, "rider")
				So(err, ShouldBeNil)
				So(got.ID, ShouldEqual, b.ID)
				So(got.TotalTrips, ShouldEqual, 44)
				So(got.Estimate, ShouldBeNil)
				So(got.TopStops, ShouldResemble, []model.NamedCount{{Name: "Bus Stop 1", Count: 3}})
				So(got.TimePeriod, ShouldResemble, b.TimePeriod)
				So(got.CreatedAt.Equal(b.CreatedAt), ShouldBeTrue)
			})

			Convey("Then the population is filtered by period type", func() {
				monthly, err := store.ListByPeriod(ctx, model.PeriodMonthly)
				So(err, ShouldBeNil)
				So(monthly, ShouldHaveLength, 2)
				So(monthly[0].ID, ShouldEqual, a.ID)
				So(monthly[0].Estimate, ShouldResemble, a.Estimate)

				weekly, err := store.ListByPeriod(ctx, model.PeriodWeekly)
				So(err, ShouldBeNil)
				So(weekly, ShouldBeEmpty)
			})
		})
	})
}

func TestOpen(t *testing.T) {
	Convey("Given an unknown driver", t, func() {
		_, err := Open(context.Background(), "cassandra")

		Convey("Then ErrInvalidDriver is returned", func() {
			So(errors.Is(err, ErrInvalidDriver), ShouldBeTrue)
		})
	})

	Convey("Given the default driver", t, func() {
		store, err := Open(context.Background(), "")

		Convey("Then an instrumented memory store is returned", func() {
			So(err, ShouldBeNil)
			So(store.Insert(context.Background(), stats("u", model.PeriodWeekly, 1)), ShouldBeNil)
			So(store.Close(), ShouldBeNil)
		})

		Convey("Then the record count stays visible through the wrapper", func() {
			So(err, ShouldBeNil)
			counter, ok := store.(Counter)
			So(ok, ShouldBeTrue)
			So(counter.Len(), ShouldEqual, 0)
			So(store.Insert(context.Background(), stats("u", model.PeriodWeekly, 1)), ShouldBeNil)
			So(counter.Len(), ShouldEqual, 1)
		})
	})
}

type plainStore struct{ Store }

func TestInstrumentCounter(t *testing.T) {
	Convey("Given a store without a record count", t, func() {
		store := instrument(plainStore{}, "plain", time.Second)

		Convey("Then the wrapper does not claim one", func() {
			_, ok := store.(Counter)
			So(ok, ShouldBeFalse)
		})
	})
}

type slowStore struct{ MemoryStore }

func (s *slowStore) ListByPeriod(ctx context.Context, _ string) ([]model.UserStats, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestInstrumentedTimeout(t *testing.T) {
	Convey("Given a store that never answers", t, func() {
		store := newInstrumented(&slowStore{}, "slow", 20*time.Millisecond)

		Convey("When the timeout elapses", func() {
			_, err := store.ListByPeriod(context.Background(), model.PeriodWeekly)

			Convey("Then the failure is reported as unavailable", func() {
				So(errors.Is(err, ErrUnavailable), ShouldBeTrue)
				So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
			})
		})

		Convey("When a lookup misses", func() {
			_, err := store.Latest(context.Background(), "ghost")

			Convey("Then not found passes through unchanged", func() {
				So(err, ShouldEqual, ErrNotFound)
			})
		})
	})
}
