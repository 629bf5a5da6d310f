package journey_test

import (
	"testing"
	"time"

	"github.com/okian/compass-wrapped/internal/domain/journey"
	"github.com/okian/compass-wrapped/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func at(h, m int) time.Time {
	return time.Date(2024, time.March, 4, h, m, 0, 0, time.UTC)
}

func TestBuild(t *testing.T) {
	Convey("Given events from two journeys and an unparsed one", t, func() {
		j1 := at(8, 0)
		j2 := at(17, 0)
		events := []model.Event{
			{Row: 0, DateTime: at(17, 30), TransactionType: model.TapOut, JourneyID: j2},
			{Row: 1, DateTime: at(8, 20), TransactionType: model.TapOut, JourneyID: j1},
			{Row: 2, DateTime: at(8, 0), TransactionType: model.TapIn, JourneyID: j1},
			{Row: 3, TransactionType: model.Transfer, JourneyID: j1},
			{Row: 4, DateTime: at(8, 10), TransactionType: model.Transfer, JourneyID: j1},
			{Row: 5, DateTime: at(12, 0), TransactionType: model.Other},
		}

		idx := journey.Build(events)

		Convey("Then journeys are ordered by id with the unknown bucket last", func() {
			So(idx.Len(), ShouldEqual, 3)
			So(idx.Journeys[0].ID, ShouldEqual, j1)
			So(idx.Journeys[1].ID, ShouldEqual, j2)
			So(idx.Journeys[2].Known(), ShouldBeFalse)
			So(idx.Journeys[2].Label(), ShouldEqual, journey.UnknownLabel)
		})

		Convey("Then events are chronological with untimed events last", func() {
			j := idx.Journeys[0]
			rows := []int{}
			for _, e := range j.Events {
				rows = append(rows, e.Row)
			}
			So(rows, ShouldResemble, []int{2, 4, 1, 3})
			So(j.First().Row, ShouldEqual, 2)
			So(j.Last().Row, ShouldEqual, 3)
		})

		Convey("Then tap subsets are exposed", func() {
			j := idx.Journeys[0]
			So(j.TapIns, ShouldHaveLength, 1)
			So(j.TapOuts, ShouldHaveLength, 1)
			So(j.Transfers, ShouldHaveLength, 2)
			So(j.Complete(), ShouldBeTrue)
			So(idx.Journeys[1].HasTapIn(), ShouldBeFalse)
			So(idx.Journeys[1].Label(), ShouldEqual, "2024-03-04")
		})
	})

	Convey("Given no events", t, func() {
		Convey("Then the index is empty", func() {
			So(journey.Build(nil).Len(), ShouldEqual, 0)
		})
	})
}
