package types_test

import (
	"encoding/json"
	"testing"

	"github.com/okian/compass-wrapped/internal/domain/model"
	"github.com/okian/compass-wrapped/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestUserStatsResponse(t *testing.T) {
	Convey("Given a user stats response", t, func() {
		resp := types.UserStatsResponse{
			Stats:       model.UserStats{UserID: "anon-1", TotalTrips: 40},
			Personality: types.Personality{Type: "Regular Commuter", Percentile: 55},
			Comparison:  types.Comparison{Percentile: 55, AverageTripsPerWeek: 7.5, Message: "ok"},
		}

		Convey("When encoding it as JSON", func() {
			raw, err := json.Marshal(resp)
			So(err, ShouldBeNil)

			var doc map[string]map[string]any
			So(json.Unmarshal(raw, &doc), ShouldBeNil)

			Convey("Then the three sections use their wire names", func() {
				So(doc["stats"]["user_id"], ShouldEqual, "anon-1")
				So(doc["personality"]["type"], ShouldEqual, "Regular Commuter")
				So(doc["comparison"]["average_trips_per_week"], ShouldEqual, 7.5)
			})

			Convey("And the optional estimate and id are omitted", func() {
				So(doc["stats"], ShouldNotContainKey, "estimate")
				So(doc["stats"], ShouldNotContainKey, "id")
			})
		})
	})
}

func TestFileInfo(t *testing.T) {
	Convey("Given file info without an estimate", t, func() {
		raw, err := json.Marshal(types.FileInfo{Filename: "export.csv", Processed: true, Rows: 3})
		So(err, ShouldBeNil)

		Convey("Then the estimate is not echoed", func() {
			So(string(raw), ShouldNotContainSubstring, "estimated_trips_per_week")
			So(string(raw), ShouldContainSubstring, `"filename":"export.csv"`)
		})
	})
}
