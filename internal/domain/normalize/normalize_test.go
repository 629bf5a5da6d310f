package normalize_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/okian/compass-wrapped/internal/domain/model"
	"github.com/okian/compass-wrapped/internal/domain/normalize"
	. "github.com/smartystreets/goconvey/convey"
)

const sampleExport = `DateTime,Transaction,Product,LineItem,Amount,BalanceDetails,JourneyId,LocationDisplay,TransactonTime,OrderDate,Payment,OrderNumber,AuthCode,Total
Oct-31-2023 08:15 AM,Tap in at Bus Stop 61935,,,,,2023-10-31T08:15:00.0000000,"Bus Stop 61935
Stored Value",,,,,,
Oct-31-2023 08:40 AM,Transfer at Commercial-Broadway Stn,,,,,2023-10-31T08:15:00.0000000,"Commercial-Broadway Stn
Stored Value",,,,,,
Oct-31-2023 09:05 AM,Tap out at Waterfront Stn,,,,,2023-10-31T08:15:00.0000000,"Waterfront Stn
Stored Value",,,,,,
garbage,Loaded value,,,,,not-a-date,,,,,,,
`

func TestNormalize(t *testing.T) {
	Convey("Given a normalizer", t, func() {
		n := normalize.New()
		ctx := context.Background()

		Convey("When normalizing a well-formed export", func() {
			table, err := n.Normalize(ctx, strings.NewReader(sampleExport))

			Convey("Then every row is retained", func() {
				So(err, ShouldBeNil)
				So(table.Len(), ShouldEqual, 4)
				So(table.Columns, ShouldContain, model.ColumnJourneyID)
			})

			Convey("And the first row is fully typed", func() {
				e := table.Events[0]
				So(e.DateTime, ShouldEqual, time.Date(2023, time.October, 31, 8, 15, 0, 0, time.UTC))
				So(e.TransactionType, ShouldEqual, model.TapIn)
				So(e.Location, ShouldEqual, "Bus Stop 61935")
				So(e.LocationKind, ShouldEqual, model.BusStop)
				So(e.LocationName, ShouldEqual, "Bus Stop 61935")
				So(e.LocationID, ShouldEqual, "61935")
				So(e.HasJourney(), ShouldBeTrue)
			})

			Convey("And stations are canonicalized without an id", func() {
				e := table.Events[1]
				So(e.TransactionType, ShouldEqual, model.Transfer)
				So(e.LocationKind, ShouldEqual, model.Station)
				So(e.LocationName, ShouldEqual, "Commercial-Broadway Station")
				So(e.LocationID, ShouldBeEmpty)
			})

			Convey("And garbage rows keep null fields instead of failing", func() {
				e := table.Events[3]
				So(e.HasTime(), ShouldBeFalse)
				So(e.HasJourney(), ShouldBeFalse)
				So(e.TransactionType, ShouldEqual, model.Other)
				So(e.LocationName, ShouldBeEmpty)
				So(table.UnparsedTimestamps, ShouldEqual, 1)
				So(table.UnparsedJourneyIDs, ShouldEqual, 1)
			})
		})

		Convey("When a required column is missing", func() {
			_, err := n.Normalize(ctx, strings.NewReader("DateTime,Transaction,JourneyId\nOct-31-2023 08:15 AM,Tap in,2023-10-31\n"))

			Convey("Then a ParseError naming the column is returned", func() {
				So(errors.Is(err, normalize.ErrParse), ShouldBeTrue)
				var pe *normalize.ParseError
				So(errors.As(err, &pe), ShouldBeTrue)
				So(pe.Column, ShouldEqual, model.ColumnLocationDisplay)
			})
		})

		Convey("When the file is empty", func() {
			_, err := n.Normalize(ctx, strings.NewReader(""))

			Convey("Then it is a structural error", func() {
				So(errors.Is(err, normalize.ErrParse), ShouldBeTrue)
			})
		})

		Convey("When only the header is present", func() {
			table, err := n.Normalize(ctx, strings.NewReader("\ufeffDateTime,Transaction,LocationDisplay,JourneyId\n"))

			Convey("Then an empty table is returned", func() {
				So(err, ShouldBeNil)
				So(table.Len(), ShouldEqual, 0)
			})
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := n.Normalize(cctx, strings.NewReader(sampleExport))

			Convey("Then normalization stops", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})
}

func TestClassifiers(t *testing.T) {
	Convey("Given transaction descriptions", t, func() {
		So(normalize.ClassifyTransaction("Tap in at Bus Stop 1"), ShouldEqual, model.TapIn)
		So(normalize.ClassifyTransaction("Tap out at Waterfront Stn"), ShouldEqual, model.TapOut)
		So(normalize.ClassifyTransaction("Transfer at Bus Stop 2"), ShouldEqual, model.Transfer)
		So(normalize.ClassifyTransaction("Loaded value"), ShouldEqual, model.Other)

		Convey("Then matching is case-sensitive", func() {
			So(normalize.ClassifyTransaction("tap in at Bus Stop 1"), ShouldEqual, model.Other)
		})

		Convey("Then Tap in wins over later categories", func() {
			So(normalize.ClassifyTransaction("Transfer / Tap in"), ShouldEqual, model.TapIn)
		})
	})

	Convey("Given location strings", t, func() {
		So(normalize.ClassifyLocation("Bus Stop 50123"), ShouldEqual, model.BusStop)
		So(normalize.ClassifyLocation("Lonsdale Quay Stn"), ShouldEqual, model.Station)
		So(normalize.ClassifyLocation("Online"), ShouldEqual, model.OtherLocation)

		Convey("Then bus stop is preferred to station", func() {
			So(normalize.ClassifyLocation("Bus Stop 5 near Stn"), ShouldEqual, model.BusStop)
		})
	})

	Convey("Given locations to canonicalize", t, func() {
		name, id := normalize.ExtractLocation("Lonsdale Quay Stn Bay 3")
		So(name, ShouldEqual, "Quay Station")
		So(id, ShouldBeEmpty)

		name, id = normalize.ExtractLocation("Online purchase")
		So(name, ShouldEqual, "Online purchase")
		So(id, ShouldBeEmpty)

		name, _ = normalize.ExtractLocation("")
		So(name, ShouldBeEmpty)
	})

	Convey("Given a multi-line display string", t, func() {
		So(normalize.LocationText("Waterfront Stn\r\nStored Value"), ShouldEqual, "Waterfront Stn")
	})
}

func TestParseTimestamps(t *testing.T) {
	Convey("Given a normalizer", t, func() {
		n := normalize.New()

		Convey("When parsing non-padded export timestamps", func() {
			ts, ok := n.ParseDateTime("Jan-5-2024 7:03 PM")

			Convey("Then they are read as 12-hour clock", func() {
				So(ok, ShouldBeTrue)
				So(ts.Hour(), ShouldEqual, 19)
				So(ts.Day(), ShouldEqual, 5)
			})
		})

		Convey("When parsing journey ids in several layouts", func() {
			for _, s := range []string{"2024-01-05", "2024-01-05T07:03:00", "1/5/2024 7:03:00 PM", "2024-01-05T07:03:00.0000000"} {
				_, ok := n.ParseJourneyID(s)
				So(ok, ShouldBeTrue)
			}
			_, ok := n.ParseJourneyID("journey-42")
			So(ok, ShouldBeFalse)
		})

		Convey("When a time zone is configured", func() {
			loc := time.FixedZone("PST", -8*3600)
			ts, ok := normalize.New(normalize.WithLocation(loc)).ParseDateTime("Jan-05-2024 07:03 AM")

			Convey("Then naive values are read in that zone", func() {
				So(ok, ShouldBeTrue)
				So(ts.Location(), ShouldEqual, loc)
			})
		})
	})
}
