// Package normalize turns a raw transit-card CSV export into typed events.
package normalize

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/okian/compass-wrapped/internal/domain/model"
)

// dateTimeLayout matches export values like "Oct-31-2023 08:15 AM".
// Non-padded day/hour fields accept both "1" and "01".
const dateTimeLayout = "Jan-2-2006 3:04 PM"

// journeyIDLayouts are tried in order when reading JourneyId.
var journeyIDLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.9999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 3:04 PM",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006",
	dateTimeLayout,
}

var (
	busStopPattern = regexp.MustCompile(`Bus Stop (\d+)`)
	stationPattern = regexp.MustCompile(`([\w\-]+) Stn`)
)

// Normalizer parses exports. It holds no per-request state.
type Normalizer struct {
	loc *time.Location
}

// New creates a Normalizer.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{loc: time.UTC}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize reads a CSV export. Rows with unparseable timestamps or journey
// ids are kept with zero values; only structural problems return an error.
func (n *Normalizer) Normalize(ctx context.Context, r io.Reader) (*model.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{Err: errors.New("empty file")}
		}
		return nil, &ParseError{Err: err}
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}
	for _, col := range model.RequiredColumns {
		if _, ok := index[col]; !ok {
			return nil, &ParseError{Column: col}
		}
	}

	table := &model.Table{Columns: append([]string(nil), header...)}
	field := func(rec []string, col string) string {
		i := index[col]
		if i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	for row := 0; ; row++ {
		if row%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ParseError{Err: fmt.Errorf("row %d: %w", row+1, err)}
		}

		e := n.event(row, field(rec, model.ColumnDateTime), field(rec, model.ColumnTransaction),
			field(rec, model.ColumnLocationDisplay), field(rec, model.ColumnJourneyID))
		if !e.HasTime() {
			table.UnparsedTimestamps++
		}
		if !e.HasJourney() {
			table.UnparsedJourneyIDs++
		}
		table.Events = append(table.Events, e)
	}
	return table, nil
}

func (n *Normalizer) event(row int, dateTime, transaction, display, journeyID string) model.Event {
	location := LocationText(display)
	name, id := ExtractLocation(location)
	ts, _ := n.ParseDateTime(dateTime)
	jid, _ := n.ParseJourneyID(journeyID)
	return model.Event{
		Row:             row,
		DateTime:        ts,
		Transaction:     transaction,
		TransactionType: ClassifyTransaction(transaction),
		LocationDisplay: display,
		Location:        location,
		LocationKind:    ClassifyLocation(location),
		LocationName:    name,
		LocationID:      id,
		JourneyID:       jid,
		RawJourneyID:    journeyID,
	}
}

// ParseDateTime reads the export's "Mon-D-YYYY H:MM AM" timestamps.
func (n *Normalizer) ParseDateTime(s string) (time.Time, bool) {
	t, err := time.ParseInLocation(dateTimeLayout, strings.TrimSpace(s), n.loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ParseJourneyID reads a journey identifier as a date-like value.
// The parsed instant keeps whatever precision the export provides.
func (n *Normalizer) ParseJourneyID(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range journeyIDLayouts {
		if t, err := time.ParseInLocation(layout, s, n.loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// LocationText returns the display text before the first line break.
func LocationText(display string) string {
	first, _, _ := strings.Cut(display, "\n")
	return strings.TrimRight(first, "\r")
}

// ClassifyTransaction maps free text to a transaction type. Matching is
// case-sensitive and the first match in Tap in, Tap out, Transfer wins.
func ClassifyTransaction(s string) model.TransactionType {
	switch {
	case strings.Contains(s, string(model.TapIn)):
		return model.TapIn
	case strings.Contains(s, string(model.TapOut)):
		return model.TapOut
	case strings.Contains(s, string(model.Transfer)):
		return model.Transfer
	default:
		return model.Other
	}
}

// ClassifyLocation maps a location to its kind.
func ClassifyLocation(location string) model.LocationKind {
	switch {
	case strings.Contains(location, "Bus Stop"):
		return model.BusStop
	case strings.Contains(location, "Stn"):
		return model.Station
	default:
		return model.OtherLocation
	}
}

// ExtractLocation returns the canonical name and id of a location.
// Bus stops yield ("Bus Stop <n>", "<n>"), stations ("<words> Station", "")
// and anything else the raw location with an empty id.
func ExtractLocation(location string) (name, id string) {
	if location == "" {
		return "", ""
	}
	if m := busStopPattern.FindStringSubmatch(location); m != nil {
		return "Bus Stop " + m[1], m[1]
	}
	if m := stationPattern.FindStringSubmatch(location); m != nil {
		return m[1] + " Station", ""
	}
	return location, ""
}
