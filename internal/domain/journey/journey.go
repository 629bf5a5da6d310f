// Package journey groups normalized events into journeys.
//
// The grouping is computed once per analysis and shared read-only by every
// analyzer that needs it.
package journey

import (
	"sort"
	"time"

	"github.com/okian/compass-wrapped/internal/domain/model"
)

// UnknownLabel labels the bucket of events whose journey id did not parse.
const UnknownLabel = "Unknown"

// Journey is the set of events sharing a journey identifier.
type Journey struct {
	// ID is the parsed journey identifier; zero for the unknown bucket.
	ID time.Time
	// Events are ordered by timestamp; events without one sort last,
	// keeping their export order.
	Events    []model.Event
	TapIns    []model.Event
	TapOuts   []model.Event
	Transfers []model.Event
}

// Known reports whether the journey id parsed.
func (j *Journey) Known() bool { return !j.ID.IsZero() }

// Label renders the id as a calendar date.
func (j *Journey) Label() string {
	if !j.Known() {
		return UnknownLabel
	}
	return j.ID.Format("2006-01-02")
}

// First returns the earliest event.
func (j *Journey) First() model.Event { return j.Events[0] }

// Last returns the latest event.
func (j *Journey) Last() model.Event { return j.Events[len(j.Events)-1] }

// HasTapIn reports whether the journey contains a tap-in.
func (j *Journey) HasTapIn() bool { return len(j.TapIns) > 0 }

// HasTapOut reports whether the journey contains a tap-out.
func (j *Journey) HasTapOut() bool { return len(j.TapOuts) > 0 }

// Complete reports whether the journey has both a tap-in and a tap-out.
func (j *Journey) Complete() bool { return j.HasTapIn() && j.HasTapOut() }

// Index is the journey grouping of one event table.
type Index struct {
	// Journeys are ordered by id ascending with the unknown bucket last.
	Journeys []*Journey
}

// Len returns the number of distinct journeys, unknown bucket included.
func (x *Index) Len() int { return len(x.Journeys) }

// Build groups events by journey id.
func Build(events []model.Event) *Index {
	byID := make(map[int64]*Journey)
	var unknown *Journey

	for i := range events {
		e := events[i]
		var j *Journey
		if e.HasJourney() {
			key := e.JourneyID.UnixNano()
			j = byID[key]
			if j == nil {
				j = &Journey{ID: e.JourneyID}
				byID[key] = j
			}
		} else {
			if unknown == nil {
				unknown = &Journey{}
			}
			j = unknown
		}
		j.Events = append(j.Events, e)
	}

	idx := &Index{Journeys: make([]*Journey, 0, len(byID)+1)}
	for _, j := range byID {
		idx.Journeys = append(idx.Journeys, j)
	}
	sort.Slice(idx.Journeys, func(a, b int) bool {
		return idx.Journeys[a].ID.Before(idx.Journeys[b].ID)
	})
	if unknown != nil {
		idx.Journeys = append(idx.Journeys, unknown)
	}

	for _, j := range idx.Journeys {
		sortByTime(j.Events)
		for _, e := range j.Events {
			switch e.TransactionType {
			case model.TapIn:
				j.TapIns = append(j.TapIns, e)
			case model.TapOut:
				j.TapOuts = append(j.TapOuts, e)
			case model.Transfer:
				j.Transfers = append(j.Transfers, e)
			}
		}
	}
	return idx
}

func sortByTime(events []model.Event) {
	sort.SliceStable(events, func(a, b int) bool {
		ea, eb := &events[a], &events[b]
		switch {
		case !ea.HasTime():
			return false
		case !eb.HasTime():
			return true
		default:
			return ea.DateTime.Before(eb.DateTime)
		}
	})
}
