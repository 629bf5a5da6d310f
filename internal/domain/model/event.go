// Package model contains domain models passed between layers.
package model

import "time"

// TransactionType is the normalized category of a transit event.
type TransactionType string

// Transaction categories, matched in this priority order.
const (
	TapIn    TransactionType = "Tap in"
	TapOut   TransactionType = "Tap out"
	Transfer TransactionType = "Transfer"
	Other    TransactionType = "Other"
)

// LocationKind classifies where an event happened.
type LocationKind string

// Location kinds.
const (
	BusStop       LocationKind = "Bus Stop"
	Station       LocationKind = "Station"
	OtherLocation LocationKind = "Other"
)

// Required input columns. The names are part of the export format.
const (
	ColumnDateTime        = "DateTime"
	ColumnTransaction     = "Transaction"
	ColumnLocationDisplay = "LocationDisplay"
	ColumnJourneyID       = "JourneyId"
)

// RequiredColumns lists the columns every export must carry.
var RequiredColumns = []string{ColumnDateTime, ColumnTransaction, ColumnLocationDisplay, ColumnJourneyID}

// Event is one normalized row of a transit-card export.
// Zero DateTime or JourneyID means the raw value could not be parsed.
type Event struct {
	Row             int // 0-based position in the export
	DateTime        time.Time
	Transaction     string
	TransactionType TransactionType
	LocationDisplay string
	Location        string // display text before the first line break
	LocationKind    LocationKind
	LocationName    string // canonical name, empty when the location is missing
	LocationID      string // bus stop number, empty otherwise
	JourneyID       time.Time
	RawJourneyID    string
}

// HasTime reports whether the event timestamp was parsed.
func (e *Event) HasTime() bool { return !e.DateTime.IsZero() }

// HasJourney reports whether the journey identifier was parsed.
func (e *Event) HasJourney() bool { return !e.JourneyID.IsZero() }

// Table is the normalized event table of one export.
type Table struct {
	Columns []string
	Events  []Event

	// Row-level anomalies tolerated during normalization.
	UnparsedTimestamps int
	UnparsedJourneyIDs int
}

// Len returns the number of events.
func (t *Table) Len() int { return len(t.Events) }
