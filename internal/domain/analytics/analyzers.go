package analytics

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/okian/compass-wrapped/internal/domain/journey"
	"github.com/okian/compass-wrapped/internal/domain/model"
)

const (
	topN = 5

	// Completed journeys outside (0, maxTripMinutes) are treated as
	// sensor anomalies.
	maxTripMinutes = 240

	minRouteEvents        = 2
	multiTransfers        = 3
	multiTransferJourneys = 3

	displayTimeLayout = "Jan 02, 2006 at 03:04 PM"
	unknown           = "Unknown"
	routeSeparator    = " → "
)

var routeDigits = regexp.MustCompile(`\d+`)

// Input is what every analyzer reads. It is shared read-only between them.
type Input struct {
	Table    *model.Table
	Journeys *journey.Index
}

// NewInput builds the journey index for table.
func NewInput(table *model.Table) *Input {
	if table == nil {
		return &Input{}
	}
	return &Input{Table: table, Journeys: journey.Build(table.Events)}
}

func (in *Input) check() error {
	if in == nil || in.Table == nil || in.Journeys == nil {
		return ErrNoTable
	}
	return nil
}

// ComputeTotalStats counts rows and distinct journeys. Events without a
// parsed journey id count as one journey.
func ComputeTotalStats(in *Input) (TotalStats, error) {
	if err := in.check(); err != nil {
		return TotalStats{}, err
	}
	return TotalStats{
		TotalTaps:     in.Table.Len(),
		TotalJourneys: in.Journeys.Len(),
	}, nil
}

// ComputeRouteStats ranks tap-in locations and stations.
func ComputeRouteStats(in *Input) (RouteStats, error) {
	if err := in.check(); err != nil {
		return RouteStats{}, err
	}
	var tapIns, stations []string
	for i := range in.Table.Events {
		e := &in.Table.Events[i]
		if e.LocationName == "" {
			continue
		}
		if e.TransactionType == model.TapIn {
			tapIns = append(tapIns, e.LocationName)
		}
		if e.LocationKind == model.Station {
			stations = append(stations, e.LocationName)
		}
	}

	out := RouteStats{
		MostUsedStops:    []LocationCount{},
		MostUsedStations: []StationCount{},
	}
	for _, c := range head(valueCounts(tapIns), topN) {
		out.MostUsedStops = append(out.MostUsedStops, LocationCount{Location: c.value, Count: c.count})
	}
	for _, c := range head(valueCounts(stations), topN) {
		out.MostUsedStations = append(out.MostUsedStations, StationCount{Station: c.value, Count: c.count})
	}
	return out, nil
}

// ComputeTimeStats sums the duration of completed journeys, from the
// earliest tap-in to the latest tap-out. Rows without a parsed journey id
// are not one trip and never contribute.
func ComputeTimeStats(in *Input) (TimeStats, error) {
	if err := in.check(); err != nil {
		return TimeStats{}, err
	}
	var totalMinutes float64
	var valid int
	for _, j := range in.Journeys.Journeys {
		if !j.Known() || !j.Complete() {
			continue
		}
		start, ok := earliest(j.TapIns)
		if !ok {
			continue
		}
		end, ok := latest(j.TapOuts)
		if !ok {
			continue
		}
		minutes := end.Sub(start).Minutes()
		if minutes > 0 && minutes < maxTripMinutes {
			totalMinutes += minutes
			valid++
		}
	}

	hours := totalMinutes / 60
	out := TimeStats{
		TotalHours: round2(hours),
		TotalDays:  round2(hours / 24),
	}
	if valid > 0 {
		out.AverageTripDuration = round2(totalMinutes / float64(valid))
	}
	return out, nil
}

// ComputeTransferStats ranks transfer locations and the location sequence
// of every parsed journey with at least two events.
func ComputeTransferStats(in *Input) (TransferStats, error) {
	if err := in.check(); err != nil {
		return TransferStats{}, err
	}
	var transfers []string
	for i := range in.Table.Events {
		e := &in.Table.Events[i]
		if e.TransactionType == model.Transfer && e.LocationName != "" {
			transfers = append(transfers, e.LocationName)
		}
	}

	var routes []string
	for _, j := range in.Journeys.Journeys {
		if !j.Known() || len(j.Events) < minRouteEvents {
			continue
		}
		stops := make([]string, len(j.Events))
		for i, e := range j.Events {
			stops[i] = orUnknown(e.LocationName)
		}
		routes = append(routes, strings.Join(stops, routeSeparator))
	}

	out := TransferStats{
		FavoriteTransfers: []LocationCount{},
		CommonRoutes:      []RouteCount{},
	}
	for _, c := range head(valueCounts(transfers), topN) {
		out.FavoriteTransfers = append(out.FavoriteTransfers, LocationCount{Location: c.value, Count: c.count})
	}
	for _, c := range head(valueCounts(routes), topN) {
		out.CommonRoutes = append(out.CommonRoutes, RouteCount{Route: c.value, Count: c.count})
	}
	return out, nil
}

// ComputePersonality classifies the rider by time of day and by how
// varied their locations are.
func ComputePersonality(in *Input) (Personality, error) {
	if err := in.check(); err != nil {
		return Personality{}, err
	}
	var stats PersonalityStats
	var locations []string
	for i := range in.Table.Events {
		e := &in.Table.Events[i]
		if e.LocationName != "" {
			locations = append(locations, e.LocationName)
		}
		if e.TransactionType != model.TapIn || !e.HasTime() {
			continue
		}
		switch h := e.DateTime.Hour(); {
		case h >= 5 && h < 12:
			stats.MorningTrips++
		case h >= 12 && h < 17:
			stats.AfternoonTrips++
		case h >= 17 && h < 22:
			stats.EveningTrips++
		default:
			stats.NightTrips++
		}
	}

	timeType, timeDesc := timePersonality(stats)

	counts := valueCounts(locations)
	stats.UniqueLocations = len(counts)
	stats.MostCommonLocation = unknown
	if len(counts) > 0 {
		stats.MostCommonLocation = counts[0].value
		stats.MostCommonLocationCount = counts[0].count
	}
	locType, locDesc := locationPersonality(stats, in.Journeys.Len())

	return Personality{
		TimePersonality:        timeType,
		LocationPersonality:    locType,
		PersonalityDescription: timeDesc + " " + locDesc,
		Stats:                  stats,
	}, nil
}

func timePersonality(s PersonalityStats) (string, string) {
	total := s.MorningTrips + s.AfternoonTrips + s.EveningTrips + s.NightTrips
	if total == 0 {
		return "Balanced Commuter", "You travel evenly throughout the day."
	}
	share := func(n int) float64 { return float64(n) / float64(total) }
	pct := func(f float64) int { return int(f * 100) }

	switch morning, afternoon, evening, night := share(s.MorningTrips), share(s.AfternoonTrips), share(s.EveningTrips), share(s.NightTrips); {
	case morning > 0.5:
		return "Early Bird", fmt.Sprintf("You're an Early Bird: %d%% of your trips happen before noon!", pct(morning))
	case afternoon > 0.5:
		return "Daytime Rider", fmt.Sprintf("You're a Daytime Rider: %d%% of your trips happen in the afternoon!", pct(afternoon))
	case evening > 0.5:
		return "Evening Explorer", fmt.Sprintf("You're an Evening Explorer: %d%% of your trips happen in the evening!", pct(evening))
	case night > 0.3:
		return "Night Rider", fmt.Sprintf("You're a Night Rider: %d%% of your trips happen at night!", pct(night))
	default:
		return "Balanced Commuter", "You travel evenly throughout the day."
	}
}

// locationPersonality compares the busiest location against the journey
// count, not against the number of location occurrences.
func locationPersonality(s PersonalityStats, journeys int) (string, string) {
	switch {
	case s.UniqueLocations > 20 && journeys > 30:
		return "City Explorer", fmt.Sprintf("You're a City Explorer with %d different locations visited!", s.UniqueLocations)
	case float64(s.MostCommonLocationCount) > 0.6*float64(journeys):
		return "Vanilla Commuter", fmt.Sprintf("You're a Vanilla Commuter: you frequently visit %s!", s.MostCommonLocation)
	case journeys < 10:
		return "Sleeper", "There were many rides this year, and you were only part of a few. You're missing out!"
	default:
		return "Regular Commuter", "You have a balanced mix of locations."
	}
}

// ComputeAchievements awards badges and collects fun stats.
func ComputeAchievements(in *Input) (Achievements, error) {
	if err := in.check(); err != nil {
		return Achievements{}, err
	}
	trips := in.Journeys.Len()
	out := Achievements{Achievements: []Achievement{}}

	var milestone string
	switch {
	case trips >= 300:
		milestone = "Transit Veteran"
	case trips >= 100:
		milestone = "Regular Commuter"
	case trips >= 50:
		milestone = "Transit Enthusiast"
	}
	if milestone != "" {
		out.Achievements = append(out.Achievements, Achievement{
			Name:        milestone,
			Description: fmt.Sprintf("You took %d trips this year!", trips),
		})
	}

	var routes []string
	for i := range in.Table.Events {
		if d := routeDigits.FindString(in.Table.Events[i].Transaction); d != "" {
			routes = append(routes, d)
		}
	}
	if counts := valueCounts(routes); len(counts) > 0 {
		top := counts[0]
		out.Achievements = append(out.Achievements, Achievement{
			Name:        fmt.Sprintf("R%s Warrior", top.value),
			Description: fmt.Sprintf("You used the R%s route %d times!", top.value, top.count),
		})
	}

	var multi int
	for _, j := range in.Journeys.Journeys {
		if j.Known() && len(j.Transfers) >= multiTransfers {
			multi++
		}
	}
	if multi >= multiTransferJourneys {
		out.Achievements = append(out.Achievements, Achievement{
			Name:        "Multi-Transfer Master",
			Description: fmt.Sprintf("You made %d journeys with 3+ transfers!", multi),
		})
	}

	out.FunStats.TotalTrips = trips
	first, okFirst := earliest(in.Table.Events)
	last, okLast := latest(in.Table.Events)
	if okFirst && okLast {
		f, l := first.Format(displayTimeLayout), last.Format(displayTimeLayout)
		out.FunStats.EarliestTrip = &f
		out.FunStats.LatestTrip = &l
		out.FunStats.DaysActive = int(math.Floor(last.Sub(first).Hours()/24)) + 1
	}
	return out, nil
}

// ComputeMissingTaps finds journeys with a tap-in but no tap-out, or the
// reverse. Journeys with neither are transfer-only and skipped.
func ComputeMissingTaps(in *Input, detailLimit int) (MissingTaps, error) {
	if err := in.check(); err != nil {
		return MissingTaps{}, err
	}
	out := MissingTaps{Details: []MissingTap{}}
	for _, j := range in.Journeys.Journeys {
		if !j.HasTapIn() && !j.HasTapOut() {
			continue
		}
		if !j.HasTapIn() {
			out.MissingTapIns++
			out.Details = append(out.Details, missingTap(j, string(model.TapIn), j.First()))
		}
		if !j.HasTapOut() {
			out.MissingTapOuts++
			out.Details = append(out.Details, missingTap(j, string(model.TapOut), j.Last()))
		}
	}
	if detailLimit >= 0 && len(out.Details) > detailLimit {
		out.Details = out.Details[:detailLimit]
	}
	return out, nil
}

func missingTap(j *journey.Journey, kind string, e model.Event) MissingTap {
	ts := unknown
	if e.HasTime() {
		ts = e.DateTime.Format(displayTimeLayout)
	}
	return MissingTap{
		JourneyID:   j.Label(),
		MissingType: kind,
		DateTime:    ts,
		Location:    orUnknown(e.LocationName),
	}
}

func earliest(events []model.Event) (time.Time, bool) {
	var t time.Time
	for i := range events {
		if events[i].HasTime() && (t.IsZero() || events[i].DateTime.Before(t)) {
			t = events[i].DateTime
		}
	}
	return t, !t.IsZero()
}

func latest(events []model.Event) (time.Time, bool) {
	var t time.Time
	for i := range events {
		if events[i].HasTime() && events[i].DateTime.After(t) {
			t = events[i].DateTime
		}
	}
	return t, !t.IsZero()
}

func orUnknown(s string) string {
	if s == "" {
		return unknown
	}
	return s
}
