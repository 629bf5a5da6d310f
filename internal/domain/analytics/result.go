package analytics

// Component names, used as keys of Status.Errors.
const (
	ComponentTotalStats    = "total_stats"
	ComponentRouteStats    = "route_stats"
	ComponentTimeStats     = "time_stats"
	ComponentTransferStats = "transfer_stats"
	ComponentPersonality   = "personality"
	ComponentAchievements  = "achievements"
	ComponentMissingTaps   = "missing_taps"
)

// Components lists every analyzer in execution order.
var Components = []string{
	ComponentTotalStats,
	ComponentRouteStats,
	ComponentTimeStats,
	ComponentTransferStats,
	ComponentPersonality,
	ComponentAchievements,
	ComponentMissingTaps,
}

// Result is the combined output of one analysis. A nil component means
// its analyzer failed; the reason is in Status.Errors.
type Result struct {
	TotalStats    *TotalStats    `json:"total_stats"`
	RouteStats    *RouteStats    `json:"route_stats"`
	TimeStats     *TimeStats     `json:"time_stats"`
	TransferStats *TransferStats `json:"transfer_stats"`
	Personality   *Personality   `json:"personality"`
	Achievements  *Achievements  `json:"achievements"`
	MissingTaps   *MissingTaps   `json:"missing_taps"`
	Status        Status         `json:"status"`
}

// Status reports overall success and per-component failures.
type Status struct {
	Success bool              `json:"success"`
	Errors  map[string]string `json:"errors"`
}

// TotalStats counts rows and journeys.
type TotalStats struct {
	TotalTaps     int `json:"total_taps"`
	TotalJourneys int `json:"total_journeys"`
}

// LocationCount is a tap-in or transfer location with its frequency.
type LocationCount struct {
	Location string `json:"location"`
	Count    int    `json:"count"`
}

// StationCount is a station with its frequency.
type StationCount struct {
	Station string `json:"station"`
	Count   int    `json:"count"`
}

// RouteCount is a journey route string with its frequency.
type RouteCount struct {
	Route string `json:"route"`
	Count int    `json:"count"`
}

// RouteStats holds the favorite stops and stations.
type RouteStats struct {
	MostUsedStops    []LocationCount `json:"most_used_stops"`
	MostUsedStations []StationCount  `json:"most_used_stations"`
}

// TimeStats summarizes time spent on completed journeys.
type TimeStats struct {
	TotalHours          float64 `json:"total_hours"`
	TotalDays           float64 `json:"total_days"`
	AverageTripDuration float64 `json:"average_trip_duration"`
}

// TransferStats holds transfer locations and frequent routes.
type TransferStats struct {
	FavoriteTransfers []LocationCount `json:"favorite_transfers"`
	CommonRoutes      []RouteCount    `json:"common_routes"`
}

// PersonalityStats are the counts behind a personality classification.
type PersonalityStats struct {
	MorningTrips            int    `json:"morning_trips"`
	AfternoonTrips          int    `json:"afternoon_trips"`
	EveningTrips            int    `json:"evening_trips"`
	NightTrips              int    `json:"night_trips"`
	UniqueLocations         int    `json:"unique_locations"`
	MostCommonLocation      string `json:"most_common_location"`
	MostCommonLocationCount int    `json:"most_common_location_count"`
}

// Personality is the two-axis commuter classification.
type Personality struct {
	TimePersonality        string           `json:"time_personality"`
	LocationPersonality    string           `json:"location_personality"`
	PersonalityDescription string           `json:"personality_description"`
	Stats                  PersonalityStats `json:"stats"`
}

// Achievement is one earned badge.
type Achievement struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// FunStats are trivia about the export.
type FunStats struct {
	TotalTrips   int     `json:"total_trips"`
	EarliestTrip *string `json:"earliest_trip"`
	LatestTrip   *string `json:"latest_trip"`
	DaysActive   int     `json:"days_active"`
}

// Achievements holds badges and fun stats.
type Achievements struct {
	Achievements []Achievement `json:"achievements"`
	FunStats     FunStats      `json:"fun_stats"`
}

// MissingTap describes one journey lacking a tap-in or tap-out.
type MissingTap struct {
	JourneyID   string `json:"journey_id"`
	MissingType string `json:"missing_type"`
	DateTime    string `json:"datetime"`
	Location    string `json:"location"`
}

// MissingTaps counts incomplete journeys.
type MissingTaps struct {
	MissingTapIns  int          `json:"missing_tap_ins"`
	MissingTapOuts int          `json:"missing_tap_outs"`
	Details        []MissingTap `json:"details"`
}
