package model

import "time"

// Period types accepted on a user stats record.
const (
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
	PeriodYearly  = "yearly"
)

// NamedCount is a name with its usage count (a top stop or route).
type NamedCount struct {
	Name  string `json:"name" bson:"name" validate:"required"`
	Count int    `json:"count" bson:"count" validate:"gte=0"`
}

// TimePeriod describes the window a user stats record covers.
type TimePeriod struct {
	StartDate  string `json:"start_date" bson:"start_date" validate:"required,isodate"`
	EndDate    string `json:"end_date" bson:"end_date" validate:"required,isodate"`
	PeriodType string `json:"period_type" bson:"period_type" validate:"required,oneof=weekly monthly yearly"`
	TotalDays  int    `json:"total_days" bson:"total_days" validate:"gt=0"`
}

// Estimate is the rider's own guess of their usage.
type Estimate struct {
	EstimatedTripsPerWeek float64 `json:"estimated_trips_per_week" bson:"estimated_trips_per_week" validate:"gt=0"`
	ActualTripsPerWeek    float64 `json:"actual_trips_per_week" bson:"actual_trips_per_week" validate:"gte=0"`
	AccuracyPercentage    float64 `json:"accuracy_percentage" bson:"accuracy_percentage" validate:"gte=0"`
}

// UserStats is the durable summary a rider submits for ranking.
// ID and CreatedAt are assigned by the server on write.
type UserStats struct {
	ID           string       `json:"id,omitempty" bson:"_id,omitempty"`
	UserID       string       `json:"user_id" bson:"user_id" validate:"required"`
	TotalTrips   int          `json:"total_trips" bson:"total_trips" validate:"gte=0"`
	TotalHours   float64      `json:"total_hours" bson:"total_hours" validate:"gte=0"`
	MostUsedMode string       `json:"most_used_mode" bson:"most_used_mode"`
	TopStops     []NamedCount `json:"top_stops" bson:"top_stops" validate:"dive"`
	TopRoutes    []NamedCount `json:"top_routes" bson:"top_routes" validate:"dive"`
	TimePeriod   TimePeriod   `json:"time_period" bson:"time_period"`
	Estimate     *Estimate    `json:"estimate,omitempty" bson:"estimate,omitempty" validate:"omitempty"`
	CreatedAt    time.Time    `json:"created_at,omitempty" bson:"created_at"`
}

// TripsPerWeek normalizes the record's trips to a weekly rate.
func (s *UserStats) TripsPerWeek() float64 {
	if s.TimePeriod.TotalDays <= 0 {
		return 0
	}
	return float64(s.TotalTrips) / (float64(s.TimePeriod.TotalDays) / 7)
}
