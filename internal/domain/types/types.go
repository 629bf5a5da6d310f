// Package types contains response types shared by the service and the API.
package types

import "github.com/okian/compass-wrapped/internal/domain/model"

// Personality is a rider's tier within the population.
type Personality struct {
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Percentile  float64 `json:"percentile"`
}

// Comparison places a rider's weekly usage against the population.
type Comparison struct {
	Percentile          float64 `json:"percentile"`
	AverageTripsPerWeek float64 `json:"average_trips_per_week"`
	PopulationSize      int     `json:"population_size"`
	Message             string  `json:"message"`
}

// UserStatsResponse is returned for both submissions and lookups.
type UserStatsResponse struct {
	Stats       model.UserStats `json:"stats"`
	Personality Personality     `json:"personality"`
	Comparison  Comparison      `json:"comparison"`
}

// FileInfo describes an analyzed upload.
type FileInfo struct {
	Filename              string   `json:"filename"`
	Processed             bool     `json:"processed"`
	Rows                  int      `json:"rows"`
	Columns               []string `json:"columns"`
	Journeys              int      `json:"journeys"`
	UnparsedTimestamps    int      `json:"unparsed_timestamps"`
	UnparsedJourneyIDs    int      `json:"unparsed_journey_ids"`
	EstimatedTripsPerWeek *int     `json:"estimated_trips_per_week,omitempty"`
}
