// Package sampleexport generates synthetic Compass Card exports and drives a
// running server with them end to end.
package sampleexport

import "time"

// Config holds configuration for a sample run.
type Config struct {
	BaseURL       string        // Base URL of the service
	Riders        int           // Number of riders to simulate
	TripsPerRider int           // Average trips per rider
	Days          int           // Length of the covered period in days
	Start         time.Time     // First day of the covered period
	Workers       int           // Number of concurrent workers
	Timeout       time.Duration // HTTP request timeout
	OutputDir     string        // Directory for generated CSV files; empty skips writing
	Seed          uint64        // Seed for reproducible exports
	WithEstimate  bool          // Attach a self-estimate to every rider
	Verbose       bool          // Enable verbose logging
}

// Stats holds run statistics.
type Stats struct {
	RidersGenerated  int
	ExportsAnalyzed  int
	AnalysisFailures int
	PartialAnalyses  int
	Submitted        int
	SubmitFailures   int
	LookedUp         int
	LookupFailures   int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}

// periodType maps a covered period length to a user stats period type.
func (c *Config) periodType() string {
	switch {
	case c.Days <= 7:
		return "weekly"
	case c.Days <= 31:
		return "monthly"
	default:
		return "yearly"
	}
}
