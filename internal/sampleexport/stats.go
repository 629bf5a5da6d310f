package sampleexport

import (
	"math"
	"strings"

	service "github.com/okian/compass-wrapped/internal/app"
	"github.com/okian/compass-wrapped/internal/domain/model"
)

// BuildUserStats turns an analysis into the summary a rider would share.
func BuildUserStats(cfg *Config, exp *Export, analysis *service.AnalysisResponse) *model.UserStats {
	start := cfg.Start
	if start.IsZero() {
		start = defaultStart
	}
	end := start.AddDate(0, 0, cfg.Days-1)

	stats := &model.UserStats{
		UserID:    exp.RiderID,
		TopStops:  []model.NamedCount{},
		TopRoutes: []model.NamedCount{},
		TimePeriod: model.TimePeriod{
			StartDate:  start.Format(isoDateLayout),
			EndDate:    end.Format(isoDateLayout),
			PeriodType: cfg.periodType(),
			TotalDays:  cfg.Days,
		},
	}
	if analysis == nil || analysis.Result == nil {
		return stats
	}

	if t := analysis.TotalStats; t != nil {
		stats.TotalTrips = t.TotalJourneys
	}
	if t := analysis.TimeStats; t != nil {
		stats.TotalHours = t.TotalHours
	}

	busTaps, trainTaps := 0, 0
	if r := analysis.RouteStats; r != nil {
		for _, s := range r.MostUsedStops {
			stats.TopStops = append(stats.TopStops, model.NamedCount{Name: s.Location, Count: s.Count})
			if strings.HasPrefix(s.Location, "Bus Stop") {
				busTaps += s.Count
			}
		}
		for _, s := range r.MostUsedStations {
			trainTaps += s.Count
		}
	}
	stats.MostUsedMode = "bus"
	if trainTaps > busTaps {
		stats.MostUsedMode = "skytrain"
	}

	if t := analysis.TransferStats; t != nil {
		for _, r := range t.CommonRoutes {
			stats.TopRoutes = append(stats.TopRoutes, model.NamedCount{Name: r.Route, Count: r.Count})
		}
	}

	if exp.Estimate > 0 {
		actual := stats.TripsPerWeek()
		accuracy := 0.0
		if actual > 0 {
			accuracy = math.Max(0, PercentageMultiplier-math.Abs(float64(exp.Estimate)-actual)/actual*PercentageMultiplier)
		}
		stats.Estimate = &model.Estimate{
			EstimatedTripsPerWeek: float64(exp.Estimate),
			ActualTripsPerWeek:    math.Round(actual*10) / 10,
			AccuracyPercentage:    math.Round(accuracy*10) / 10,
		}
	}
	return stats
}
