package ranking

import (
	"fmt"
	"math"

	"github.com/okian/compass-wrapped/internal/domain/model"
	"github.com/okian/compass-wrapped/internal/domain/types"
)

// DefaultPercentile is reported when there is nobody to compare against.
const DefaultPercentile = 50

// estimateTolerance is the percent difference still considered accurate.
const estimateTolerance = 10

type tier struct {
	min         float64
	name        string
	description string
}

var tiers = []tier{
	{90, "Transit Veteran", "You're a true transit champion! Your dedication to public transportation is remarkable."},
	{70, "Frequent Rider", "You're a seasoned transit user who knows their way around the system."},
	{40, "Regular Commuter", "You're a reliable transit user making good use of the system."},
	{20, "Casual Rider", "You use transit occasionally and are building your experience."},
	{math.Inf(-1), "Transit Explorer", "You're just getting started with your transit journey!"},
}

// Classify maps a percentile to a tier. A non-nil accuracy appends a
// remark on how well the rider estimated their own usage.
func Classify(percentile float64, accuracy *float64) types.Personality {
	var t tier
	for _, t = range tiers {
		if percentile >= t.min {
			break
		}
	}
	desc := t.description
	if accuracy != nil {
		switch {
		case *accuracy >= 90:
			desc += " Your estimate shows you know your habits well."
		case *accuracy >= 70:
			desc += " You have a good sense of how often you ride."
		default:
			desc += " Your actual usage is quite different from expected."
		}
	}
	return types.Personality{Type: t.name, Description: desc, Percentile: percentile}
}

// Outcome is the full ranking of one record.
type Outcome struct {
	Personality types.Personality
	Comparison  types.Comparison
}

// Rank compares stats against population, the stored records sharing its
// period type. The record itself may be part of population; with no
// other member the default percentile is reported.
func Rank(stats *model.UserStats, population []model.UserStats) Outcome {
	own := stats.TripsPerWeek()

	values := make([]float64, 0, len(population))
	others := 0
	for i := range population {
		p := &population[i]
		if p.TimePeriod.PeriodType != stats.TimePeriod.PeriodType {
			continue
		}
		values = append(values, p.TripsPerWeek())
		if stats.ID == "" || p.ID != stats.ID {
			others++
		}
	}

	var accuracy *float64
	if stats.Estimate != nil {
		a := stats.Estimate.AccuracyPercentage
		accuracy = &a
	}

	if others == 0 {
		return Outcome{
			Personality: Classify(DefaultPercentile, accuracy),
			Comparison: types.Comparison{
				Percentile:          DefaultPercentile,
				AverageTripsPerWeek: round1(own),
				PopulationSize:      len(values),
				Message: fmt.Sprintf("Insufficient data to compare you with other riders yet. You take %.1f trips per week.",
					own),
			},
		}
	}

	pct := round2(PercentileOfValue(values, own))
	return Outcome{
		Personality: Classify(pct, accuracy),
		Comparison: types.Comparison{
			Percentile:          pct,
			AverageTripsPerWeek: round1(Mean(values)),
			PopulationSize:      len(values),
			Message:             Message(own, stats.Estimate),
		},
	}
}

// Message describes weekly usage, compared against the rider's own
// estimate when one was given.
func Message(tripsPerWeek float64, est *model.Estimate) string {
	if est == nil || est.EstimatedTripsPerWeek <= 0 {
		return fmt.Sprintf("You take %.1f trips per week.", tripsPerWeek)
	}
	diff := (tripsPerWeek - est.EstimatedTripsPerWeek) / est.EstimatedTripsPerWeek * 100
	switch {
	case math.Abs(diff) <= estimateTolerance:
		return fmt.Sprintf("Your estimate was spot on! You take %.1f trips per week.", tripsPerWeek)
	case diff > 0:
		return fmt.Sprintf("You take %.0f%% more trips than estimated (%.1f per week).", diff, tripsPerWeek)
	default:
		return fmt.Sprintf("You take %.0f%% fewer trips than estimated (%.1f per week).", -diff, tripsPerWeek)
	}
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
