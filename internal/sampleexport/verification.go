package sampleexport

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/okian/compass-wrapped/pkg/logger"
)

// ErrVerification is returned when server output contradicts the generated data.
var ErrVerification = errors.New("verification failed")

// verifyResults checks each analysis against what was generated and that
// lookups rank every rider inside [0, 100].
func verifyResults(ctx context.Context, config *Config, outcomes []Outcome) error {
	if len(outcomes) == 0 {
		return fmt.Errorf("%w: no riders to verify", ErrVerification)
	}

	var errs []error
	for _, o := range outcomes {
		if o.Analysis == nil {
			continue
		}
		errs = append(errs, verifyAnalysis(o)...)
		if o.Lookup == nil {
			continue
		}
		if p := o.Lookup.Comparison.Percentile; p < 0 || p > PercentageMultiplier {
			errs = append(errs, fmt.Errorf("%w: rider %s percentile %.2f out of range", ErrVerification, o.Export.RiderID, p))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	displayTopRiders(ctx, outcomes, config.Verbose)
	logger.Get().Info(ctx, "result verification completed")
	return nil
}

func verifyAnalysis(o Outcome) []error {
	var errs []error
	exp, a := o.Export, o.Analysis
	if a.TotalStats != nil {
		if a.TotalStats.TotalTaps != exp.Rows {
			errs = append(errs, fmt.Errorf("%w: %s total_taps %d, generated %d rows",
				ErrVerification, exp.Filename, a.TotalStats.TotalTaps, exp.Rows))
		}
		if a.TotalStats.TotalJourneys != exp.Trips {
			errs = append(errs, fmt.Errorf("%w: %s total_journeys %d, generated %d trips",
				ErrVerification, exp.Filename, a.TotalStats.TotalJourneys, exp.Trips))
		}
	}
	if a.MissingTaps != nil && a.MissingTaps.MissingTapOuts != exp.MissingTapOuts {
		errs = append(errs, fmt.Errorf("%w: %s missing_tap_outs %d, generated %d",
			ErrVerification, exp.Filename, a.MissingTaps.MissingTapOuts, exp.MissingTapOuts))
	}
	return errs
}

// displayTopRiders logs the riders with the highest percentile.
func displayTopRiders(ctx context.Context, outcomes []Outcome, verbose bool) {
	ranked := make([]Outcome, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Lookup != nil {
			ranked = append(ranked, o)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Lookup.Comparison.Percentile > ranked[j].Lookup.Comparison.Percentile
	})

	topN := 5
	if verbose {
		topN = 10
	}
	if len(ranked) < topN {
		topN = len(ranked)
	}
	for i := 0; i < topN; i++ {
		o := ranked[i]
		logger.Get().Info(ctx, "top rider",
			logger.Int("position", i+1),
			logger.String("rider", o.Export.RiderID),
			logger.String("profile", o.Export.Profile),
			logger.String("tier", o.Lookup.Personality.Type),
			logger.Float64("percentile", o.Lookup.Comparison.Percentile),
			logger.Float64("tripsPerWeek", o.Lookup.Stats.TripsPerWeek()))
	}
}
