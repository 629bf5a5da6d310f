package sampleexport

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	service "github.com/okian/compass-wrapped/internal/app"
	"github.com/okian/compass-wrapped/internal/domain/types"
	"github.com/okian/compass-wrapped/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0600
)

// Outcome is what the server returned for one rider.
type Outcome struct {
	Export    *Export
	Analysis  *service.AnalysisResponse
	Submitted *types.UserStatsResponse
	Lookup    *types.UserStatsResponse
}

// Run generates every rider, analyzes and submits their exports, then
// looks each of them up again.
func Run(ctx context.Context, config *Config) ([]Outcome, *Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	if config.Workers <= 0 {
		config.Workers = 1
	}

	logger.Get().Info(ctx, "starting compass wrapped sample run",
		logger.String("baseURL", config.BaseURL),
		logger.Int("riders", config.Riders),
		logger.Int("tripsPerRider", config.TripsPerRider),
		logger.Int("days", config.Days),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.Bool("verbose", config.Verbose))

	client := NewClient(config.BaseURL, config.Timeout)

	// Step 1: Check service health
	if err := client.Health(ctx); err != nil {
		return nil, stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate exports
	outcomes, err := generateAll(config)
	if err != nil {
		return nil, stats, err
	}
	stats.RidersGenerated = len(outcomes)
	if err := saveExports(ctx, config, outcomes); err != nil {
		logger.Get().Warn(ctx, "failed to save exports", logger.Error(err))
	}

	// Step 3: Analyze and submit concurrently
	var analyzed, analysisFailed, partial, submitted, submitFailed int64
	forEach(ctx, config.Workers, len(outcomes), func(i int) {
		o := &outcomes[i]
		analysis, err := client.Analyze(ctx, o.Export)
		if err != nil {
			atomic.AddInt64(&analysisFailed, 1)
			debugf(ctx, config, "analysis failed", o.Export, err)
			return
		}
		atomic.AddInt64(&analyzed, 1)
		if !analysis.Status.Success {
			atomic.AddInt64(&partial, 1)
		}
		o.Analysis = analysis

		resp, err := client.Submit(ctx, BuildUserStats(config, o.Export, analysis))
		if err != nil {
			atomic.AddInt64(&submitFailed, 1)
			debugf(ctx, config, "submission failed", o.Export, err)
			return
		}
		atomic.AddInt64(&submitted, 1)
		o.Submitted = resp
	})
	stats.ExportsAnalyzed = int(analyzed)
	stats.AnalysisFailures = int(analysisFailed)
	stats.PartialAnalyses = int(partial)
	stats.Submitted = int(submitted)
	stats.SubmitFailures = int(submitFailed)

	// Step 4: Look every rider up against the full population
	var lookedUp, lookupFailed int64
	forEach(ctx, config.Workers, len(outcomes), func(i int) {
		o := &outcomes[i]
		if o.Submitted == nil {
			return
		}
		resp, err := client.Lookup(ctx, o.Export.RiderID)
		if err != nil {
			atomic.AddInt64(&lookupFailed, 1)
			debugf(ctx, config, "lookup failed", o.Export, err)
			return
		}
		atomic.AddInt64(&lookedUp, 1)
		o.Lookup = resp
	})
	stats.LookedUp = int(lookedUp)
	stats.LookupFailures = int(lookupFailed)

	if err := ctx.Err(); err != nil {
		return outcomes, stats, fmt.Errorf("sample run interrupted: %w", err)
	}

	// Step 5: Verify results
	if err := verifyResults(ctx, config, outcomes); err != nil {
		return outcomes, stats, fmt.Errorf("result verification failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	logger.Get().Info(ctx, "sample run completed successfully")
	return outcomes, stats, nil
}

// GenerateOnly writes every rider's export to config.OutputDir without
// contacting a server.
func GenerateOnly(ctx context.Context, config *Config) error {
	if config.OutputDir == "" {
		return fmt.Errorf("generate only: output directory is required")
	}
	outcomes, err := generateAll(config)
	if err != nil {
		return err
	}
	return saveExports(ctx, config, outcomes)
}

func generateAll(config *Config) ([]Outcome, error) {
	outcomes := make([]Outcome, config.Riders)
	for i := range outcomes {
		exp, err := Generate(config, i)
		if err != nil {
			return nil, fmt.Errorf("export generation failed: %w", err)
		}
		outcomes[i].Export = exp
	}
	return outcomes, nil
}

// forEach runs fn for 0..n-1 on a pool of workers and waits for all of them.
func forEach(ctx context.Context, workers, n int, fn func(i int)) {
	indexChan := make(chan int, workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexChan {
				if ctx.Err() != nil {
					continue
				}
				fn(i)
			}
		}()
	}

	go func() {
		defer close(indexChan)
		for i := 0; i < n; i++ {
			select {
			case <-ctx.Done():
				return
			case indexChan <- i:
			}
		}
	}()

	wg.Wait()
}

func debugf(ctx context.Context, config *Config, msg string, exp *Export, err error) {
	l := logger.Get()
	if config.Verbose {
		l.Warn(ctx, msg, logger.String("rider", exp.RiderID), logger.String("file", exp.Filename), logger.Error(err))
		return
	}
	l.Debug(ctx, msg, logger.String("rider", exp.RiderID), logger.Error(err))
}

// saveExports writes every generated export to config.OutputDir.
func saveExports(ctx context.Context, config *Config, outcomes []Outcome) error {
	if config.OutputDir == "" {
		return nil
	}
	if err := os.MkdirAll(config.OutputDir, directoryPermission); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	var errs []error
	for _, o := range outcomes {
		path := filepath.Join(config.OutputDir, o.Export.Filename)
		if err := os.WriteFile(path, o.Export.Data, filePermission); err != nil {
			errs = append(errs, fmt.Errorf("write %s: %w", path, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	logger.Get().Info(ctx, "exports saved", logger.String("dir", config.OutputDir), logger.Int("files", len(outcomes)))
	return nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var successRate, ridersPerSecond float64
	if stats.RidersGenerated > 0 {
		successRate = float64(stats.LookedUp) / float64(stats.RidersGenerated) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		ridersPerSecond = float64(stats.RidersGenerated) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("ridersGenerated", stats.RidersGenerated),
		logger.Int("exportsAnalyzed", stats.ExportsAnalyzed),
		logger.Int("analysisFailures", stats.AnalysisFailures),
		logger.Int("partialAnalyses", stats.PartialAnalyses),
		logger.Int("submitted", stats.Submitted),
		logger.Int("submitFailures", stats.SubmitFailures),
		logger.Int("lookedUp", stats.LookedUp),
		logger.Int("lookupFailures", stats.LookupFailures),
		logger.Duration("duration", stats.Duration),
		logger.Float64("successRate", successRate),
		logger.Float64("ridersPerSecond", ridersPerSecond))
}
