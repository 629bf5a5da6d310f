package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/compass-wrapped/internal/sampleexport"
	"github.com/okian/compass-wrapped/pkg/logger"
)

// Default configuration constants.
const (
	defaultRiders      = 50
	defaultTrips       = 40
	defaultDays        = 30
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultRunDeadline = 10 * time.Minute
)

func main() {
	var (
		baseURL      = flag.String("url", "http://localhost:8000", "Base URL of the service")
		riders       = flag.Int("riders", defaultRiders, "Number of riders to simulate")
		trips        = flag.Int("trips", defaultTrips, "Average trips per rider")
		days         = flag.Int("days", defaultDays, "Days covered by each export")
		workers      = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout      = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputDir    = flag.String("out", "", "Directory to write the generated CSV files to")
		seed         = flag.Uint64("seed", 1, "Seed for reproducible exports")
		estimate     = flag.Bool("estimate", false, "Attach a self-estimate to every rider")
		generateOnly = flag.Bool("generate-only", false, "Only write exports, do not contact the server")
		verbose      = flag.Bool("verbose", false, "Enable verbose logging")
		help         = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		sampleexport.ShowHelp()
		return
	}

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunDeadline)
	defer cancel()

	config := &sampleexport.Config{
		BaseURL:       *baseURL,
		Riders:        *riders,
		TripsPerRider: *trips,
		Days:          *days,
		Workers:       *workers,
		Timeout:       *timeout,
		OutputDir:     *outputDir,
		Seed:          *seed,
		WithEstimate:  *estimate,
		Verbose:       *verbose,
	}

	if *generateOnly {
		if err := sampleexport.GenerateOnly(ctx, config); err != nil {
			os.Stderr.WriteString("Generation failed: " + err.Error() + "\n")
			os.Exit(1)
		}
		return
	}

	if _, _, err := sampleexport.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Sample run failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
