package sampleexport

import "os"

// ShowHelp prints usage information for the sample export tool.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`Compass Wrapped Sample Export Tool
==================================

Generates synthetic Compass Card exports and drives a running server with
them: every export is analyzed, summarized, submitted and looked up again.

Usage:
  go run ./cmd/sample-export [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:8000")
  -riders int
        Number of riders to simulate (default 50)
  -trips int
        Average trips per rider (default 40)
  -days int
        Days covered by each export (default 30)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -out string
        Directory to write the generated CSV files to
  -seed uint
        Seed for reproducible exports (default 1)
  -estimate
        Attach a self-estimate to every rider
  -generate-only
        Only write exports to -out, do not contact the server
  -verbose
        Enable verbose logging
  -help
        Show this help message
`)
}
