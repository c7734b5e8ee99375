package sampledata

import "os"

// ShowHelp prints usage information for the sample data tool.
func ShowHelp() {
	os.Stdout.WriteString(`Student Dashboard Sample Data Tool
==================================

Writes a consistent set of scraper snapshots (math, vocabulary, weekly
vocabulary, daily vocabulary history and reading) for a small roster so the
dashboard can be run without the real scrapers.

Usage:
  go run cmd/sample-data/main.go [options]

Options:
  -dir string
        Directory to write the snapshots into (default "./data")
  -history int
        Number of daily vocabulary history files (default 7)
  -date string
        Reference date as YYYY-MM-DD (default today)
  -verbose
        Log every written file
  -help
        Show this help message

Examples:
  # Populate the default data directory
  go run cmd/sample-data/main.go

  # Write two weeks of history for a fixed date
  go run cmd/sample-data/main.go -history 14 -date 2026-03-04 -dir /tmp/dash
`)
}
