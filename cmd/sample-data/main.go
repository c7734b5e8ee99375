package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/studentdash/internal/adapters/snapshot"
	"github.com/okian/studentdash/internal/sampledata"
	"github.com/okian/studentdash/pkg/logger"
)

// Default configuration constants.
const (
	defaultDir     = "./data"
	defaultTimeout = 30 * time.Second
)

func main() {
	files := snapshot.DefaultFiles()
	var (
		dir     = flag.String("dir", defaultDir, "Directory to write the snapshots into")
		history = flag.Int("history", files.HistoryDays, "Number of daily vocabulary history files")
		date    = flag.String("date", "", "Reference date as YYYY-MM-DD (default today)")
		verbose = flag.Bool("verbose", false, "Log every written file")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		sampledata.ShowHelp()
		return
	}

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	now := time.Now()
	if *date != "" {
		day, err := time.ParseInLocation(time.DateOnly, *date, time.Local)
		if err != nil {
			os.Stderr.WriteString("Invalid -date: " + err.Error() + "\n")
			os.Exit(2)
		}
		now = time.Date(day.Year(), day.Month(), day.Day(), now.Hour(), now.Minute(), now.Second(), 0, time.Local)
	}
	files.HistoryDays = *history

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	cfg := &sampledata.Config{
		Dir:   *dir,
		Files: files,
		Now:   now,
	}
	if err := sampledata.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("Sample data failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
