package sampledata

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/studentdash/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0o750
	filePermission      = 0o644
)

type document struct {
	name string
	doc  any
}

// Run writes a full set of sample snapshots and logs what it wrote.
func Run(ctx context.Context, cfg *Config) error {
	if cfg.Now.IsZero() {
		cfg.Now = time.Now()
	}
	logger.Get().Info(ctx, "writing sample snapshots",
		logger.String("dir", cfg.Dir),
		logger.Int("students", len(roster(cfg))),
		logger.Int("historyDays", cfg.Files.HistoryDays))

	written, err := Write(ctx, cfg)
	if err != nil {
		return err
	}
	for _, path := range written {
		logger.Get().Debug(ctx, "wrote snapshot", logger.String("path", path))
	}
	logger.Get().Info(ctx, "sample snapshots ready", logger.Int("files", len(written)))
	return nil
}

// Write generates every snapshot named by cfg.Files into cfg.Dir and
// returns the written paths. The weekly file and history days are skipped
// when their names are empty.
func Write(ctx context.Context, cfg *Config) ([]string, error) {
	if err := os.MkdirAll(cfg.Dir, directoryPermission); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	students := roster(cfg)
	now := cfg.Now

	docs := []document{
		{cfg.Files.Math, mathDocument(students, now)},
		{cfg.Files.Vocab, vocabDocument(students, now, 0)},
		{cfg.Files.Reading, readingDocument(students, now)},
	}
	if cfg.Files.VocabWeekly != "" {
		docs = append(docs, document{cfg.Files.VocabWeekly, weeklyDocument(students, now)})
	}
	if cfg.Files.HistoryPattern != "" {
		dates := cfg.Files.HistoryDates(now)
		for i, date := range dates {
			back := len(dates) - 1 - i
			day := now.AddDate(0, 0, -back)
			docs = append(docs, document{fmt.Sprintf(cfg.Files.HistoryPattern, date), vocabDocument(students, day, back*historyDecayStep)})
		}
	}

	written := make([]string, 0, len(docs))
	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		path := filepath.Join(cfg.Dir, d.name)
		if err := writeJSON(path, d.doc); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

// writeJSON replaces path atomically so a polling service never reads a
// half-written snapshot.
func writeJSON(path string, doc any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Chmod(filePermission); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", filepath.Base(path), err)
	}
	return nil
}
