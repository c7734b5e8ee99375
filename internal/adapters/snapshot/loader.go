package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/studentdash/internal/domain/merge"
	"github.com/okian/studentdash/pkg/metrics"
)

// Bundle is the set of decoded documents of one cycle.
type Bundle = merge.Snapshots

// Files names the snapshot files of one cycle.
type Files struct {
	Math        string
	Vocab       string
	VocabWeekly string
	// HistoryPattern names a historical daily vocabulary snapshot; %s is YYYY-MM-DD.
	HistoryPattern string
	HistoryDays    int
	Reading        string
}

// DefaultFiles are the names the scrapers write.
func DefaultFiles() Files {
	return Files{
		Math:           "mathacademy_student_data.json",
		Vocab:          "membean_data_latest.json",
		VocabWeekly:    "membean_data_weekly.json",
		HistoryPattern: "membean_data_%s.json",
		HistoryDays:    7,
		Reading:        "alpharead_student_data_latest.json",
	}
}

// HistoryDates returns the history dates ending at now, oldest first.
func (f Files) HistoryDates(now time.Time) []string {
	dates := make([]string, 0, max(f.HistoryDays, 0))
	for i := f.HistoryDays - 1; i >= 0; i-- {
		dates = append(dates, now.AddDate(0, 0, -i).Format(time.DateOnly))
	}
	return dates
}

// Loader fetches every file of a cycle concurrently.
type Loader struct {
	fetcher Fetcher
	files   Files
}

// NewLoader builds a loader.
func NewLoader(fetcher Fetcher, files Files) *Loader {
	return &Loader{fetcher: fetcher, files: files}
}

// Load fetches and decodes one cycle. Math, vocabulary and reading files are
// required; the weekly file and every history day are optional and left nil
// when missing. The first other failure cancels the remaining fetches.
func (l *Loader) Load(ctx context.Context, now time.Time) (Bundle, error) {
	var b Bundle
	dates := l.files.HistoryDates(now)
	b.History = make([]merge.HistorySnapshot, len(dates))

	g, gctx := errgroup.WithContext(ctx)
	get := func(label, name string, optional bool, dst *any) {
		g.Go(func() error {
			start := time.Now()
			doc, err := l.fetch(gctx, name)
			metrics.RecordFetch(label, float64(time.Since(start).Milliseconds()))
			if err != nil {
				if optional && errors.Is(err, ErrNotFound) {
					return nil
				}
				return err
			}
			*dst = doc
			return nil
		})
	}

	get("math", l.files.Math, false, &b.Math)
	get("vocab", l.files.Vocab, false, &b.Vocab)
	if l.files.VocabWeekly != "" {
		get("vocab_weekly", l.files.VocabWeekly, true, &b.VocabWeekly)
	}
	for i, date := range dates {
		b.History[i].Date = date
		get("vocab_history", fmt.Sprintf(l.files.HistoryPattern, date), true, &b.History[i].Doc)
	}
	get("reading", l.files.Reading, false, &b.Reading)

	if err := g.Wait(); err != nil {
		return Bundle{}, err
	}
	return b, nil
}

func (l *Loader) fetch(ctx context.Context, name string) (any, error) {
	raw, err := l.fetcher.Fetch(ctx, name)
	if err != nil {
		return nil, err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", name, ErrMalformed, err)
	}
	return doc, nil
}
