package merge

import (
	"fmt"
	"time"

	"github.com/okian/studentdash/internal/domain/model"
	"github.com/okian/studentdash/internal/domain/source"
)

// Snapshots holds the decoded documents of one cycle. Optional documents are
// nil when absent.
type Snapshots struct {
	Math        any
	Vocab       any
	VocabWeekly any
	// History is ordered oldest to newest.
	History []HistorySnapshot
	Reading any
}

// HistorySnapshot is one historical daily vocabulary document.
type HistorySnapshot struct {
	Date string // YYYY-MM-DD
	Doc  any
}

// Output is the result of one cycle.
type Output struct {
	Records []model.StudentRecord
	// Contributed counts adapted partials per source.
	Contributed map[model.Source]int
	// Skipped counts unusable snapshot entries per source.
	Skipped map[model.Source]int
}

// Build runs every adapter and merges the results in the fixed order: math,
// vocabulary daily, vocabulary weekly, vocabulary history, reading. Any
// malformed document aborts the whole build.
func Build(snaps Snapshots, now time.Time, eval Evaluator) (Output, error) {
	out := Output{
		Contributed: map[model.Source]int{},
		Skipped:     map[model.Source]int{},
	}
	m := New(eval)

	apply := func(src model.Source, res source.Result) {
		m.Merge(res.Records, src)
		out.Contributed[src] += len(res.Records)
		out.Skipped[src] += res.Skipped
	}

	mathRes, err := source.Math(snaps.Math, now)
	if err != nil {
		return Output{}, err
	}
	apply(model.SourceMath, mathRes)

	vocabRes, err := source.Vocab(snaps.Vocab)
	if err != nil {
		return Output{}, err
	}
	apply(model.SourceVocab, vocabRes)

	if snaps.VocabWeekly != nil {
		weeklyRes, err := source.VocabWeekly(snaps.VocabWeekly)
		if err != nil {
			return Output{}, err
		}
		m.Merge(weeklyRes.Records, model.SourceVocab)
		out.Skipped[model.SourceVocab] += weeklyRes.Skipped
	}

	for _, h := range snaps.History {
		if h.Doc == nil {
			m.AddHistory(h.Date, nil)
			continue
		}
		minutes, err := source.VocabHistory(h.Doc)
		if err != nil {
			return Output{}, fmt.Errorf("history %s: %w", h.Date, err)
		}
		m.AddHistory(h.Date, minutes)
	}

	readingRes, err := source.Reading(snaps.Reading)
	if err != nil {
		return Output{}, err
	}
	apply(model.SourceReading, readingRes)

	out.Records = m.Records()
	return out, nil
}
