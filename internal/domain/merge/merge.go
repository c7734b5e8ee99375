// Package merge folds adapted partial records from every source into one
// deduplicated, sorted list of student records.
package merge

import (
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/okian/studentdash/internal/domain/identity"
	"github.com/okian/studentdash/internal/domain/model"
	"github.com/okian/studentdash/internal/domain/source"
)

// Evaluator derives the cached progress of one source of a record.
type Evaluator func(rec model.StudentRecord, src model.Source) model.Progress

// Merger accumulates the records of a single cycle. It is not safe for
// concurrent use and is discarded after Records is called.
type Merger struct {
	records map[string]*model.StudentRecord
	history []historyDay
	eval    Evaluator
}

type historyDay struct {
	date    string
	minutes map[string]float64 // nil when no snapshot exists for the date
}

// New returns an empty merger. eval may be nil, in which case no progress
// is cached on the records.
func New(eval Evaluator) *Merger {
	return &Merger{records: map[string]*model.StudentRecord{}, eval: eval}
}

// Merge writes one source's partials into the map.
func (m *Merger) Merge(partials []source.Partial, src model.Source) {
	for _, p := range partials {
		key := p.Key()
		if key == "" {
			continue
		}
		rec, ok := m.records[key]
		if !ok {
			rec = &model.StudentRecord{Name: p.Name}
			m.records[key] = rec
		} else {
			rec.Name = identity.Prefer(rec.Name, p.Name)
		}

		switch src {
		case model.SourceMath:
			rec.PerSourceMetrics.Math = overlay(rec.PerSourceMetrics.Math, p.Math)
		case model.SourceVocab:
			rec.PerSourceMetrics.Vocab = overlay(rec.PerSourceMetrics.Vocab, p.Vocab)
		case model.SourceReading:
			rec.PerSourceMetrics.Reading = overlay(rec.PerSourceMetrics.Reading, p.Reading)
		}

		if len(p.Daily) > 0 {
			if rec.DailyActivity == nil {
				rec.DailyActivity = map[model.Source]map[string]model.DailyActivity{}
			}
			days := rec.DailyActivity[src]
			if days == nil {
				days = map[string]model.DailyActivity{}
				rec.DailyActivity[src] = days
			}
			for day, activity := range p.Daily {
				days[day] = activity
			}
		}

		if m.eval != nil && rec.PerSourceMetrics.Has(src) {
			if rec.Progress == nil {
				rec.Progress = map[model.Source]model.Progress{}
			}
			rec.Progress[src] = m.eval(*rec, src)
		}
	}
}

// AddHistory appends one date of the trend series. minutes maps identity
// keys to a value; a nil map means no snapshot was available for date.
func (m *Merger) AddHistory(date string, minutes map[string]float64) {
	m.history = append(m.history, historyDay{date: date, minutes: minutes})
}

// Records finalizes the cycle: it attaches trend series, drops records no
// source contributed to, assigns unique ids and sorts by family name.
func (m *Merger) Records() []model.StudentRecord {
	keys := make([]string, 0, len(m.records))
	for key, rec := range m.records {
		if rec.PerSourceMetrics.Empty() {
			continue
		}
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return less(m.records[keys[i]].Name, keys[i], m.records[keys[j]].Name, keys[j])
	})

	out := make([]model.StudentRecord, 0, len(keys))
	seen := make(map[string]int, len(keys))
	for _, key := range keys {
		rec := m.records[key]
		rec.ID = uniqueSlug(identity.Slug(rec.Name), seen)
		rec.WeeklySeries = m.series(key)
		out = append(out, *rec)
	}
	return out
}

func (m *Merger) series(key string) []model.SeriesPoint {
	points := make([]model.SeriesPoint, 0, len(m.history))
	for _, day := range m.history {
		p := model.SeriesPoint{Date: day.date}
		if v, ok := day.minutes[key]; ok {
			p.Value = &v
		}
		points = append(points, p)
	}
	return points
}

func less(nameA, keyA, nameB, keyB string) bool {
	fa := strings.ToLower(identity.FamilyName(nameA))
	fb := strings.ToLower(identity.FamilyName(nameB))
	if fa != fb {
		return fa < fb
	}
	if la, lb := strings.ToLower(nameA), strings.ToLower(nameB); la != lb {
		return la < lb
	}
	return keyA < keyB
}

func uniqueSlug(slug string, seen map[string]int) string {
	if slug == "" {
		slug = "student"
	}
	seen[slug]++
	if n := seen[slug]; n > 1 {
		return slug + "-" + strconv.Itoa(n)
	}
	return slug
}

// overlay writes every populated field of src over dst. Empty fields of src
// never reset a populated field of dst.
func overlay[T any](dst, src *T) *T {
	if src == nil {
		return dst
	}
	if dst == nil {
		c := *src
		return &c
	}
	dv := reflect.ValueOf(dst).Elem()
	sv := reflect.ValueOf(src).Elem()
	for i := 0; i < sv.NumField(); i++ {
		if f := sv.Field(i); populated(f) {
			dv.Field(i).Set(f)
		}
	}
	return dst
}

func populated(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Slice, reflect.Map:
		return v.Len() > 0
	}
	return !v.IsZero()
}
