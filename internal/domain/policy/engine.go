package policy

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/okian/studentdash/internal/domain/model"
	"github.com/okian/studentdash/internal/domain/source"
)

// NoData is the display string for a source the student has no data from.
const NoData = "No data"

// Evaluate computes every view of one source under p. It never fails:
// missing data yields 0% and the NoData placeholder.
func Evaluate(rec model.StudentRecord, src model.Source, p Policy, now time.Time) model.Progress {
	pct := ProgressPercent(rec, src, p, now)
	return model.Progress{
		Percent: pct,
		Bar:     Bar(pct),
		Display: DisplayString(rec, src, p, now),
		Met:     Met(rec, src, p, now),
	}
}

// ProgressPercent returns 100 * actual / target, uncapped. For the reading
// source it is 100 when the metric is met and 0 otherwise.
func ProgressPercent(rec model.StudentRecord, src model.Source, p Policy, now time.Time) float64 {
	if !rec.PerSourceMetrics.Has(src) {
		return 0
	}
	if src == model.SourceReading {
		if readingMet(rec.PerSourceMetrics.Reading, p, now) {
			return 100
		}
		return 0
	}
	actual, ok := numericActual(rec, src, p.Metric, now)
	if !ok {
		return 0
	}
	return Pct(actual, p.Target.Number)
}

// Met reports the coloring threshold: an uncapped percentage of at least 100
// for math and vocabulary, and the per-metric comparison for reading.
func Met(rec model.StudentRecord, src model.Source, p Policy, now time.Time) bool {
	if !rec.PerSourceMetrics.Has(src) {
		return false
	}
	if src == model.SourceReading {
		return readingMet(rec.PerSourceMetrics.Reading, p, now)
	}
	return ProgressPercent(rec, src, p, now) >= 100
}

// DisplayString renders "actual/target unit" for the chosen metric.
func DisplayString(rec model.StudentRecord, src model.Source, p Policy, now time.Time) string {
	if !rec.PerSourceMetrics.Has(src) {
		return NoData
	}
	target := p.Target.String()
	switch src {
	case model.SourceMath, model.SourceVocab:
		actual, ok := numericActual(rec, src, p.Metric, now)
		if !ok {
			return NoData
		}
		a := formatNumber(actual)
		switch p.Metric {
		case MathXP:
			return a + "/" + target + " XP"
		case MathAssessments:
			return a + "/" + target + " Assessments"
		case MathTasks:
			return a + "/" + target + " Tasks"
		case VocabMinutes:
			return a + "/" + target + " minutes"
		case VocabWords:
			return a + "/" + target + " words"
		case VocabAccuracy:
			return a + "/" + target + "%"
		}
	case model.SourceReading:
		r := rec.PerSourceMetrics.Reading
		switch p.Metric {
		case ReadingAvgScore:
			return formatNumber(r.AverageScore) + "/" + target + " Avg Score"
		case ReadingSessions:
			return strconv.Itoa(r.TotalSessions) + "/" + target + " Sessions"
		case ReadingTimeReading:
			return strconv.Itoa(r.MinutesReading) + "/" + target + " min Time Reading"
		case ReadingPracticedToday:
			if PracticedToday(r.LastActive, now) {
				return "Practiced Today: Yes"
			}
			return "Practiced Today: No"
		}
	}
	return NoData
}

// Pct is 100 * actual / target. A zero target counts as met only when the
// actual value is zero too.
func Pct(actual, target float64) float64 {
	if target <= 0 {
		if actual == 0 {
			return 100
		}
		return 0
	}
	return actual / target * 100
}

// Bar clamps a percentage to the 0..100 range of a progress bar.
func Bar(pct float64) float64 {
	return min(max(pct, 0), 100)
}

// PracticedToday reports whether a free-text last-active label mentions
// today's month and day, e.g. "Jan 2". This is a text match in English
// month abbreviations, not a date comparison.
func PracticedToday(lastActive string, now time.Time) bool {
	if lastActive == "" {
		return false
	}
	label := strings.ToLower(lastActive)
	day := strings.ToLower(now.Format("Jan 2"))
	idx := strings.Index(label, day)
	for idx >= 0 {
		end := idx + len(day)
		if end == len(label) || label[end] < '0' || label[end] > '9' {
			return true
		}
		next := strings.Index(label[end:], day)
		if next < 0 {
			break
		}
		idx = end + next
	}
	return false
}

func numericActual(rec model.StudentRecord, src model.Source, metric Metric, now time.Time) (float64, bool) {
	switch src {
	case model.SourceMath:
		m := rec.PerSourceMetrics.Math
		today, found := rec.Today(model.SourceMath, now)
		switch metric {
		case MathXP:
			if found {
				return float64(today.Total), true
			}
			return float64(m.TodayEarned), true
		case MathAssessments:
			n := 0
			for _, t := range today.Tasks {
				if t.IsAssessment() {
					n++
				}
			}
			return float64(n), true
		case MathTasks:
			return float64(len(today.Tasks)), true
		}
	case model.SourceVocab:
		v := rec.PerSourceMetrics.Vocab
		switch metric {
		case VocabMinutes:
			return float64(v.MinutesTrained), true
		case VocabWords:
			return float64(v.WordsSeen), true
		case VocabAccuracy:
			return source.FirstFloat(v.Accuracy), true
		}
	}
	return 0, false
}

func readingMet(r *model.ReadingMetrics, p Policy, now time.Time) bool {
	if r == nil {
		return false
	}
	switch p.Metric {
	case ReadingAvgScore:
		return r.AverageScore >= p.Target.Number
	case ReadingSessions:
		return float64(r.TotalSessions) >= p.Target.Number
	case ReadingTimeReading:
		return float64(r.MinutesReading) >= p.Target.Number
	case ReadingPracticedToday:
		return PracticedToday(r.LastActive, now) == p.Target.Yes()
	}
	return false
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Describe is a short label of a policy, e.g. "xp >= 70".
func Describe(p Policy) string {
	return fmt.Sprintf("%s >= %s", p.Metric, p.Target)
}
