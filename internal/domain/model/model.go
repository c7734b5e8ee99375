// Package model contains the unified student record passed between layers.
package model

import (
	"strings"
	"time"
)

// Source names one upstream data feed.
type Source string

// Known sources, in merge order.
const (
	SourceMath    Source = "math"
	SourceVocab   Source = "vocab"
	SourceReading Source = "reading"
)

// Sources lists every known source in merge order.
var Sources = []Source{SourceMath, SourceVocab, SourceReading}

// Valid reports whether s is a known source.
func (s Source) Valid() bool {
	switch s {
	case SourceMath, SourceVocab, SourceReading:
		return true
	}
	return false
}

// StudentRecord is the unified, deduplicated view of one student.
type StudentRecord struct {
	ID               string                              `json:"id"`
	Name             string                              `json:"name"`
	PerSourceMetrics SourceMetrics                       `json:"perSourceMetrics"`
	DailyActivity    map[Source]map[string]DailyActivity `json:"dailyActivityBySourceDate,omitempty"`
	WeeklySeries     []SeriesPoint                       `json:"weeklySeries"`
	// Progress caches the evaluation under the policy active at merge time.
	Progress map[Source]Progress `json:"progress,omitempty"`
}

// SourceMetrics holds the latest raw fields per source. A nil entry means
// the student has no data from that source in the current cycle.
type SourceMetrics struct {
	Math    *MathMetrics    `json:"math,omitempty"`
	Vocab   *VocabMetrics   `json:"vocab,omitempty"`
	Reading *ReadingMetrics `json:"reading,omitempty"`
}

// Empty reports whether no source contributed.
func (m SourceMetrics) Empty() bool {
	return m.Math == nil && m.Vocab == nil && m.Reading == nil
}

// Has reports whether src contributed.
func (m SourceMetrics) Has(src Source) bool {
	switch src {
	case SourceMath:
		return m.Math != nil
	case SourceVocab:
		return m.Vocab != nil
	case SourceReading:
		return m.Reading != nil
	}
	return false
}

// Count returns the number of contributing sources.
func (m SourceMetrics) Count() int {
	n := 0
	for _, s := range Sources {
		if m.Has(s) {
			n++
		}
	}
	return n
}

// MathMetrics mirrors the math platform dashboard.
type MathMetrics struct {
	StudentID            string `json:"studentId,omitempty"`
	StudentURL           string `json:"studentUrl,omitempty"`
	CourseName           string `json:"courseName,omitempty"`
	PercentComplete      string `json:"percentComplete,omitempty"`
	LastActivity         string `json:"lastActivity,omitempty"`
	TodayPoints          string `json:"todayPoints,omitempty"`
	TodayEarned          int    `json:"todayEarned"`
	TodayGoal            int    `json:"todayGoal"`
	WeeklyXP             string `json:"weeklyXp,omitempty"`
	WeeklyPoints         int    `json:"weeklyPoints"`
	ExpectedWeeklyPoints int    `json:"expectedWeeklyPoints"`
	EstimatedCompletion  string `json:"estimatedCompletion,omitempty"`
}

// VocabMetrics mirrors the vocabulary platform report.
type VocabMetrics struct {
	StudentID       string       `json:"studentId,omitempty"`
	Level           string       `json:"level,omitempty"`
	LevelSort       int          `json:"levelSort"`
	WordsSeen       int          `json:"wordsSeen"`
	LastTrained     string       `json:"lastTrained,omitempty"`
	GoalMet         bool         `json:"goalMet"`
	GoalProgress    string       `json:"goalProgress,omitempty"`
	FifteenMinDays  int          `json:"fifteenMinDays"`
	MinutesTrained  int          `json:"minutesTrained"`
	Accuracy        string       `json:"accuracy,omitempty"`
	DubiousMinutes  int          `json:"dubiousMinutes"`
	SkippedWords    int          `json:"skippedWords"`
	NewWords        int          `json:"newWords"`
	AssessmentScore string       `json:"assessmentScore,omitempty"`
	URL             string       `json:"url,omitempty"`
	Timestamp       string       `json:"timestamp,omitempty"`
	Weekly          *VocabWeekly `json:"weekly,omitempty"`
}

// VocabWeekly aggregates the vocabulary report over a week.
type VocabWeekly struct {
	GoalMet        bool   `json:"goalMet"`
	MinutesTrained int    `json:"minutesTrained"`
	Accuracy       string `json:"accuracy,omitempty"`
	NewWords       int    `json:"newWords"`
	DaysPracticed  int    `json:"daysPracticed"`
}

// ReadingMetrics mirrors the latest reading platform session summary.
type ReadingMetrics struct {
	Email          string   `json:"email,omitempty"`
	ReadingLevel   string   `json:"readingLevel,omitempty"`
	AverageScore   float64  `json:"averageScore"`
	TotalSessions  int      `json:"totalSessions"`
	LastActive     string   `json:"lastActive,omitempty"`
	TimeReading    string   `json:"timeReading,omitempty"`
	MinutesReading int      `json:"minutesReading"`
	CompletedDays  []string `json:"completedDays,omitempty"`
	StartedDays    []string `json:"startedDays,omitempty"`
	Timestamp      string   `json:"timestamp,omitempty"`
}

// DailyActivity is one calendar day of discrete activity events.
type DailyActivity struct {
	Date    string `json:"date"`
	DailyXP string `json:"dailyXp,omitempty"`
	Total   int    `json:"total"`
	Tasks   []Task `json:"tasks"`
}

// Task is a single activity event.
type Task struct {
	ID             string `json:"id"`
	Type           string `json:"type"`
	Name           string `json:"name,omitempty"`
	CompletionTime string `json:"completionTime,omitempty"`
	Earned         int    `json:"earned"`
	Possible       int    `json:"possible"`
	RawText        string `json:"rawText,omitempty"`
	Progress       string `json:"progress,omitempty"`
}

// IsAssessment reports whether the task is an assessment.
func (t Task) IsAssessment() bool {
	return strings.EqualFold(t.Type, "assessment")
}

// SeriesPoint is one day of a trend series. A nil Value means no snapshot
// was available for that date, which is distinct from a zero value.
type SeriesPoint struct {
	Date  string   `json:"date"`
	Value *float64 `json:"value"`
}

// Progress is the evaluation of one source under a metric policy.
type Progress struct {
	Percent float64 `json:"percent"`
	Bar     float64 `json:"bar"`
	Display string  `json:"display"`
	Met     bool    `json:"met"`
}

// DayKeyPrefix is the "Mon, Jan 2" prefix the math platform uses for day keys.
func DayKeyPrefix(now time.Time) string {
	return now.Format("Mon, Jan 2")
}

// Today returns the day entry of src whose key denotes now's calendar day.
func (r StudentRecord) Today(src Source, now time.Time) (DailyActivity, bool) {
	days := r.DailyActivity[src]
	if len(days) == 0 {
		return DailyActivity{}, false
	}
	prefix := DayKeyPrefix(now)
	if d, ok := days[prefix]; ok {
		return d, true
	}
	for key, d := range days {
		if strings.HasPrefix(key, prefix) && !startsWithDigit(key[len(prefix):]) {
			return d, true
		}
	}
	return DailyActivity{}, false
}

// "Mon, Jan 1" must not match "Mon, Jan 12".
func startsWithDigit(s string) bool {
	return s != "" && s[0] >= '0' && s[0] <= '9'
}
