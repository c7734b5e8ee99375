// Package source converts each upstream snapshot shape into partial student
// records. Adapters default every missing field and fail only when the
// top-level document is not shaped like the source at all.
package source

import (
	"regexp"
	"strconv"
	"time"

	"github.com/okian/studentdash/internal/domain/identity"
	"github.com/okian/studentdash/internal/domain/model"
)

// Partial is what one source knows about one student.
type Partial struct {
	Name    string
	Source  model.Source
	Math    *model.MathMetrics
	Vocab   *model.VocabMetrics
	Reading *model.ReadingMetrics
	// Daily is day-level detail keyed by calendar day string.
	Daily map[string]model.DailyActivity
}

// Key is the identity comparison key of the partial.
func (p Partial) Key() string { return identity.Key(p.Name) }

// newPartial is the one empty-record constructor shared by all adapters.
func newPartial(rawName string, src model.Source) Partial {
	p := Partial{Name: identity.Normalize(rawName), Source: src}
	switch src {
	case model.SourceMath:
		p.Math = &model.MathMetrics{}
		p.Daily = map[string]model.DailyActivity{}
	case model.SourceVocab:
		p.Vocab = &model.VocabMetrics{}
	case model.SourceReading:
		p.Reading = &model.ReadingMetrics{}
	}
	return p
}

// Result is the output of one adapter run.
type Result struct {
	Records []Partial
	// Skipped counts entries that were not objects or carried no usable name.
	Skipped int
}

const (
	pointsPerWeekday = 70
	weekdaysPerWeek  = 5
)

// ExpectedWeeklyPoints is the math baseline for the current week: 70 points
// per weekday elapsed, Monday-indexed and capped at five, Sunday counting as 0.
func ExpectedWeeklyPoints(now time.Time) int {
	return pointsPerWeekday * min(int(now.Weekday()), weekdaysPerWeek)
}

var pointsPair = regexp.MustCompile(`(\d+)\s*/\s*(\d+)`)

// ParsePoints extracts earned and goal from text like "84/70 XP". When only
// one number is present it is the earned value and goal is 0.
func ParsePoints(s string) (earned, goal int) {
	if m := pointsPair.FindStringSubmatch(s); m != nil {
		earned, _ = strconv.Atoi(m[1])
		goal, _ = strconv.Atoi(m[2])
		return earned, goal
	}
	return FirstInt(s), 0
}

var (
	hoursPart   = regexp.MustCompile(`(\d+)\s*h`)
	minutesPart = regexp.MustCompile(`(\d+)\s*m`)
)

// ParseMinutes converts "<H>h <M>m" durations to minutes. Either part may be
// absent and defaults to 0.
func ParseMinutes(s string) int {
	total := 0
	if m := hoursPart.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		total += h * 60
	}
	if m := minutesPart.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		total += n
	}
	return total
}
