// Package policy maps a per-source (metric, target) choice to a progress
// percentage and a display string.
package policy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/okian/studentdash/internal/domain/model"
)

// Metric is one selectable progress measure.
type Metric string

// Math metrics.
const (
	MathXP          Metric = "xp"
	MathAssessments Metric = "assessments"
	MathTasks       Metric = "tasks"
)

// Vocabulary metrics.
const (
	VocabMinutes  Metric = "minutes"
	VocabWords    Metric = "words"
	VocabAccuracy Metric = "accuracy"
)

// Reading metrics.
const (
	ReadingAvgScore       Metric = "avgScore"
	ReadingSessions       Metric = "sessions"
	ReadingTimeReading    Metric = "timeReading"
	ReadingPracticedToday Metric = "practicedToday"
)

var choices = map[model.Source][]Metric{
	model.SourceMath:    {MathXP, MathAssessments, MathTasks},
	model.SourceVocab:   {VocabMinutes, VocabWords, VocabAccuracy},
	model.SourceReading: {ReadingAvgScore, ReadingSessions, ReadingTimeReading, ReadingPracticedToday},
}

// Choices lists the metrics a source supports.
func Choices(src model.Source) []Metric {
	return append([]Metric(nil), choices[src]...)
}

func supports(src model.Source, m Metric) bool {
	for _, c := range choices[src] {
		if c == m {
			return true
		}
	}
	return false
}

// Target is a numeric goal or, for the practiced-today metric, "yes"/"no".
type Target struct {
	Number float64
	Flag   string
}

// Num is a numeric target.
func Num(n float64) Target { return Target{Number: n} }

// Flag is a yes/no target.
func Flag(yes bool) Target {
	if yes {
		return Target{Flag: "yes"}
	}
	return Target{Flag: "no"}
}

// IsFlag reports whether the target is yes/no.
func (t Target) IsFlag() bool { return t.Flag != "" }

// Yes reports whether a yes/no target is "yes".
func (t Target) Yes() bool { return t.Flag == "yes" }

func (t Target) String() string {
	if t.IsFlag() {
		return t.Flag
	}
	return formatNumber(t.Number)
}

// MarshalJSON encodes the target as a number or "yes"/"no".
func (t Target) MarshalJSON() ([]byte, error) {
	if t.IsFlag() {
		return json.Marshal(t.Flag)
	}
	return json.Marshal(t.Number)
}

// UnmarshalJSON accepts a number, a numeric string or "yes"/"no".
func (t *Target) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.ToLower(strings.TrimSpace(s))
		switch s {
		case "yes", "no":
			*t = Target{Flag: s}
			return nil
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("target %q: %w", s, ErrInvalidPolicy)
		}
		*t = Num(n)
		return nil
	}
	var n float64
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("target %s: %w", b, ErrInvalidPolicy)
	}
	*t = Num(n)
	return nil
}

// Policy is the metric choice and target of one source.
type Policy struct {
	Metric Metric `json:"metric"`
	Target Target `json:"target"`
}

// Settings holds one policy per source.
type Settings struct {
	Math    Policy `json:"math"`
	Vocab   Policy `json:"vocab"`
	Reading Policy `json:"reading"`
}

// Defaults are used until the user saves settings.
func Defaults() Settings {
	return Settings{
		Math:    Policy{Metric: MathXP, Target: Num(70)},
		Vocab:   Policy{Metric: VocabMinutes, Target: Num(15)},
		Reading: Policy{Metric: ReadingAvgScore, Target: Num(80)},
	}
}

// For returns the policy of src.
func (s Settings) For(src model.Source) Policy {
	switch src {
	case model.SourceMath:
		return s.Math
	case model.SourceVocab:
		return s.Vocab
	case model.SourceReading:
		return s.Reading
	}
	return Policy{}
}

func (s *Settings) set(src model.Source, p Policy) {
	switch src {
	case model.SourceMath:
		s.Math = p
	case model.SourceVocab:
		s.Vocab = p
	case model.SourceReading:
		s.Reading = p
	}
}

// Validate reports the first policy whose metric or target does not fit its source.
func (s Settings) Validate() error {
	for _, src := range model.Sources {
		if err := check(src, s.For(src)); err != nil {
			return err
		}
	}
	return nil
}

func check(src model.Source, p Policy) error {
	if !supports(src, p.Metric) {
		return fmt.Errorf("%s: unknown metric %q: %w", src, p.Metric, ErrInvalidPolicy)
	}
	if p.Metric == ReadingPracticedToday {
		if !p.Target.IsFlag() {
			return fmt.Errorf("%s: %s needs a yes/no target: %w", src, p.Metric, ErrInvalidPolicy)
		}
		return nil
	}
	if p.Target.IsFlag() || p.Target.Number < 0 {
		return fmt.Errorf("%s: %s needs a non-negative number: %w", src, p.Metric, ErrInvalidPolicy)
	}
	return nil
}

// Normalize replaces every invalid policy with its source default, so
// settings read from an older or hand-edited store are always usable.
func (s Settings) Normalize() Settings {
	def := Defaults()
	for _, src := range model.Sources {
		if check(src, s.For(src)) != nil {
			s.set(src, def.For(src))
		}
	}
	return s
}
