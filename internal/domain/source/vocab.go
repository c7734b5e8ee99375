package source

import (
	"sort"

	"github.com/okian/studentdash/internal/domain/identity"
	"github.com/okian/studentdash/internal/domain/model"
)

type vocabEntry struct {
	Name    string `json:"name"`
	Current struct {
		Level       string `json:"level"`
		LevelSort   int    `json:"level_sort"`
		WordsSeen   int    `json:"words_seen"`
		LastTrained string `json:"last_trained"`
	} `json:"current_data"`
	Tabs struct {
		Reports vocabReport `json:"Reports"`
	} `json:"tabs_data"`
}

type vocabReport struct {
	GoalMet         bool   `json:"goal_met"`
	GoalProgress    string `json:"goal_progress"`
	FifteenMinDays  int    `json:"fifteen_min_days"`
	MinutesTrained  int    `json:"minutes_trained"`
	Accuracy        string `json:"accuracy"`
	DubiousMinutes  int    `json:"dubious_minutes"`
	SkippedWords    int    `json:"skipped_words"`
	NewWords        int    `json:"new_words"`
	AssessmentScore string `json:"assessment_score"`
}

type vocabStudent struct {
	id    string
	entry vocabEntry
}

// vocabStudents walks the "students" map of a vocabulary snapshot in id order.
func vocabStudents(raw any, what string) (students []vocabStudent, timestamp, url string, skipped int, err error) {
	root, err := asObject(raw, what)
	if err != nil {
		return nil, "", "", 0, err
	}
	timestamp, _ = root["timestamp"].(string)
	url, _ = root["url"].(string)
	byID, _ := root["students"].(map[string]any)
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		obj, ok := byID[id].(map[string]any)
		if !ok {
			skipped++
			continue
		}
		var e vocabEntry
		if err := decode(obj, &e); err != nil || e.Name == "" {
			skipped++
			continue
		}
		students = append(students, vocabStudent{id: id, entry: e})
	}
	return students, timestamp, url, skipped, nil
}

// Vocab adapts the daily vocabulary snapshot.
func Vocab(raw any) (Result, error) {
	students, ts, url, skipped, err := vocabStudents(raw, "vocab snapshot")
	if err != nil {
		return Result{}, err
	}
	res := Result{Skipped: skipped}
	for _, s := range students {
		p := newPartial(s.entry.Name, model.SourceVocab)
		r := s.entry.Tabs.Reports
		*p.Vocab = model.VocabMetrics{
			StudentID:       s.id,
			Level:           s.entry.Current.Level,
			LevelSort:       s.entry.Current.LevelSort,
			WordsSeen:       s.entry.Current.WordsSeen,
			LastTrained:     s.entry.Current.LastTrained,
			GoalMet:         r.GoalMet,
			GoalProgress:    r.GoalProgress,
			FifteenMinDays:  r.FifteenMinDays,
			MinutesTrained:  r.MinutesTrained,
			Accuracy:        r.Accuracy,
			DubiousMinutes:  r.DubiousMinutes,
			SkippedWords:    r.SkippedWords,
			NewWords:        r.NewWords,
			AssessmentScore: r.AssessmentScore,
			URL:             url,
			Timestamp:       ts,
		}
		res.Records = append(res.Records, p)
	}
	return res, nil
}

// VocabWeekly adapts the weekly aggregate snapshot. Its partials only carry
// the Weekly block, so merging them never disturbs the daily fields. The
// weekly ids are not those of the daily snapshot and are not kept.
func VocabWeekly(raw any) (Result, error) {
	students, _, _, skipped, err := vocabStudents(raw, "vocab weekly snapshot")
	if err != nil {
		return Result{}, err
	}
	res := Result{Skipped: skipped}
	for _, s := range students {
		p := newPartial(s.entry.Name, model.SourceVocab)
		r := s.entry.Tabs.Reports
		p.Vocab.Weekly = &model.VocabWeekly{
			GoalMet:        r.GoalMet,
			MinutesTrained: r.MinutesTrained,
			Accuracy:       r.Accuracy,
			NewWords:       r.NewWords,
			DaysPracticed:  r.FifteenMinDays,
		}
		res.Records = append(res.Records, p)
	}
	return res, nil
}

// VocabHistory reads one historical daily snapshot and returns minutes
// trained per identity key, for trend series.
func VocabHistory(raw any) (map[string]float64, error) {
	students, _, _, _, err := vocabStudents(raw, "vocab history snapshot")
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(students))
	for _, s := range students {
		out[identity.Key(s.entry.Name)] = float64(s.entry.Tabs.Reports.MinutesTrained)
	}
	return out, nil
}
