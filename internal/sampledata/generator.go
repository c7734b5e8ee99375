package sampledata

import (
	"fmt"
	"strings"
	"time"

	"github.com/okian/studentdash/internal/domain/identity"
	"github.com/okian/studentdash/internal/domain/model"
)

const (
	dailyXPGoal      = 70
	pointsPerTask    = 10
	vocabURL         = "https://vocab.example.edu/dashboard"
	mathStudentURL   = "https://math.example.edu/students/"
	historyDecayStep = 2 // minutes lost per day back in history
)

func roster(cfg *Config) []Student {
	if len(cfg.Roster) > 0 {
		return cfg.Roster
	}
	return Roster()
}

// mathDocument builds the math platform snapshot: an array of students.
func mathDocument(students []Student, now time.Time) []any {
	today := model.DayKeyPrefix(now)
	doc := make([]any, 0, len(students))
	for i, s := range students {
		if s.MathName == "" {
			continue
		}
		tasks := make([]any, 0, s.Tasks)
		for t := 0; t < s.Tasks; t++ {
			kind := "Lesson"
			if t == 0 && s.Tasks > 2 {
				kind = "Assessment"
			}
			tasks = append(tasks, map[string]any{
				"id":         fmt.Sprintf("%d%03d", i+1, t+1),
				"type":       kind,
				"name":       fmt.Sprintf("%s %d", kind, t+1),
				"completion": now.Add(-time.Duration(t+1) * time.Hour).Format("3:04 PM"),
				"points": map[string]any{
					"earned":   pointsPerTask,
					"possible": pointsPerTask,
					"raw_text": fmt.Sprintf("%d/%d XP", pointsPerTask, pointsPerTask),
				},
				"progress": "100%",
			})
		}
		id := fmt.Sprintf("%d", 1000+i)
		doc = append(doc, map[string]any{
			"name":        s.MathName,
			"student_id":  id,
			"student_url": mathStudentURL + id,
			"dashboard_info": map[string]any{
				"course_info": map[string]any{
					"name":             "Mathematical Foundations",
					"percent_complete": fmt.Sprintf("%d%%", 20+i*15),
				},
				"last_activity": now.Format("Jan 2"),
				"today_progress": map[string]any{
					"points": fmt.Sprintf("%d/%d XP", s.XP, dailyXPGoal),
				},
				"weekly_xp": fmt.Sprintf("%d XP", s.XP*3),
			},
			"detailed_info": map[string]any{
				"estimated_completion": now.AddDate(0, 4, 0).Format("Jan 2006"),
				"daily_activity": map[string]any{
					today: map[string]any{
						"date":     today,
						"daily_xp": fmt.Sprintf("%d XP", s.XP),
						"tasks":    tasks,
					},
				},
			},
		})
	}
	return doc
}

// vocabDocument builds a vocabulary snapshot. minutesOffset lowers minutes
// for historical days so trend lines have some shape.
func vocabDocument(students []Student, now time.Time, minutesOffset int) map[string]any {
	byID := make(map[string]any, len(students))
	for i, s := range students {
		if s.VocabName == "" {
			continue
		}
		minutes := max(s.Minutes-minutesOffset, 0)
		accuracy := ""
		if s.Accuracy > 0 {
			accuracy = fmt.Sprintf("%d%%", s.Accuracy)
		}
		byID[fmt.Sprintf("v%03d", i+1)] = map[string]any{
			"name": s.VocabName,
			"current_data": map[string]any{
				"level":        fmt.Sprintf("Level %d", 3+i),
				"level_sort":   3 + i,
				"words_seen":   fmt.Sprintf("%d", 400+i*125),
				"last_trained": now.Format("Jan 2"),
			},
			"tabs_data": map[string]any{
				"Reports": map[string]any{
					"goal_met":         minutes >= 15,
					"goal_progress":    fmt.Sprintf("%d/15 min", minutes),
					"fifteen_min_days": fmt.Sprintf("%d", min(minutes/5, 5)),
					"minutes_trained":  minutes,
					"accuracy":         accuracy,
					"dubious_minutes":  0,
					"skipped_words":    i,
					"new_words":        max(s.NewWords-minutesOffset, 0),
					"assessment_score": "",
				},
			},
		}
	}
	return map[string]any{
		"timestamp": now.Format(time.RFC3339),
		"url":       vocabURL,
		"students":  byID,
	}
}

// weeklyDocument scales the daily vocabulary numbers to a five day week.
func weeklyDocument(students []Student, now time.Time) map[string]any {
	week := make([]Student, len(students))
	for i, s := range students {
		s.Minutes *= 5
		s.NewWords *= 5
		week[i] = s
	}
	return vocabDocument(week, now, 0)
}

// readingDocument builds the reading snapshot: an object keyed by email
// holding session summaries with the latest last.
func readingDocument(students []Student, now time.Time) map[string]any {
	doc := map[string]any{"timestamp": now.Format(time.RFC3339)}
	for _, s := range students {
		if s.Email == "" {
			continue
		}
		minutes := s.Sessions * 25
		latest := map[string]any{
			"reading_level":  "Grade 5",
			"average_score":  s.AvgScore,
			"total_sessions": s.Sessions,
			"last_active":    now.Format("Mon, Jan 2 2006"),
			"time_reading":   fmt.Sprintf("%dh %dm", minutes/60, minutes%60),
			"sessions": map[string]any{
				"days": map[string]any{
					"completed": []any{now.Format(time.DateOnly)},
					"started":   []any{},
				},
			},
		}
		if s.ReadingName != "" {
			latest["name"] = s.ReadingName
		}
		previous := map[string]any{
			"reading_level":  "Grade 4",
			"average_score":  s.AvgScore / 2,
			"total_sessions": max(s.Sessions-1, 0),
			"last_active":    now.AddDate(0, 0, -1).Format("Mon, Jan 2 2006"),
		}
		doc[s.Email] = []any{previous, latest}
	}
	return doc
}

// DisplayName is the name the dashboard shows for s once every source has
// been reconciled.
func DisplayName(s Student) string {
	reading := s.ReadingName
	if reading == "" {
		reading = identity.FromEmail(s.Email)
	}
	name := ""
	for _, n := range []string{s.MathName, s.VocabName, reading} {
		if n != "" {
			name = identity.Prefer(name, identity.Normalize(n))
		}
	}
	return strings.TrimSpace(name)
}
