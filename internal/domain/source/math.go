package source

import (
	"fmt"
	"time"

	"github.com/okian/studentdash/internal/domain/model"
)

type mathEntry struct {
	Name       string `json:"name"`
	StudentID  string `json:"student_id"`
	StudentURL string `json:"student_url"`
	Dashboard  struct {
		CourseInfo struct {
			Name            string `json:"name"`
			PercentComplete string `json:"percent_complete"`
		} `json:"course_info"`
		LastActivity  string `json:"last_activity"`
		TodayProgress struct {
			Points string `json:"points"`
		} `json:"today_progress"`
		WeeklyXP string `json:"weekly_xp"`
	} `json:"dashboard_info"`
	Detailed struct {
		EstimatedCompletion string             `json:"estimated_completion"`
		DailyActivity       map[string]mathDay `json:"daily_activity"`
	} `json:"detailed_info"`
}

type mathDay struct {
	Date    string     `json:"date"`
	DailyXP string     `json:"daily_xp"`
	Tasks   []mathTask `json:"tasks"`
}

type mathTask struct {
	ID             string `json:"id"`
	Type           string `json:"type"`
	Name           string `json:"name"`
	Completion     string `json:"completion"`
	CompletionTime string `json:"completion_time"`
	Points         struct {
		Scored   int    `json:"scored"`
		Earned   int    `json:"earned"`
		Possible int    `json:"possible"`
		RawText  string `json:"raw_text"`
	} `json:"points"`
	Progress string `json:"progress"`
}

// Math adapts the math platform snapshot: an array of per-student objects.
func Math(raw any, now time.Time) (Result, error) {
	list, ok := raw.([]any)
	if !ok {
		return Result{}, fmt.Errorf("math snapshot: want array, got %T: %w", raw, ErrMalformedSnapshot)
	}
	var res Result
	for _, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			res.Skipped++
			continue
		}
		var e mathEntry
		if err := decode(obj, &e); err != nil || e.Name == "" {
			res.Skipped++
			continue
		}
		res.Records = append(res.Records, e.partial(now))
	}
	return res, nil
}

func (e mathEntry) partial(now time.Time) Partial {
	p := newPartial(e.Name, model.SourceMath)
	earned, goal := ParsePoints(e.Dashboard.TodayProgress.Points)
	*p.Math = model.MathMetrics{
		StudentID:            e.StudentID,
		StudentURL:           e.StudentURL,
		CourseName:           e.Dashboard.CourseInfo.Name,
		PercentComplete:      e.Dashboard.CourseInfo.PercentComplete,
		LastActivity:         e.Dashboard.LastActivity,
		TodayPoints:          e.Dashboard.TodayProgress.Points,
		TodayEarned:          earned,
		TodayGoal:            goal,
		WeeklyXP:             e.Dashboard.WeeklyXP,
		WeeklyPoints:         FirstInt(e.Dashboard.WeeklyXP),
		ExpectedWeeklyPoints: ExpectedWeeklyPoints(now),
		EstimatedCompletion:  e.Detailed.EstimatedCompletion,
	}
	for key, day := range e.Detailed.DailyActivity {
		p.Daily[key] = day.activity(key)
	}
	return p
}

func (d mathDay) activity(key string) model.DailyActivity {
	date := d.Date
	if date == "" {
		date = key
	}
	out := model.DailyActivity{
		Date:    date,
		DailyXP: d.DailyXP,
		Total:   FirstInt(d.DailyXP),
		Tasks:   make([]model.Task, 0, len(d.Tasks)),
	}
	for _, t := range d.Tasks {
		out.Tasks = append(out.Tasks, t.task())
	}
	return out
}

func (t mathTask) task() model.Task {
	completion := t.Completion
	if completion == "" {
		completion = t.CompletionTime
	}
	earned := t.Points.Scored
	if earned == 0 {
		earned = t.Points.Earned
	}
	possible := t.Points.Possible
	if earned == 0 && possible == 0 && t.Points.RawText != "" {
		earned, possible = ParsePoints(t.Points.RawText)
	}
	return model.Task{
		ID:             t.ID,
		Type:           t.Type,
		Name:           t.Name,
		CompletionTime: completion,
		Earned:         earned,
		Possible:       possible,
		RawText:        t.Points.RawText,
		Progress:       t.Progress,
	}
}
