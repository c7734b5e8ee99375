package source

import (
	"sort"

	"github.com/okian/studentdash/internal/domain/identity"
	"github.com/okian/studentdash/internal/domain/model"
)

type readingEntry struct {
	Name          string  `json:"name"`
	ReadingLevel  string  `json:"reading_level"`
	AverageScore  float64 `json:"average_score"`
	TotalSessions int     `json:"total_sessions"`
	LastActive    string  `json:"last_active"`
	TimeReading   string  `json:"time_reading"`
	Sessions      struct {
		Days struct {
			Completed []string `json:"completed"`
			Started   []string `json:"started"`
		} `json:"days"`
	} `json:"sessions"`
}

// Reading adapts the reading platform snapshot: an object keyed by email
// whose values are arrays of session summaries, latest last.
func Reading(raw any) (Result, error) {
	root, err := asObject(raw, "reading snapshot")
	if err != nil {
		return Result{}, err
	}
	ts, _ := root["timestamp"].(string)
	emails := make([]string, 0, len(root))
	for k := range root {
		if k != "timestamp" {
			emails = append(emails, k)
		}
	}
	sort.Strings(emails)

	var res Result
	for _, email := range emails {
		list, ok := root[email].([]any)
		if !ok || len(list) == 0 {
			res.Skipped++
			continue
		}
		obj, ok := list[len(list)-1].(map[string]any)
		if !ok {
			res.Skipped++
			continue
		}
		var e readingEntry
		if err := decode(obj, &e); err != nil {
			res.Skipped++
			continue
		}
		name := e.Name
		if name == "" {
			name = identity.FromEmail(email)
		}
		if name == "" {
			res.Skipped++
			continue
		}
		p := newPartial(name, model.SourceReading)
		*p.Reading = model.ReadingMetrics{
			Email:          email,
			ReadingLevel:   e.ReadingLevel,
			AverageScore:   e.AverageScore,
			TotalSessions:  e.TotalSessions,
			LastActive:     e.LastActive,
			TimeReading:    e.TimeReading,
			MinutesReading: ParseMinutes(e.TimeReading),
			CompletedDays:  e.Sessions.Days.Completed,
			StartedDays:    e.Sessions.Days.Started,
			Timestamp:      ts,
		}
		res.Records = append(res.Records, p)
	}
	return res, nil
}
