package sampledata

import (
	"time"

	"github.com/okian/studentdash/internal/adapters/snapshot"
)

// Config holds configuration for a sample data run.
type Config struct {
	Dir    string         // Directory receiving the snapshot files
	Files  snapshot.Files // File names, matching the service configuration
	Now    time.Time      // Reference time; today's day logs use this date
	Roster []Student      // Students to emit; Roster() when empty
}

// Student describes one pupil and how each platform spells their name.
// An empty per-source name leaves the student out of that snapshot.
type Student struct {
	MathName    string
	VocabName   string
	Email       string
	ReadingName string // empty: derived from Email by the reader

	XP       int     // today's math XP
	Tasks    int     // math tasks completed today
	Minutes  int     // vocabulary minutes trained today
	NewWords int     // vocabulary words introduced today
	Accuracy int     // vocabulary accuracy percent
	AvgScore float64 // reading average score
	Sessions int     // reading sessions
}

// Roster is the fixed set of sample students. It mixes "Last, First" and
// "First Last" spellings, an email-only reading entry and a student who
// only uses the vocabulary platform.
func Roster() []Student {
	return []Student{
		{MathName: "Doe, John", VocabName: "John Doe", Email: "john.doe@example.edu", ReadingName: "John Doe",
			XP: 84, Tasks: 3, Minutes: 12, NewWords: 18, Accuracy: 85, AvgScore: 82.5, Sessions: 5},
		{MathName: "Smith, Jane", VocabName: "Jane Smith", Email: "jane.smith@example.edu",
			XP: 35, Tasks: 1, Minutes: 21, NewWords: 30, Accuracy: 91, AvgScore: 74, Sessions: 2},
		{MathName: "Garcia, Maria", VocabName: "Maria Garcia", Email: "maria.garcia@example.edu", ReadingName: "maria garcia",
			XP: 0, Tasks: 0, Minutes: 0, NewWords: 0, Accuracy: 0, AvgScore: 90, Sessions: 8},
		{VocabName: "Ray Park",
			Minutes: 15, NewWords: 22, Accuracy: 78},
		{MathName: "Adams, Lee", Email: "lee.adams@example.edu", ReadingName: "Lee Adams",
			XP: 140, Tasks: 4, AvgScore: 66, Sessions: 1},
	}
}
