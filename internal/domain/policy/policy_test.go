package policy_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/okian/studentdash/internal/domain/model"
	"github.com/okian/studentdash/internal/domain/policy"
	. "github.com/smartystreets/goconvey/convey"
)

// Wednesday.
var now = time.Date(2025, time.January, 1, 15, 0, 0, 0, time.UTC)

func mathRecord() model.StudentRecord {
	return model.StudentRecord{
		Name: "John Doe",
		PerSourceMetrics: model.SourceMetrics{
			Math: &model.MathMetrics{TodayPoints: "84/70 XP", TodayEarned: 84, TodayGoal: 70},
		},
	}
}

func TestPct(t *testing.T) {
	Convey("Given the percentage rule", t, func() {
		So(policy.Pct(84, 70), ShouldEqual, 120.0)
		So(policy.Pct(0, 0), ShouldEqual, 100.0)
		So(policy.Pct(5, 0), ShouldEqual, 0.0)
		So(policy.Pct(7, 14), ShouldEqual, 50.0)
	})

	Convey("Given bar values", t, func() {
		So(policy.Bar(120), ShouldEqual, 100.0)
		So(policy.Bar(-3), ShouldEqual, 0.0)
		So(policy.Bar(42.5), ShouldEqual, 42.5)
	})
}

func TestMathPolicy(t *testing.T) {
	Convey("Given a math record with 84 of 70 points today", t, func() {
		rec := mathRecord()
		p := policy.Policy{Metric: policy.MathXP, Target: policy.Num(70)}

		Convey("Then the percentage is uncapped and the bar is clamped", func() {
			prog := policy.Evaluate(rec, model.SourceMath, p, now)
			So(policy.ProgressPercent(rec, model.SourceMath, p, now), ShouldEqual, 120.0)
			So(prog.Percent, ShouldEqual, 120.0)
			So(prog.Bar, ShouldEqual, 100.0)
			So(prog.Met, ShouldBeTrue)
			So(prog.Display, ShouldEqual, "84/70 XP")
		})

		Convey("When today's day log exists", func() {
			rec.DailyActivity = map[model.Source]map[string]model.DailyActivity{
				model.SourceMath: {"Wed, Jan 1, 2025": {Total: 35, Tasks: []model.Task{
					{ID: "a", Type: "Lesson"}, {ID: "b", Type: "Assessment"}, {ID: "c", Type: "Review"},
				}}},
			}

			Convey("Then the day log drives every math metric", func() {
				So(policy.ProgressPercent(rec, model.SourceMath, p, now), ShouldEqual, 50.0)
				tasks := policy.Policy{Metric: policy.MathTasks, Target: policy.Num(6)}
				So(policy.ProgressPercent(rec, model.SourceMath, tasks, now), ShouldEqual, 50.0)
				So(policy.DisplayString(rec, model.SourceMath, tasks, now), ShouldEqual, "3/6 Tasks")
				assess := policy.Policy{Metric: policy.MathAssessments, Target: policy.Num(1)}
				So(policy.ProgressPercent(rec, model.SourceMath, assess, now), ShouldEqual, 100.0)
				So(policy.DisplayString(rec, model.SourceMath, assess, now), ShouldEqual, "1/1 Assessments")
			})
		})

		Convey("When there is no activity and the target is zero", func() {
			tasks := policy.Policy{Metric: policy.MathTasks, Target: policy.Num(0)}
			So(policy.ProgressPercent(rec, model.SourceMath, tasks, now), ShouldEqual, 100.0)
		})
	})
}

func TestVocabPolicy(t *testing.T) {
	Convey("Given a vocabulary-only record", t, func() {
		rec := model.StudentRecord{
			Name: "Jane Smith",
			PerSourceMetrics: model.SourceMetrics{
				Vocab: &model.VocabMetrics{MinutesTrained: 12, WordsSeen: 30, NewWords: 3, Accuracy: "85%"},
			},
		}

		Convey("Then vocabulary metrics are derived", func() {
			minutes := policy.Policy{Metric: policy.VocabMinutes, Target: policy.Num(15)}
			So(policy.ProgressPercent(rec, model.SourceVocab, minutes, now), ShouldEqual, 80.0)
			So(policy.DisplayString(rec, model.SourceVocab, minutes, now), ShouldEqual, "12/15 minutes")
			So(policy.Met(rec, model.SourceVocab, minutes, now), ShouldBeFalse)

			accuracy := policy.Policy{Metric: policy.VocabAccuracy, Target: policy.Num(85)}
			So(policy.ProgressPercent(rec, model.SourceVocab, accuracy, now), ShouldEqual, 100.0)
			So(policy.DisplayString(rec, model.SourceVocab, accuracy, now), ShouldEqual, "85/85%")

			words := policy.Policy{Metric: policy.VocabWords, Target: policy.Num(30)}
			So(policy.ProgressPercent(rec, model.SourceVocab, words, now), ShouldEqual, 100.0)
			So(policy.DisplayString(rec, model.SourceVocab, words, now), ShouldEqual, "30/30 words")
			So(policy.Met(rec, model.SourceVocab, words, now), ShouldBeTrue)

			noWords := policy.Policy{Metric: policy.VocabWords, Target: policy.Num(0)}
			So(policy.ProgressPercent(rec, model.SourceVocab, noWords, now), ShouldEqual, 0.0)
		})

		Convey("Then math lookups return the documented default", func() {
			p := policy.Defaults().Math
			So(policy.ProgressPercent(rec, model.SourceMath, p, now), ShouldEqual, 0.0)
			So(policy.DisplayString(rec, model.SourceMath, p, now), ShouldEqual, policy.NoData)
			So(policy.Met(rec, model.SourceMath, p, now), ShouldBeFalse)
		})
	})
}

func TestReadingPolicy(t *testing.T) {
	Convey("Given a reading record", t, func() {
		rec := model.StudentRecord{
			Name: "Jane Smith",
			PerSourceMetrics: model.SourceMetrics{
				Reading: &model.ReadingMetrics{
					AverageScore: 82.5, TotalSessions: 3, MinutesReading: 125,
					TimeReading: "2h 5m", LastActive: "Jan 1, 2025 3:10 PM",
				},
			},
		}

		Convey("Then each metric compares against the target", func() {
			avg := policy.Policy{Metric: policy.ReadingAvgScore, Target: policy.Num(80)}
			So(policy.Met(rec, model.SourceReading, avg, now), ShouldBeTrue)
			So(policy.ProgressPercent(rec, model.SourceReading, avg, now), ShouldEqual, 100.0)
			So(policy.DisplayString(rec, model.SourceReading, avg, now), ShouldEqual, "82.5/80 Avg Score")

			sessions := policy.Policy{Metric: policy.ReadingSessions, Target: policy.Num(5)}
			So(policy.Met(rec, model.SourceReading, sessions, now), ShouldBeFalse)
			So(policy.ProgressPercent(rec, model.SourceReading, sessions, now), ShouldEqual, 0.0)
			So(policy.DisplayString(rec, model.SourceReading, sessions, now), ShouldEqual, "3/5 Sessions")

			minutes := policy.Policy{Metric: policy.ReadingTimeReading, Target: policy.Num(120)}
			So(policy.Met(rec, model.SourceReading, minutes, now), ShouldBeTrue)
			So(policy.DisplayString(rec, model.SourceReading, minutes, now), ShouldEqual, "125/120 min Time Reading")
		})

		Convey("Then practiced-today matches the yes/no target", func() {
			yes := policy.Policy{Metric: policy.ReadingPracticedToday, Target: policy.Flag(true)}
			no := policy.Policy{Metric: policy.ReadingPracticedToday, Target: policy.Flag(false)}
			So(policy.Met(rec, model.SourceReading, yes, now), ShouldBeTrue)
			So(policy.Met(rec, model.SourceReading, no, now), ShouldBeFalse)
			So(policy.DisplayString(rec, model.SourceReading, yes, now), ShouldEqual, "Practiced Today: Yes")
		})
	})
}

func TestPracticedToday(t *testing.T) {
	Convey("Given last-active labels", t, func() {
		So(policy.PracticedToday("Jan 1, 2025", now), ShouldBeTrue)
		So(policy.PracticedToday("last seen jan 1", now), ShouldBeTrue)
		So(policy.PracticedToday("Jan 12, 2025", now), ShouldBeFalse)
		So(policy.PracticedToday("Jan 11; Jan 1", now), ShouldBeTrue)
		So(policy.PracticedToday("Dec 31, 2024", now), ShouldBeFalse)
		So(policy.PracticedToday("", now), ShouldBeFalse)
	})
}

func TestSettings(t *testing.T) {
	Convey("Given default settings", t, func() {
		s := policy.Defaults()
		So(s.Validate(), ShouldBeNil)
		So(s.For(model.SourceMath).Target.Number, ShouldEqual, 70.0)
		So(s.For(model.SourceVocab).Metric, ShouldEqual, policy.VocabMinutes)
		So(policy.Describe(s.Reading), ShouldEqual, "avgScore >= 80")
		So(policy.Choices(model.SourceReading), ShouldHaveLength, 4)
	})

	Convey("Given settings JSON with mixed targets", t, func() {
		raw := `{"math":{"metric":"tasks","target":"5"},"vocab":{"metric":"accuracy","target":90},
		         "reading":{"metric":"practicedToday","target":"yes"}}`
		var s policy.Settings
		So(json.Unmarshal([]byte(raw), &s), ShouldBeNil)

		Convey("Then targets decode as numbers or flags", func() {
			So(s.Math.Target, ShouldResemble, policy.Num(5))
			So(s.Vocab.Target.Number, ShouldEqual, 90.0)
			So(s.Reading.Target.Yes(), ShouldBeTrue)
			So(s.Validate(), ShouldBeNil)
		})

		Convey("Then they encode back in the same shape", func() {
			b, err := json.Marshal(s)
			So(err, ShouldBeNil)
			So(string(b), ShouldContainSubstring, `"target":"yes"`)
			So(string(b), ShouldContainSubstring, `"target":5`)
		})
	})

	Convey("Given invalid settings", t, func() {
		s := policy.Defaults()
		s.Vocab.Metric = "streak"
		s.Reading = policy.Policy{Metric: policy.ReadingPracticedToday, Target: policy.Num(1)}

		Convey("Then Validate rejects them", func() {
			So(errors.Is(s.Validate(), policy.ErrInvalidPolicy), ShouldBeTrue)
		})

		Convey("Then Normalize restores the per-source defaults", func() {
			n := s.Normalize()
			So(n.Vocab, ShouldResemble, policy.Defaults().Vocab)
			So(n.Reading, ShouldResemble, policy.Defaults().Reading)
			So(n.Math, ShouldResemble, s.Math)
		})
	})

	Convey("Given an unparseable target", t, func() {
		var target policy.Target
		err := json.Unmarshal([]byte(`"lots"`), &target)
		So(errors.Is(err, policy.ErrInvalidPolicy), ShouldBeTrue)
	})
}
