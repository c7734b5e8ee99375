package model_test

import (
	"encoding/json"
	"testing"
	"time"

	model "github.com/okian/studentdash/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestSourceMetrics(t *testing.T) {
	convey.Convey("Given per-source metrics", t, func() {
		convey.Convey("When nothing contributed", func() {
			var m model.SourceMetrics

			convey.Convey("Then it should be empty", func() {
				convey.So(m.Empty(), convey.ShouldBeTrue)
				convey.So(m.Count(), convey.ShouldEqual, 0)
				convey.So(m.Has(model.SourceMath), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When only vocabulary contributed", func() {
			m := model.SourceMetrics{Vocab: &model.VocabMetrics{MinutesTrained: 12}}

			convey.Convey("Then only vocab is reported", func() {
				convey.So(m.Empty(), convey.ShouldBeFalse)
				convey.So(m.Count(), convey.ShouldEqual, 1)
				convey.So(m.Has(model.SourceVocab), convey.ShouldBeTrue)
				convey.So(m.Has(model.SourceReading), convey.ShouldBeFalse)
				convey.So(m.Has(model.Source("art")), convey.ShouldBeFalse)
			})
		})
	})
}

func TestSourceValid(t *testing.T) {
	convey.Convey("Given source names", t, func() {
		convey.So(model.SourceMath.Valid(), convey.ShouldBeTrue)
		convey.So(model.Source("reading").Valid(), convey.ShouldBeTrue)
		convey.So(model.Source("art").Valid(), convey.ShouldBeFalse)
	})
}

func TestToday(t *testing.T) {
	convey.Convey("Given a record with day-keyed math activity", t, func() {
		now := time.Date(2025, time.January, 1, 10, 0, 0, 0, time.UTC) // Wednesday
		rec := model.StudentRecord{
			DailyActivity: map[model.Source]map[string]model.DailyActivity{
				model.SourceMath: {
					"Wed, Jan 1, 2025":  {Date: "Wed, Jan 1, 2025", Total: 40},
					"Sun, Jan 12, 2025": {Date: "Sun, Jan 12, 2025", Total: 99},
				},
			},
		}

		convey.Convey("When looking up today", func() {
			d, ok := rec.Today(model.SourceMath, now)

			convey.Convey("Then the matching day is returned", func() {
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(d.Total, convey.ShouldEqual, 40)
			})
		})

		convey.Convey("When no key matches", func() {
			_, ok := rec.Today(model.SourceMath, now.AddDate(0, 0, 1))
			convey.So(ok, convey.ShouldBeFalse)
		})

		convey.Convey("When the source has no activity", func() {
			_, ok := rec.Today(model.SourceVocab, now)
			convey.So(ok, convey.ShouldBeFalse)
		})
	})
}

func TestSeriesPointJSON(t *testing.T) {
	convey.Convey("Given series points with and without data", t, func() {
		zero := 0.0
		points := []model.SeriesPoint{{Date: "2025-01-01"}, {Date: "2025-01-02", Value: &zero}}

		convey.Convey("Then missing data encodes as null and zero stays zero", func() {
			b, err := json.Marshal(points)
			convey.So(err, convey.ShouldBeNil)
			convey.So(string(b), convey.ShouldEqual,
				`[{"date":"2025-01-01","value":null},{"date":"2025-01-02","value":0}]`)
		})
	})
}

func TestTaskIsAssessment(t *testing.T) {
	convey.Convey("Given task types", t, func() {
		convey.So(model.Task{Type: "Assessment"}.IsAssessment(), convey.ShouldBeTrue)
		convey.So(model.Task{Type: "Lesson"}.IsAssessment(), convey.ShouldBeFalse)
	})
}
