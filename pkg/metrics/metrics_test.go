package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

// gathered sums every sample of the named family.
func gathered(reg *prometheus.Registry, name string) float64 {
	families, err := reg.Gather()
	if err != nil {
		return -1
	}
	var total float64
	for _, f := range families {
		if !strings.EqualFold(f.GetName(), name) {
			continue
		}
		for _, metric := range f.GetMetric() {
			switch {
			case metric.GetGauge() != nil:
				total += metric.GetGauge().GetValue()
			case metric.GetCounter() != nil:
				total += metric.GetCounter().GetValue()
			}
		}
	}
	return total
}

func TestManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with custom options on a private registry", func() {
			registry := prometheus.NewRegistry()
			m := NewManager(
				WithNamespace("test"),
				WithSubsystem("dash"),
				WithHistogramBuckets([]float64{1, 10}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then recorded values are visible in the registry", func() {
				m.UpdateStudents(7)
				m.RecordCycle("ok", 12)
				m.AddSkipped("math", 2)
				So(gathered(registry, "test_dash_students"), ShouldEqual, 7.0)
				So(gathered(registry, "test_dash_refresh_cycles_total"), ShouldEqual, 1.0)
				So(gathered(registry, "test_dash_skipped_entries_total"), ShouldEqual, 2.0)
			})
		})

		Convey("When metrics are disabled", func() {
			registry := prometheus.NewRegistry()
			m := NewManager(WithPrometheusRegistry(registry), WithMetricsEnabled(false))
			m.UpdateStudents(3)
			m.RecordPolicySave("ok")

			Convey("Then nothing is recorded", func() {
				So(gathered(registry, "studentdash_dashboard_students"), ShouldEqual, 0.0)
				So(gathered(registry, "studentdash_dashboard_policy_saves_total"), ShouldEqual, 0.0)
			})
		})
	})
}

func TestGlobalHelpers(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("Then package helpers should not panic", func() {
			So(func() {
				RecordCycle("failed", -1)
				MarkPublished(1700000000)
				RecordFetch("math", 3)
				UpdateStudents(1)
				UpdateSourceRecords("vocab", 4)
				AddSkipped("reading", 0)
				UpdateSubscribers(2)
				RecordPolicySave("failed")
				RecordPolicyLoadFallback()
				RecordHTTPRequest("dashboard", "GET", "200", 1.5)
			}, ShouldNotPanic)
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}

func TestRuntimeCollectors(t *testing.T) {
	Convey("Given the service registry", t, func() {
		Convey("When runtime collectors are registered twice", func() {
			So(func() {
				RegisterRuntimeCollectors()
				RegisterRuntimeCollectors()
			}, ShouldNotPanic)

			Convey("Then goroutine counts are exported", func() {
				So(gathered(GetRegistry(), "go_goroutines"), ShouldBeGreaterThan, 0)
			})
		})
	})
}
