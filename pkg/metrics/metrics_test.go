package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options on a fresh registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then defaults should apply", func() {
				So(manager, ShouldNotBeNil)
				So(manager.Enabled(), ShouldBeTrue)
				So(manager.RefreshInterval(), ShouldEqual, defaultRefreshInterval)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_namespace"),
				WithSubsystem("test_subsystem"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(false),
				WithRefreshInterval(5*time.Second),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then metric names should carry the namespace", func() {
				manager.fetchErrors.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if f.GetName() == "test_namespace_test_subsystem_record_fetch_errors_total" {
						found = true
						So(f.GetMetric()[0].GetLabel()[0].GetValue(), ShouldEqual, "test")
					}
				}
				So(found, ShouldBeTrue)
				So(manager.Enabled(), ShouldBeFalse)
				So(manager.RefreshInterval(), ShouldEqual, 5*time.Second)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording fetches by tier", func() {
			before := testutil.ToFloat64(globalManager.fetchTotal.WithLabelValues("normalized"))
			RecordFetch("normalized", 12, 3.5)
			RecordFetch("normalized", 0, 1.0)

			Convey("Then the tier counter should grow", func() {
				after := testutil.ToFloat64(globalManager.fetchTotal.WithLabelValues("normalized"))
				So(after-before, ShouldEqual, 2)
			})
		})

		Convey("When recording cache outcomes", func() {
			hits := testutil.ToFloat64(globalManager.cacheHits)
			misses := testutil.ToFloat64(globalManager.cacheMisses)
			RecordCacheHit()
			RecordCacheMiss()
			RecordCacheMiss()

			Convey("Then hits and misses should be counted separately", func() {
				So(testutil.ToFloat64(globalManager.cacheHits)-hits, ShouldEqual, 1)
				So(testutil.ToFloat64(globalManager.cacheMisses)-misses, ShouldEqual, 2)
			})
		})

		Convey("When recording a leaderboard aggregation", func() {
			RecordAggregation("leaderboard", 7, 0.2)

			Convey("Then the last-ranked gauge should follow", func() {
				So(testutil.ToFloat64(globalManager.companiesTotal), ShouldEqual, 7)
			})
		})

		Convey("When recording a profile aggregation", func() {
			RecordAggregation("leaderboard", 4, 0.2)
			RecordAggregation("profile", 9, 0.2)

			Convey("Then the last-ranked gauge should not move", func() {
				So(testutil.ToFloat64(globalManager.companiesTotal), ShouldEqual, 4)
			})
		})

		Convey("When recording ingestion metrics", func() {
			stored := testutil.ToFloat64(globalManager.evaluationsStored)
			So(func() {
				RecordEvaluationSubmitted()
				RecordEvaluationDuplicate()
				RecordEvaluationStored()
				UpdateQueueSize(3)
				UpdateQueueCapacity(100)
				RecordQueueEnqueueError("queue_full")
				UpdateWorkerCount(4)
				RecordWorkerProcessingLatency(1.5)
				RecordWorkerError()
			}, ShouldNotPanic)

			Convey("Then gauges and counters should reflect the calls", func() {
				So(testutil.ToFloat64(globalManager.evaluationsStored)-stored, ShouldEqual, 1)
				So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 3)
				So(testutil.ToFloat64(globalManager.queueCapacity), ShouldEqual, 100)
				So(testutil.ToFloat64(globalManager.workerCount), ShouldEqual, 4)
			})
		})

		Convey("When recording HTTP and error metrics", func() {
			So(func() {
				RecordHTTPRequest("leaderboard", "GET", "200")
				RecordHTTPRequestDuration("leaderboard", "GET", "200", 5.0)
				RecordErrorByComponent("store", "timeout")
				RecordErrorByEndpoint("profile", "GET", "not_found")
				RecordStoreLatency("upsert_evaluation", 0.4)
				RecordStoreError("upsert_evaluation")
				RecordFetchError()
				RecordCacheError()
				RecordProfileNotFound()
				UpdateSystemMemoryUsage(1024)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.3)
			}, ShouldNotPanic)
		})

		Convey("When gathering the custom registry", func() {
			RecordHTTPRequest("healthz", "GET", "200")
			families, err := GetRegistry().Gather()

			Convey("Then only scoreboard metrics should be exposed", func() {
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
				for _, f := range families {
					So(strings.HasPrefix(f.GetName(), "scoreboard_dashboard_"), ShouldBeTrue)
				}
			})
		})
	})
}

func TestSince(t *testing.T) {
	Convey("Given a start time in the past", t, func() {
		start := time.Now().Add(-15 * time.Millisecond)

		Convey("Then Since should report at least that many milliseconds", func() {
			So(Since(start), ShouldBeGreaterThanOrEqualTo, 15.0)
		})
	})
}
