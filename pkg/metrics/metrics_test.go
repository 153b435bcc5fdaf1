package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given a dedicated registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When creating a manager with custom options", func() {
			manager := NewManager(
				WithNamespace("test_ns"),
				WithSubsystem("test_sub"),
				WithHistogramBuckets([]float64{1, 5, 10}),
				WithRefreshInterval(3*time.Second),
				WithPrometheusRegistry(registry),
			)

			Convey("Then collectors are registered under the namespace", func() {
				So(manager, ShouldNotBeNil)
				So(manager.RefreshInterval(), ShouldEqual, 3*time.Second)

				manager.leaderboardComputations.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)

				found := false
				for _, f := range families {
					if f.GetName() == "test_ns_test_sub_leaderboard_computations_total" {
						found = true
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When options receive zero values", func() {
			manager := NewManager(
				WithNamespace(""),
				WithRefreshInterval(0),
				WithPrometheusRegistry(registry),
			)

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "judgeboard")
				So(manager.refreshInterval, ShouldEqual, defaultRefreshInterval)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording aggregation metrics", func() {
			before := testutil.ToFloat64(globalManager.leaderboardComputations)
			RecordLeaderboardComputation(12.5, 7)

			Convey("Then counters and gauges move", func() {
				So(testutil.ToFloat64(globalManager.leaderboardComputations), ShouldEqual, before+1)
				So(testutil.ToFloat64(globalManager.participantsRanked), ShouldEqual, 7)
			})
		})

		Convey("When recording exclusions by reason", func() {
			before := testutil.ToFloat64(globalManager.participantsExcluded.WithLabelValues(ReasonNoRecords))
			RecordParticipantExcluded(ReasonNoRecords)
			RecordParticipantExcluded(ReasonNoRecords)

			Convey("Then the labelled counter increases", func() {
				after := testutil.ToFloat64(globalManager.participantsExcluded.WithLabelValues(ReasonNoRecords))
				So(after, ShouldEqual, before+2)
			})
		})

		Convey("When recording verdict line counts", func() {
			parsed := testutil.ToFloat64(globalManager.recordsParsed)
			malformed := testutil.ToFloat64(globalManager.malformedLines)
			RecordVerdictRecords(10, 2)

			Convey("Then both counters advance", func() {
				So(testutil.ToFloat64(globalManager.recordsParsed), ShouldEqual, parsed+10)
				So(testutil.ToFloat64(globalManager.malformedLines), ShouldEqual, malformed+2)
			})
		})

		Convey("When recording the remaining families", func() {
			So(func() {
				RecordLeaderboardError()
				RecordArtifactFetchLatency(3)
				RecordArtifactError("fetch")
				RecordCacheHit()
				RecordCacheMiss()
				AddWorkerActiveJobs(1)
				AddWorkerActiveJobs(-1)
				RecordWorkerJobLatency(4)
				RecordHTTPRequest("leaderboard", "GET", "200")
				RecordHTTPRequestDuration("leaderboard", "GET", "200", 8)
				RecordErrorByEndpoint("leaderboard", "GET", "server_error")
				RecordErrorByType("server_error", "high")
				UpdateSystemMemoryUsage(1024)
				UpdateSystemGoroutineCount(10)
				RecordSystemGCPauseTime(0.3)
			}, ShouldNotPanic)
		})

		Convey("When reading the registry", func() {
			So(GetRegistry(), ShouldNotBeNil)
			So(RefreshInterval(), ShouldEqual, defaultRefreshInterval)
		})
	})
}
