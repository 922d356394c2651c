package matchmaking

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	swipesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchmaking_swipes_total",
			Help: "Total number of recorded swipes",
		},
		[]string{"value"},
	)

	matchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matchmaking_matches_total",
			Help: "Total number of matches created",
		},
	)

	undoTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matchmaking_swipe_undo_total",
			Help: "Swipes removed by undo",
		},
	)

	candidatesServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchmaking_candidates_served_total",
			Help: "Next-candidate lookups by outcome",
		},
		[]string{"outcome"},
	)

	compatibilityScores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matchmaking_compatibility_overall_percent",
			Help:    "Distribution of overall compatibility scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	scoringDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "matchmaking_scoring_duration_seconds",
			Help:    "Time spent scoring compatibility",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	notifyFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchmaking_notify_failures_total",
			Help: "Notifications that could not be handed to the dispatcher",
		},
		[]string{"kind"},
	)

	moderationActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchmaking_moderation_actions_total",
			Help: "Blocks, unblocks and reports",
		},
		[]string{"action"},
	)
)

func recordSwipe(value SwipeValue) {
	swipesTotal.WithLabelValues(string(value)).Inc()
}

func recordMatch() {
	matchesTotal.Inc()
}

func recordUndo() {
	undoTotal.Inc()
}

func recordCandidate(found bool) {
	outcome := "empty"
	if found {
		outcome = "found"
	}
	candidatesServed.WithLabelValues(outcome).Inc()
}

func recordCompatibilityScore(overall *int) {
	if overall != nil {
		compatibilityScores.Observe(float64(*overall))
	}
}

func recordScoringTime(operation string, started time.Time) {
	scoringDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

func recordNotifyFailure(kind string) {
	notifyFailures.WithLabelValues(kind).Inc()
}

func recordModeration(action string) {
	moderationActions.WithLabelValues(action).Inc()
}
