package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FinalizationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kickwager_finalizations_total",
			Help: "Game finalizations and rescorings by result",
		},
		[]string{"operation", "result"},
	)

	BetPointsHistogram = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kickwager_bet_points",
			Help:    "Distribution of points earned per scored bet",
			Buckets: prometheus.LinearBuckets(0, 1, 8),
		},
	)

	BetsPlacedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kickwager_bets_placed_total",
			Help: "Total number of bets placed",
		},
	)

	LeaderboardRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kickwager_leaderboard_requests_total",
			Help: "Leaderboard computations by scope and cache outcome",
		},
		[]string{"scope", "cache"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)
)
