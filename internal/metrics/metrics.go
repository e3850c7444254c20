package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WeatherAPICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "irrigated_weather_api_calls_total",
			Help: "Total OpenWeather API calls",
		},
		[]string{"endpoint", "status"},
	)

	WeatherAPILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "irrigated_weather_api_latency_seconds",
			Help:    "OpenWeather API call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	RecommendationsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "irrigated_recommendations_generated_total",
			Help: "Irrigation recommendations persisted, by priority",
		},
		[]string{"priority"},
	)

	CropsSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "irrigated_crops_skipped_total",
			Help: "Crop evaluations that produced no recommendation, by reason",
		},
		[]string{"reason"},
	)

	BatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "irrigated_batch_duration_seconds",
			Help:    "Wall-clock duration of a full recommendation batch",
			Buckets: prometheus.DefBuckets,
		},
	)

	AlertsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "irrigated_alerts_sent_total",
			Help: "Irrigation alert notifications attempted, by outcome",
		},
		[]string{"status"},
	)
)
