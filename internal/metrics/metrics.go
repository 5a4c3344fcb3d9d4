package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "roro_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route", "status"},
	)

	GachaDraws = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roro_gacha_draws_total",
			Help: "Gacha prizes awarded by prize type and draw policy",
		},
		[]string{"prize_type", "policy"},
	)

	GeoCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roro_geo_cache_lookups_total",
			Help: "Facility search cache lookups by result (hit, miss)",
		},
		[]string{"result"},
	)

	RateLimitRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roro_rate_limit_rejections_total",
			Help: "Requests rejected by the per-identity limiter",
		},
		[]string{"action"},
	)

	GeocoderFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "roro_geocoder_upstream_failures_total",
			Help: "Failed calls to the postal-code geocoder",
		},
	)

	AdviceRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roro_ai_advice_requests_total",
			Help: "Advice answers by result (cached, fresh, failed)",
		},
		[]string{"result"},
	)
)
