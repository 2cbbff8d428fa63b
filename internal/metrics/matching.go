package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	matchesComputedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "nexthire",
			Subsystem: "matching",
			Name:      "matches_computed_total",
			Help:      "匹配计算产出的候选人总数。",
		},
	)

	matchRefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "nexthire",
			Subsystem: "matching",
			Name:      "refresh_duration_seconds",
			Help:      "单个职位匹配刷新耗时分布（秒）。",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

// ObserveMatchRefresh 记录一次职位匹配刷新的结果规模与耗时。
func ObserveMatchRefresh(matchCount int, seconds float64) {
	matchesComputedTotal.Add(float64(matchCount))
	matchRefreshDuration.Observe(seconds)
}
