package metricsTypes

import "time"

type IMetricsClient interface {
	Incr(name string, labels []MetricsLabel, value float64) error
	Gauge(name string, value float64, labels []MetricsLabel) error
	Timing(name string, value time.Duration, labels []MetricsLabel) error
	Flush()
}

type MetricsLabel struct {
	Name  string
	Value string
}

type MetricsType string

var (
	MetricsType_Incr   MetricsType = "incr"
	MetricsType_Gauge  MetricsType = "gauge"
	MetricsType_Timing MetricsType = "timing"
)

type MetricsTypeConfig struct {
	Name   string
	Labels []string
}

var (
	Metric_Incr_TransactionProcessed = "transactionProcessed"
	Metric_Incr_SelectorCacheHit     = "selectorCache.hit"
	Metric_Incr_SelectorCacheMiss    = "selectorCache.miss"
	Metric_Incr_RemoteLookup         = "fourbyte.lookup"
	Metric_Incr_OrphanedEvent        = "merge.orphanedEvent"

	Metric_Gauge_BatchPending = "batch.pending"

	Metric_Timing_TransactionDuration = "transaction.duration"
	Metric_Timing_RateLimitWait       = "rateLimit.wait"
)

var MetricTypes = map[MetricsType][]MetricsTypeConfig{
	MetricsType_Incr: {
		MetricsTypeConfig{
			Name: Metric_Incr_TransactionProcessed,
			Labels: []string{
				"status",
			},
		},
		MetricsTypeConfig{
			Name: Metric_Incr_SelectorCacheHit,
			Labels: []string{
				"kind",
				"source",
			},
		},
		MetricsTypeConfig{
			Name: Metric_Incr_SelectorCacheMiss,
			Labels: []string{
				"kind",
			},
		},
		MetricsTypeConfig{
			Name: Metric_Incr_RemoteLookup,
			Labels: []string{
				"kind",
				"status",
			},
		},
		MetricsTypeConfig{
			Name:   Metric_Incr_OrphanedEvent,
			Labels: []string{},
		},
	},
	MetricsType_Gauge: {
		MetricsTypeConfig{
			Name:   Metric_Gauge_BatchPending,
			Labels: []string{},
		},
	},
	MetricsType_Timing: {
		MetricsTypeConfig{
			Name: Metric_Timing_TransactionDuration,
			Labels: []string{
				"hasError",
			},
		},
		MetricsTypeConfig{
			Name:   Metric_Timing_RateLimitWait,
			Labels: []string{},
		},
	},
}
