package metrics

import (
	"time"

	"github.com/Layr-Labs/actiontree/internal/config"
	"github.com/Layr-Labs/actiontree/pkg/metrics/metricsTypes"
	"github.com/Layr-Labs/actiontree/pkg/metrics/prometheus"
	"go.uber.org/zap"
)

type MetricsSinkConfig struct{}

// MetricsSink fans every metric out to the configured clients. A sink without
// clients drops everything.
type MetricsSink struct {
	config  *MetricsSinkConfig
	clients []metricsTypes.IMetricsClient
}

func NewMetricsSink(cfg *MetricsSinkConfig, clients []metricsTypes.IMetricsClient) (*MetricsSink, error) {
	return &MetricsSink{
		config:  cfg,
		clients: clients,
	}, nil
}

// NewNoopMetricsSink is used where no metrics are wanted, mostly tests.
func NewNoopMetricsSink() *MetricsSink {
	sink, _ := NewMetricsSink(&MetricsSinkConfig{}, nil)
	return sink
}

// InitMetricsSinksFromConfig builds the clients enabled in the config. The prometheus
// client is also returned on its own so the caller can serve it.
func InitMetricsSinksFromConfig(cfg *config.Config, l *zap.Logger) ([]metricsTypes.IMetricsClient, *prometheus.PrometheusMetricsClient, error) {
	clients := []metricsTypes.IMetricsClient{}

	if !cfg.PrometheusConfig.Enabled {
		return clients, nil, nil
	}

	pc, err := prometheus.NewPrometheusMetricsClient(&prometheus.PrometheusMetricsConfig{
		Metrics: metricsTypes.MetricTypes,
	}, l)
	if err != nil {
		l.Sugar().Errorw("Failed to create Prometheus client", zap.Error(err))
		return nil, nil, err
	}
	clients = append(clients, pc)

	return clients, pc, nil
}

func (ms *MetricsSink) Incr(name string, labels []metricsTypes.MetricsLabel, value float64) error {
	for _, client := range ms.clients {
		if err := client.Incr(name, labels, value); err != nil {
			return err
		}
	}
	return nil
}

func (ms *MetricsSink) Gauge(name string, value float64, labels []metricsTypes.MetricsLabel) error {
	for _, client := range ms.clients {
		if err := client.Gauge(name, value, labels); err != nil {
			return err
		}
	}
	return nil
}

func (ms *MetricsSink) Timing(name string, value time.Duration, labels []metricsTypes.MetricsLabel) error {
	for _, client := range ms.clients {
		if err := client.Timing(name, value, labels); err != nil {
			return err
		}
	}
	return nil
}

func (ms *MetricsSink) Flush() {
	for _, client := range ms.clients {
		client.Flush()
	}
}
