package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/Layr-Labs/actiontree/internal/config"
	"github.com/Layr-Labs/actiontree/internal/logger"
	"github.com/Layr-Labs/actiontree/pkg/metrics"
	"github.com/Layr-Labs/actiontree/pkg/metrics/prometheus"
	"github.com/Layr-Labs/actiontree/pkg/selectorResolver"
	"go.uber.org/zap"
)

// services are the components shared by every command.
type services struct {
	cfg         *config.Config
	logger      *zap.Logger
	metricsSink *metrics.MetricsSink
	prometheus  *prometheus.PrometheusMetricsClient
	store       *selectorResolver.Store
	limiter     *selectorResolver.RateLimiter
	resolver    *selectorResolver.Resolver
}

func newServices() (*services, error) {
	cfg := config.NewConfig()

	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: cfg.Debug})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	clients, pc, err := metrics.InitMetricsSinksFromConfig(cfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize metrics clients: %w", err)
	}
	sink, err := metrics.NewMetricsSink(&metrics.MetricsSinkConfig{}, clients)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize metrics sink: %w", err)
	}

	store := selectorResolver.NewStore(cfg.SelectorCacheConfig.Path, l)
	limiter := selectorResolver.NewRateLimiter(&selectorResolver.RateLimiterConfig{
		StatePath: cfg.RateLimitConfig.StatePath,
		Limit:     cfg.RateLimitConfig.Limit,
		Period:    cfg.RateLimitConfig.Period,
	}, sink, l)
	client := selectorResolver.NewFourByteClient(&selectorResolver.FourByteClientConfig{
		FunctionUrl: cfg.FourByteConfig.FunctionUrl,
		EventUrl:    cfg.FourByteConfig.EventUrl,
		Timeout:     cfg.FourByteConfig.Timeout,
	}, l)
	resolver := selectorResolver.NewResolver(&selectorResolver.ResolverConfig{
		ScratchDir: filepath.Dir(cfg.SelectorCacheConfig.Path),
		MaxRetries: cfg.FourByteConfig.MaxRetries,
		Offline:    cfg.FourByteConfig.Offline,
	}, store, client, limiter, sink, l)

	return &services{
		cfg:         cfg,
		logger:      l,
		metricsSink: sink,
		prometheus:  pc,
		store:       store,
		limiter:     limiter,
		resolver:    resolver,
	}, nil
}

// serveMetrics starts the prometheus endpoint when enabled. It stops with ctx.
func (s *services) serveMetrics(ctx context.Context) {
	if s.prometheus == nil {
		return
	}
	go func() {
		if err := s.prometheus.Serve(ctx, s.cfg.PrometheusConfig.Port); err != nil {
			s.logger.Sugar().Errorw("Metrics server stopped", zap.Error(err))
		}
	}()
}

func (s *services) close() {
	s.metricsSink.Flush()
	_ = s.logger.Sync()
}
