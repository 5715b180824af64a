// Package selectorResolver maps function and event selectors to text signatures.
//
// Names come from, in order: the shared selector cache file, the transaction's
// scratch cache, the built-in special selectors and finally a remote 4byte-style
// directory. Remote lookups are rate limited across processes and retried with
// exponential backoff. New names are written to a per-transaction scratch file that
// is merged into the shared cache once the transaction is done, so the shared cache
// is only locked for short read-merge-write cycles and never across a network call.
package selectorResolver

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"time"

	"github.com/Layr-Labs/actiontree/pkg/metrics"
	"github.com/Layr-Labs/actiontree/pkg/metrics/metricsTypes"
	"github.com/Layr-Labs/actiontree/pkg/traceRecords"
	"github.com/Layr-Labs/actiontree/pkg/utils"
	"go.uber.org/zap"
)

const (
	SpecialSuicide       = "suicide_contract()"
	SpecialEtherTransfer = "ether_transfer()"
	SpecialCreate        = "create_contract(bytes)"

	DefaultMaxRetries = 5
)

// SpecialSelectors are the function selectors that never need a lookup.
var SpecialSelectors = map[string]string{
	traceRecords.SelectorNull:          SpecialSuicide,
	traceRecords.SelectorEtherTransfer: SpecialEtherTransfer,
	traceRecords.SelectorCreate:        SpecialCreate,
}

// IsSpecialSignature reports whether name is one of the built-in special signatures.
func IsSpecialSignature(name string) bool {
	switch name {
	case SpecialSuicide, SpecialEtherTransfer, SpecialCreate:
		return true
	}
	return false
}

type SignatureLookup interface {
	Lookup(ctx context.Context, kind SignatureKind, selector string) (string, error)
}

type Limiter interface {
	Wait(ctx context.Context) error
}

type ResolverConfig struct {
	// ScratchDir holds the temp_hexmapping_<hash>.json files. Defaults to the
	// directory of the shared cache.
	ScratchDir string
	MaxRetries int
	Offline    bool
}

type Resolver struct {
	config      *ResolverConfig
	store       *Store
	lookup      SignatureLookup
	limiter     Limiter
	sleep       Sleeper
	metricsSink *metrics.MetricsSink
	logger      *zap.Logger
}

func NewResolver(
	cfg *ResolverConfig,
	store *Store,
	lookup SignatureLookup,
	limiter Limiter,
	ms *metrics.MetricsSink,
	l *zap.Logger,
) *Resolver {
	if cfg.ScratchDir == "" {
		cfg.ScratchDir = filepath.Dir(store.Path())
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	return &Resolver{
		config:      cfg,
		store:       store,
		lookup:      lookup,
		limiter:     limiter,
		sleep:       sleepContext,
		metricsSink: ms,
		logger:      l,
	}
}

// SetSleeper replaces the backoff sleep.
func (r *Resolver) SetSleeper(sleep Sleeper) {
	r.sleep = sleep
}

func (r *Resolver) ScratchPath(transactionHash string) string {
	return filepath.Join(r.config.ScratchDir, fmt.Sprintf("temp_hexmapping_%s.json", transactionHash))
}

func (r *Resolver) recordHit(kind SignatureKind, source string) {
	_ = r.metricsSink.Incr(metricsTypes.Metric_Incr_SelectorCacheHit, []metricsTypes.MetricsLabel{
		{Name: "kind", Value: string(kind)},
		{Name: "source", Value: source},
	}, 1)
}

// Resolve names every selector it can. Selectors that stay unresolved are absent from
// the returned map. Each distinct selector is looked up remotely at most once.
func (r *Resolver) Resolve(ctx context.Context, transactionHash string, kind SignatureKind, selectors []string) (map[string]string, error) {
	shared, err := r.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	scratchPath := r.ScratchPath(transactionHash)
	scratch, err := readSelectorMap(scratchPath)
	if err != nil {
		r.logger.Sugar().Warnw("Ignoring unreadable scratch cache",
			zap.String("path", scratchPath),
			zap.Error(err),
		)
		scratch = NewSelectorMap()
	}
	scratchSize := scratch.Len()

	names := make(map[string]string, len(selectors))
	for _, selector := range selectors {
		if _, done := names[selector]; done {
			continue
		}
		// anonymous logs have no topic0 to resolve
		if kind == SignatureKind_Event && selector == traceRecords.SelectorNull {
			continue
		}
		if name, found := shared.Get(selector); found {
			names[selector] = name
			r.recordHit(kind, "shared")
			continue
		}
		if name, found := scratch.Get(selector); found {
			names[selector] = name
			r.recordHit(kind, "scratch")
			continue
		}
		if kind == SignatureKind_Function {
			if name, found := SpecialSelectors[selector]; found {
				names[selector] = name
				scratch.Set(selector, name)
				r.recordHit(kind, "special")
				continue
			}
		}

		_ = r.metricsSink.Incr(metricsTypes.Metric_Incr_SelectorCacheMiss, []metricsTypes.MetricsLabel{
			{Name: "kind", Value: string(kind)},
		}, 1)
		if r.config.Offline {
			continue
		}

		name, ok, err := r.lookupWithRetry(ctx, kind, selector)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		names[selector] = name
		scratch.Set(selector, name)
	}

	if scratch.Len() > 0 {
		if scratch.Len() != scratchSize {
			if err := utils.WriteJsonFile(scratchPath, scratch); err != nil {
				return nil, err
			}
		}
		if _, err := r.store.MergeFile(ctx, scratchPath); err != nil {
			return nil, err
		}
	}
	return names, nil
}

// lookupWithRetry returns ok=false when the selector could not be resolved this run.
// The error is only set when ctx is done.
func (r *Resolver) lookupWithRetry(ctx context.Context, kind SignatureKind, selector string) (string, bool, error) {
	for attempt := 0; attempt < r.config.MaxRetries; attempt++ {
		if err := r.limiter.Wait(ctx); err != nil {
			return "", false, err
		}

		name, err := r.lookup.Lookup(ctx, kind, selector)
		if err == nil {
			_ = r.metricsSink.Incr(metricsTypes.Metric_Incr_RemoteLookup, []metricsTypes.MetricsLabel{
				{Name: "kind", Value: string(kind)},
				{Name: "status", Value: "ok"},
			}, 1)
			return name, true, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", false, ctxErr
		}

		_ = r.metricsSink.Incr(metricsTypes.Metric_Incr_RemoteLookup, []metricsTypes.MetricsLabel{
			{Name: "kind", Value: string(kind)},
			{Name: "status", Value: "error"},
		}, 1)

		if !IsRetryable(err) {
			r.logger.Sugar().Errorw("Signature lookup failed, leaving selector unresolved",
				zap.String("selector", selector),
				zap.String("kind", string(kind)),
				zap.Error(err),
			)
			return "", false, nil
		}

		r.logger.Sugar().Warnw("Signature lookup failed, retrying",
			zap.String("selector", selector),
			zap.String("kind", string(kind)),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
		if attempt == r.config.MaxRetries-1 {
			break
		}
		backoff := time.Duration(math.Pow(2, float64(attempt))) * time.Second
		if err := r.sleep(ctx, backoff); err != nil {
			return "", false, err
		}
	}

	r.logger.Sugar().Errorw("Signature lookup retries exhausted, leaving selector unresolved",
		zap.String("selector", selector),
		zap.String("kind", string(kind)),
	)
	return "", false, nil
}
