// Package batch runs the pipeline over a list of transactions with a bounded pool of
// workers. A failed transaction never stops the others.
package batch

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Layr-Labs/actiontree/pkg/metrics"
	"github.com/Layr-Labs/actiontree/pkg/metrics/metricsTypes"
	"github.com/Layr-Labs/actiontree/pkg/pipeline"
	"github.com/Layr-Labs/actiontree/pkg/runStats"
	"github.com/Layr-Labs/actiontree/pkg/utils"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const maxDefaultWorkers = 32

var ErrHashListNotFound = errors.New("transaction hash list not found")

type BatchConfig struct {
	// Workers bounds concurrent transactions. 0 picks a default from the CPU count.
	Workers      int
	ShowProgress bool
}

type BatchResult struct {
	RunId     string
	Processed int
	Failed    []string
}

type Batch struct {
	config      *BatchConfig
	pipeline    *pipeline.Pipeline
	counters    *runStats.Counters
	metricsSink *metrics.MetricsSink
	logger      *zap.Logger

	mu      sync.Mutex
	bar     *progressbar.ProgressBar
	pending atomic.Int64
}

func NewBatch(cfg *BatchConfig, p *pipeline.Pipeline, counters *runStats.Counters, ms *metrics.MetricsSink, l *zap.Logger) *Batch {
	b := &Batch{
		config:      cfg,
		pipeline:    p,
		counters:    counters,
		metricsSink: ms,
		logger:      l,
	}
	p.AddTransactionProcessedHook(b.handleTransactionProcessed)
	return b
}

func DefaultWorkers() int {
	return min(maxDefaultWorkers, runtime.NumCPU()+4)
}

func (b *Batch) workers() int {
	if b.config.Workers > 0 {
		return b.config.Workers
	}
	return DefaultWorkers()
}

type hashListEntry struct {
	TransactionHash string `json:"transaction_hash"`
}

// ReadTransactionHashes reads a JSON array of {"transaction_hash": ...} objects.
func ReadTransactionHashes(path string) ([]string, error) {
	var entries []*hashListEntry
	found, err := utils.ReadJsonFile(path, &entries)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.Wrapf(ErrHashListNotFound, "%s", path)
	}
	hashes := make([]string, 0, len(entries))
	for _, e := range entries {
		if e == nil || e.TransactionHash == "" {
			continue
		}
		hashes = append(hashes, e.TransactionHash)
	}
	return hashes, nil
}

func (b *Batch) newProgressBar(total int) *progressbar.ProgressBar {
	if !b.config.ShowProgress {
		return progressbar.DefaultSilent(int64(total))
	}
	return progressbar.Default(int64(total), "building action trees")
}

func (b *Batch) handleTransactionProcessed(_ string, _ *pipeline.TransactionResult, _ error) {
	b.mu.Lock()
	bar := b.bar
	b.mu.Unlock()
	if bar != nil {
		_ = bar.Add(1)
	}
	_ = b.metricsSink.Gauge(metricsTypes.Metric_Gauge_BatchPending, float64(b.pending.Add(-1)), nil)
}

// Run resets the run counters, processes every hash and records the ones that failed
// in failed_hashes.json. The returned error is only set when the run itself could not
// proceed.
func (b *Batch) Run(ctx context.Context, hashes []string) (*BatchResult, error) {
	runId := uuid.New().String()
	startTime := time.Now()

	if err := b.counters.Reset(ctx); err != nil {
		b.logger.Sugar().Errorw("Failed to reset run counters", zap.String("runId", runId), zap.Error(err))
		return nil, err
	}

	workers := b.workers()
	b.logger.Sugar().Infow("Starting batch",
		zap.String("runId", runId),
		zap.Int("transactions", len(hashes)),
		zap.Int("workers", workers),
	)

	b.mu.Lock()
	b.bar = b.newProgressBar(len(hashes))
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		_ = b.bar.Finish()
		b.bar = nil
		b.mu.Unlock()
	}()

	b.pending.Store(int64(len(hashes)))
	_ = b.metricsSink.Gauge(metricsTypes.Metric_Gauge_BatchPending, float64(len(hashes)), nil)

	var failedMu sync.Mutex
	failed := make([]string, 0)
	processed := atomic.Int64{}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, hash := range hashes {
		if gctx.Err() != nil {
			break
		}
		hash := hash
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if _, err := b.pipeline.RunForTransaction(gctx, hash); err != nil {
				b.logger.Sugar().Errorw("Transaction failed",
					zap.String("runId", runId),
					zap.String("transactionHash", hash),
					zap.Error(err),
				)
				failedMu.Lock()
				failed = append(failed, hash)
				failedMu.Unlock()
				return nil
			}
			processed.Add(1)
			return nil
		})
	}
	waitErr := g.Wait()

	if err := b.counters.RecordFailedHashes(context.WithoutCancel(ctx), failed); err != nil {
		b.logger.Sugar().Errorw("Failed to record failed transactions", zap.String("runId", runId), zap.Error(err))
		return nil, err
	}

	result := &BatchResult{
		RunId:     runId,
		Processed: int(processed.Load()),
		Failed:    failed,
	}
	b.logger.Sugar().Infow("Finished batch",
		zap.String("runId", runId),
		zap.Int("processed", result.Processed),
		zap.Int("failed", len(result.Failed)),
		zap.Duration("duration", time.Since(startTime)),
	)
	if waitErr != nil {
		return result, errors.Wrap(waitErr, "batch interrupted")
	}
	if err := ctx.Err(); err != nil {
		return result, errors.Wrap(err, "batch interrupted")
	}
	return result, nil
}
