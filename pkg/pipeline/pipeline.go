package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/Layr-Labs/actiontree/pkg/actionMerger"
	"github.com/Layr-Labs/actiontree/pkg/actionTree"
	"github.com/Layr-Labs/actiontree/pkg/metrics"
	"github.com/Layr-Labs/actiontree/pkg/metrics/metricsTypes"
	"github.com/Layr-Labs/actiontree/pkg/runStats"
	"github.com/Layr-Labs/actiontree/pkg/selectorResolver"
	"github.com/Layr-Labs/actiontree/pkg/traceRecords"
	"github.com/Layr-Labs/actiontree/pkg/utils"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	ActionTreeDir = "actiontree"
	OrphanedDir   = "orphaned"
	StatsDir      = "stats"
)

type PipelineConfig struct {
	OutputPath string
}

// TransactionResult is everything produced for one transaction.
type TransactionResult struct {
	TransactionHash string
	Root            *actionTree.ActionNode
	Document        *actionTree.Document
	Orphaned        []*actionMerger.OrphanedEvent
	Stats           *runStats.TransactionStats
	Merge           *actionMerger.MergeResult
}

// Pipeline turns the trace and event files of a transaction into its action tree,
// orphaned event list and stats, and writes them under the output directory.
type Pipeline struct {
	config      *PipelineConfig
	loader      *traceRecords.Loader
	resolver    *selectorResolver.Resolver
	counters    *runStats.Counters
	metricsSink *metrics.MetricsSink
	Logger      *zap.Logger

	transactionProcessedHooks []TransactionProcessedHook
}

// NewPipeline creates a Pipeline.
//
// Parameters:
//   - cfg: output location
//   - loader: reads the per-transaction input files
//   - resolver: names function and event selectors
//   - counters: run-wide special call counters
//   - ms: metrics sink
//   - l: logger
func NewPipeline(
	cfg *PipelineConfig,
	loader *traceRecords.Loader,
	resolver *selectorResolver.Resolver,
	counters *runStats.Counters,
	ms *metrics.MetricsSink,
	l *zap.Logger,
) *Pipeline {
	return &Pipeline{
		config:      cfg,
		loader:      loader,
		resolver:    resolver,
		counters:    counters,
		metricsSink: ms,
		Logger:      l,
	}
}

func (p *Pipeline) ActionTreePath(transactionHash string) string {
	return filepath.Join(p.config.OutputPath, ActionTreeDir, fmt.Sprintf("%s.json", transactionHash))
}

func (p *Pipeline) OrphanedPath(transactionHash string) string {
	return filepath.Join(p.config.OutputPath, OrphanedDir, fmt.Sprintf("%s_orphaned.json", transactionHash))
}

func (p *Pipeline) StatsPath(transactionHash string) string {
	return filepath.Join(p.config.OutputPath, StatsDir, fmt.Sprintf("%s_stat.json", transactionHash))
}

func selectorsOfCalls(calls []*traceRecords.CallRecord) []string {
	return utils.Map(calls, func(c *traceRecords.CallRecord, _ uint64) string {
		return c.Selector
	})
}

func selectorsOfEvents(events []*traceRecords.EventRecord) []string {
	return utils.Map(events, func(e *traceRecords.EventRecord, _ uint64) string {
		return e.Selector
	})
}

// RunForTransaction processes a single transaction end to end.
func (p *Pipeline) RunForTransaction(ctx context.Context, transactionHash string) (result *TransactionResult, err error) {
	startTime := time.Now()
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
		}
		_ = p.metricsSink.Timing(metricsTypes.Metric_Timing_TransactionDuration, time.Since(startTime), []metricsTypes.MetricsLabel{
			{Name: "hasError", Value: strconv.FormatBool(err != nil)},
		})
		_ = p.metricsSink.Incr(metricsTypes.Metric_Incr_TransactionProcessed, []metricsTypes.MetricsLabel{
			{Name: "status", Value: status},
		}, 1)
		p.runTransactionProcessedHooks(transactionHash, result, err)
	}()

	p.Logger.Sugar().Debugw("Running pipeline for transaction", zap.String("transactionHash", transactionHash))

	tx, err := p.loader.Load(transactionHash)
	if err != nil {
		p.Logger.Sugar().Errorw("Failed to load transaction", zap.String("transactionHash", transactionHash), zap.Error(err))
		return nil, err
	}
	p.Logger.Sugar().Debugw("Loaded transaction",
		zap.String("transactionHash", transactionHash),
		zap.Int("calls", len(tx.Calls)),
		zap.Int("events", len(tx.Events)),
	)

	functionNames, err := p.resolver.Resolve(ctx, transactionHash, selectorResolver.SignatureKind_Function, selectorsOfCalls(tx.Calls))
	if err != nil {
		p.Logger.Sugar().Errorw("Failed to resolve function selectors", zap.String("transactionHash", transactionHash), zap.Error(err))
		return nil, errors.Wrap(err, "failed to resolve function selectors")
	}
	eventNames, err := p.resolver.Resolve(ctx, transactionHash, selectorResolver.SignatureKind_Event, selectorsOfEvents(tx.Events))
	if err != nil {
		p.Logger.Sugar().Errorw("Failed to resolve event selectors", zap.String("transactionHash", transactionHash), zap.Error(err))
		return nil, errors.Wrap(err, "failed to resolve event selectors")
	}

	merged := actionMerger.Merge(tx.Calls, tx.Events, functionNames, eventNames)
	if len(merged.Orphaned) > 0 {
		_ = p.metricsSink.Incr(metricsTypes.Metric_Incr_OrphanedEvent, nil, float64(len(merged.Orphaned)))
	}

	root, err := actionTree.Build(merged.Actions)
	if err != nil {
		p.Logger.Sugar().Errorw("Failed to build action tree", zap.String("transactionHash", transactionHash), zap.Error(err))
		return nil, errors.Wrapf(err, "transaction %s", transactionHash)
	}

	result = &TransactionResult{
		TransactionHash: transactionHash,
		Root:            root,
		Document:        actionTree.NewDocument(transactionHash, root),
		Orphaned:        merged.Orphaned,
		Stats:           runStats.NewTransactionStats(merged.TotalNodes, merged.ResolvedNames, merged.Ignored),
		Merge:           merged,
	}

	if err := p.writeOutputs(result); err != nil {
		p.Logger.Sugar().Errorw("Failed to write outputs", zap.String("transactionHash", transactionHash), zap.Error(err))
		return nil, err
	}
	if err := p.updateCounters(ctx, merged); err != nil {
		p.Logger.Sugar().Errorw("Failed to update run counters", zap.String("transactionHash", transactionHash), zap.Error(err))
		return nil, err
	}

	p.Logger.Sugar().Infow("Built action tree",
		zap.String("transactionHash", transactionHash),
		zap.Int("totalNodes", result.Stats.TotalNodes),
		zap.Int("missing", result.Stats.TotalMissing),
		zap.Int("orphaned", len(result.Orphaned)),
		zap.Duration("duration", time.Since(startTime)),
	)
	return result, nil
}

func (p *Pipeline) writeOutputs(result *TransactionResult) error {
	if err := utils.WriteJsonFile(p.OrphanedPath(result.TransactionHash), result.Orphaned); err != nil {
		return err
	}
	if err := utils.WriteJsonFile(p.StatsPath(result.TransactionHash), result.Stats); err != nil {
		return err
	}
	return utils.WriteJsonFile(p.ActionTreePath(result.TransactionHash), result.Document)
}

func (p *Pipeline) updateCounters(ctx context.Context, merged *actionMerger.MergeResult) error {
	found := map[runStats.CounterName]bool{
		runStats.CounterName_Create:  merged.FoundCreate,
		runStats.CounterName_Ether:   merged.FoundEther,
		runStats.CounterName_Suicide: merged.FoundSuicide,
	}
	for _, name := range runStats.AllCounters {
		if !found[name] {
			continue
		}
		if err := p.counters.Increment(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

// InputLengthsForTransaction reads a written action tree and summarizes the raw word
// counts of its nodes.
func InputLengthsForTransaction(actionTreePath string, transactionHash string) (*runStats.InputLengths, error) {
	var doc actionTree.Document
	path := filepath.Join(actionTreePath, fmt.Sprintf("%s.json", transactionHash))
	found, err := utils.ReadJsonFile(path, &doc)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.Errorf("action tree not found: %s", path)
	}
	return runStats.NewInputLengths(actionTree.RawWordLengths(doc.ToActionTree())), nil
}
