package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/Layr-Labs/actiontree/pkg/batch"
	"github.com/Layr-Labs/actiontree/pkg/pipeline"
	"github.com/Layr-Labs/actiontree/pkg/runStats"
	"github.com/Layr-Labs/actiontree/pkg/traceRecords"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the action tree of every transaction in a hash list",
	Long: `Build reads <hash>.json call traces, events and event topics for every transaction
listed in --hash-path and writes actiontree/, orphaned/ and stats/ files under --output-path.

Transactions that fail are logged and listed in failed_hashes.json; the others still run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		bindCommandFlags(cmd)

		svc, err := newServices()
		if err != nil {
			return err
		}
		defer svc.close()
		cfg := svc.cfg

		if err := cfg.ValidateInputs(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		svc.serveMetrics(ctx)

		hashes, err := batch.ReadTransactionHashes(cfg.InputConfig.HashPath)
		if err != nil {
			return fmt.Errorf("failed to read transaction hashes: %w", err)
		}

		loader := traceRecords.NewLoader(&traceRecords.LoaderConfig{
			TracePath:      cfg.InputConfig.TracePath,
			EventPath:      cfg.InputConfig.EventPath,
			EventInputPath: cfg.InputConfig.EventInputPath,
			Eventless:      cfg.PipelineConfig.Eventless,
		}, svc.logger)
		counters := runStats.NewCounters(cfg.InputConfig.OutputPath, svc.logger)
		p := pipeline.NewPipeline(&pipeline.PipelineConfig{
			OutputPath: cfg.InputConfig.OutputPath,
		}, loader, svc.resolver, counters, svc.metricsSink, svc.logger)

		b := batch.NewBatch(&batch.BatchConfig{
			Workers:      cfg.BatchConfig.Workers,
			ShowProgress: cfg.BatchConfig.ShowProgress,
		}, p, counters, svc.metricsSink, svc.logger)

		result, err := b.Run(ctx, hashes)
		if err != nil {
			return err
		}
		svc.logger.Sugar().Infow("Build complete",
			zap.String("runId", result.RunId),
			zap.Int("processed", result.Processed),
			zap.Int("failed", len(result.Failed)),
		)
		return nil
	},
}
