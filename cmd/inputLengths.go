package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/Layr-Labs/actiontree/internal/config"
	"github.com/Layr-Labs/actiontree/internal/logger"
	"github.com/Layr-Labs/actiontree/pkg/batch"
	"github.com/Layr-Labs/actiontree/pkg/pipeline"
	"github.com/Layr-Labs/actiontree/pkg/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var inputLengthsCmd = &cobra.Command{
	Use:   "input-lengths",
	Short: "Summarize the raw input word counts of written action trees",
	RunE: func(cmd *cobra.Command, args []string) error {
		bindCommandFlags(cmd)
		cfg := config.NewConfig()

		l, err := logger.NewLogger(&logger.LoggerConfig{Debug: cfg.Debug})
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		if cfg.InputConfig.ActionTreePath == "" || cfg.InputConfig.HashPath == "" || cfg.InputConfig.OutputPath == "" {
			return fmt.Errorf("--%s, --%s and --%s are required", config.ActionTreePath, config.HashPath, config.OutputPath)
		}

		hashes, err := batch.ReadTransactionHashes(cfg.InputConfig.HashPath)
		if err != nil {
			return fmt.Errorf("failed to read transaction hashes: %w", err)
		}

		for _, hash := range hashes {
			lengths, err := pipeline.InputLengthsForTransaction(cfg.InputConfig.ActionTreePath, hash)
			if err != nil {
				l.Sugar().Errorw("Failed to read action tree", zap.String("transactionHash", hash), zap.Error(err))
				continue
			}
			out := filepath.Join(cfg.InputConfig.OutputPath, "length", fmt.Sprintf("%s.json", hash))
			if err := utils.WriteJsonFile(out, lengths); err != nil {
				return err
			}
		}
		return nil
	},
}
