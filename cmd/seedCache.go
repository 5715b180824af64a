package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Layr-Labs/actiontree/pkg/selectorResolver"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var seedCacheCmd = &cobra.Command{
	Use:   "seed-cache <file>",
	Short: "Merge a selector database or a signature list into the shared cache",
	Long: `A .json file is read as a {"selector": "signature"} database. Any other file is read
as one text signature per line, whose selectors are computed with Keccak-256
(4 bytes, or the full 32-byte topic with --events). Existing cache entries are kept.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bindCommandFlags(cmd)

		svc, err := newServices()
		if err != nil {
			return err
		}
		defer svc.close()

		ctx := context.Background()
		path := args[0]

		var added int
		if strings.EqualFold(filepath.Ext(path), ".json") {
			added, err = svc.store.SeedFromDatabase(ctx, path)
		} else {
			kind := selectorResolver.SignatureKind_Function
			if svc.cfg.SeedConfig.Events {
				kind = selectorResolver.SignatureKind_Event
			}
			var signatures []string
			signatures, err = selectorResolver.ReadSignatureList(path)
			if err == nil {
				added, err = svc.store.SeedFromSignatures(ctx, kind, signatures)
			}
		}
		if err != nil {
			return fmt.Errorf("failed to seed selector cache: %w", err)
		}

		svc.logger.Sugar().Infow("Seeded selector cache",
			zap.String("source", path),
			zap.String("cache", svc.store.Path()),
			zap.Int("added", added),
		)
		return nil
	},
}
