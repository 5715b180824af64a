package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/Layr-Labs/actiontree/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "actiontree",
	Short: "Rebuilds the nested action tree of blockchain transactions from call traces and event logs",
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	initConfig(rootCmd)

	rootCmd.PersistentFlags().Bool(config.Debug, false, `"true" or "false"`)

	rootCmd.PersistentFlags().String(config.SelectorCachePath, "./cache/hexmapping.json", `Shared selector to signature cache file`)

	rootCmd.PersistentFlags().String(config.RateLimitStatePath, "./input/rate_limit.json", `Shared rate limiter state file`)
	rootCmd.PersistentFlags().Int(config.RateLimitLimit, config.DefaultRateLimit, `Remote lookups allowed per window`)
	rootCmd.PersistentFlags().Duration(config.RateLimitPeriod, config.DefaultRateLimitPeriod, `Rate limit window length`)

	rootCmd.PersistentFlags().String(config.FourByteFunctionUrl, config.DefaultFourByteFunctionUrl, `Function signature lookup URL, the selector is appended`)
	rootCmd.PersistentFlags().String(config.FourByteEventUrl, config.DefaultFourByteEventUrl, `Event signature lookup URL, the selector is appended`)
	rootCmd.PersistentFlags().Duration(config.FourByteTimeout, 0, `HTTP timeout of a single lookup (0 uses 30s)`)
	rootCmd.PersistentFlags().Int(config.FourByteMaxRetries, config.DefaultMaxRetries, `Lookup attempts per selector`)
	rootCmd.PersistentFlags().Bool(config.FourByteOffline, false, `Resolve selectors from the cache only`)

	rootCmd.PersistentFlags().Bool(config.PrometheusEnabled, false, `e.g. "true" or "false"`)
	rootCmd.PersistentFlags().Int(config.PrometheusPort, 2112, `The port to run the prometheus server on`)

	// setup sub commands
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(seedCacheCmd)
	rootCmd.AddCommand(inputLengthsCmd)

	// bind any subcommand flags
	buildCmd.PersistentFlags().String(config.TracePath, "", `Directory of <hash>.json call trace files`)
	buildCmd.PersistentFlags().String(config.EventPath, "", `Directory of <hash>.json event files`)
	buildCmd.PersistentFlags().String(config.EventInputPath, "", `Directory of <hash>.json event topic files`)
	buildCmd.PersistentFlags().String(config.HashPath, "", `JSON list of {"transaction_hash": ...} to process`)
	buildCmd.PersistentFlags().String(config.OutputPath, "", `Output directory`)
	buildCmd.PersistentFlags().Int(config.BatchWorkers, 0, `Transactions processed concurrently (0 picks a default)`)
	buildCmd.PersistentFlags().Bool(config.BatchShowProgress, true, `Show a progress bar`)
	buildCmd.PersistentFlags().Bool(config.PipelineEventless, false, `Build trees from calls alone when event files are missing`)

	seedCacheCmd.PersistentFlags().Bool(config.SeedEvents, false, `Treat a signature list as event signatures`)

	inputLengthsCmd.PersistentFlags().String(config.ActionTreePath, "", `Directory of <hash>.json action tree files`)
	inputLengthsCmd.PersistentFlags().String(config.HashPath, "", `JSON list of {"transaction_hash": ...} to process`)
	inputLengthsCmd.PersistentFlags().String(config.OutputPath, "", `Output directory`)

	rootCmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		key := config.KebabToSnakeCase(f.Name)
		viper.BindPFlag(key, f) //nolint:errcheck
		viper.BindEnv(key)      //nolint:errcheck
	})
}

func initConfig(cmd *cobra.Command) {
	viper.SetEnvPrefix(config.ENV_PREFIX)

	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	viper.AutomaticEnv()
}

// bindCommandFlags binds the flags of the running subcommand, which are not visible
// to the root command when init runs.
func bindCommandFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if err := viper.BindPFlag(config.KebabToSnakeCase(f.Name), f); err != nil {
			fmt.Printf("Failed to bind flag '%s' - %+v\n", f.Name, err)
		}
		if err := viper.BindEnv(config.KebabToSnakeCase(f.Name)); err != nil {
			fmt.Printf("Failed to bind env '%s' - %+v\n", f.Name, err)
		}
	})
}
