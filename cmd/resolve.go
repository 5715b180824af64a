package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Layr-Labs/actiontree/pkg/selectorResolver"
	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <selector>...",
	Short: "Resolve selectors through the shared cache and the remote signature directory",
	Long: `Resolve prints the signature of every selector as JSON. 4-byte selectors are
resolved as functions and 32-byte topics as events. Results are merged into the cache.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bindCommandFlags(cmd)

		svc, err := newServices()
		if err != nil {
			return err
		}
		defer svc.close()

		ctx := context.Background()

		functions := make([]string, 0)
		events := make([]string, 0)
		for _, arg := range args {
			selector := strings.ToLower(arg)
			if len(selector) > len("0x12345678") {
				events = append(events, selector)
			} else {
				functions = append(functions, selector)
			}
		}

		names := make(map[string]string)
		for kind, selectors := range map[selectorResolver.SignatureKind][]string{
			selectorResolver.SignatureKind_Function: functions,
			selectorResolver.SignatureKind_Event:    events,
		} {
			if len(selectors) == 0 {
				continue
			}
			resolved, err := svc.resolver.Resolve(ctx, "cli", kind, selectors)
			if err != nil {
				return fmt.Errorf("failed to resolve %s selectors: %w", kind, err)
			}
			for k, v := range resolved {
				names[k] = v
			}
		}

		out, err := json.MarshalIndent(names, "", "    ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}
