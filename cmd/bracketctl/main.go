// Command bracketctl builds, checks and scores brackets offline.
//
// Usage:
//
//	bracketctl build --format double_elimination --seed 7 Ana Ben Cleo Dev
//	bracketctl validate bracket.yaml
//	bracketctl standings results.yaml
package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var logger = zap.NewNop()

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:          "bracketctl",
		Short:        "Tournament bracket tooling",
		SilenceUsage: true,
	}
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if !verbose {
			return nil
		}
		l, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		logger = l
		return nil
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log to stderr")

	root.AddCommand(buildCmd())
	root.AddCommand(validateCmd())
	root.AddCommand(standingsCmd())
	return root
}
