package cmd

import (
	"github.com/spf13/cobra"
)

// rulesCmd represents the rules command.
var rulesCmd = newRulesCmd()

func newRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List the host API rules the analyzer applies",
		Long: `List every registry entry: built-in XPCOM and web-platform rules plus the
entries of the configured rule catalog.`,
		Args: cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return workflow.Rules(cmd.Context())
		},
	}
}

func init() {
	rootCmd.AddCommand(rulesCmd)
}
