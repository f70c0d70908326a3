package cmd

import (
	"github.com/spf13/cobra"

	"jsgate.dev/pkg/jsgate/internal/domain"
	m "jsgate.dev/pkg/jsgate/internal/model"
)

// diffCmd represents the diff command.
var diffCmd = newDiffCmd()

func newDiffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff OLD NEW",
		Short: "Compare two reports directories",
		Long: `Print a unified diff between the reports stored in two directories, for
example the reports of two revisions of the same add-on.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return workflow.Diff(cmd.Context(), domain.DiffArgs{
				Old: m.Path(args[0]),
				New: m.Path(args[1]),
			})
		},
	}
}

func init() {
	rootCmd.AddCommand(diffCmd)
}
