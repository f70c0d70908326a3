package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"jsgate.dev/pkg/jsgate/internal/domain"
	m "jsgate.dev/pkg/jsgate/internal/model"
)

// mergeCmd represents the merge command.
var mergeCmd = newMergeCmd()

func newMergeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge sharded reports into a single directory",
		Long: `Merge reports from shard_* subdirectories into a single reports directory.
Exits non-zero when the merged submission fails.`,
		Args: cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			reportsPath := m.Path(viper.GetString(outputFlagName))
			return workflow.Merge(cmd.Context(), domain.MergeArgs{Reports: reportsPath})
		},
	}

	return cmd
}

func init() {
	rootCmd.AddCommand(mergeCmd)
}
