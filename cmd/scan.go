package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"jsgate.dev/pkg/jsgate/internal/domain"
	m "jsgate.dev/pkg/jsgate/internal/model"
)

var scanParallelFlag int
var scanShardFlag string

// scanCmd represents the scan command.
var scanCmd = newScanCmd()

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [paths...]",
		Short: "Analyze JavaScript files and gate the submission",
		Long:  scanLongDescription,
		RunE: func(cmd *cobra.Command, args []string) error {
			shardIndex, totalShards := parseShardFlag(scanShardFlag)
			reportsPath := m.Path(viper.GetString(outputFlagName))

			return workflow.Scan(cmd.Context(), domain.ScanArgs{
				Paths:           parsePaths(args),
				Exclude:         viper.GetStringSlice(excludeConfigKey),
				Extensions:      viper.GetStringSlice(scanExtensionsConfigKey),
				Reports:         reportsPath,
				UseCache:        !viper.GetBool(noCacheFlagName),
				Threads:         uint(max(viper.GetInt(scanParallelConfigKey), 1)),
				ShardIndex:      uint(shardIndex),
				TotalShardCount: uint(totalShards),
			})
		},
	}

	configureScanFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func configureScanFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&scanParallelFlag, scanParallelFlagName, "p", viper.GetInt(scanParallelConfigKey), "number of files analyzed in parallel")
	bindFlagToConfig(cmd.Flags().Lookup(scanParallelFlagName), scanParallelConfigKey)

	cmd.Flags().StringVarP(&scanShardFlag, scanShardFlagName, "s", "", "shard index and total shard count in the format INDEX/TOTAL (e.g., 0/3)")
}

func parseShardFlag(shard string) (int, int) {
	if shard == "" {
		return 0, 1
	}

	var index, total int

	_, err := fmt.Sscanf(shard, "%d/%d", &index, &total)
	if err != nil || total <= 0 || index < 0 || index >= total {
		return 0, 1
	}

	return index, total
}
