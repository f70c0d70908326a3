package cmd

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"jsgate.dev/pkg/jsgate/internal/domain/engine"
	"jsgate.dev/pkg/jsgate/internal/domain/rules"
)

const unknownVersion = "unknown"

// versionCmd represents the version command.
var versionCmd = newVersionCmd()

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the build, engine and rule set versions",
		Long: `Displays the jsgate build, the analysis engine version, the rule catalog
format and the size of the active rule set. Cached reports are reused only
while the engine version and the rules fingerprint stay the same.`,
		Args: cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog := viper.GetString(rulesFileConfigKey)

			registry, err := rules.New(rules.WithCatalogFile(catalog))
			if err != nil {
				return fmt.Errorf("load rules: %w", err)
			}

			if catalog == "" {
				catalog = "built-in"
			}

			cmd.Printf("jsgate\t\t%s\n", buildVersion())
			cmd.Printf("go\t\t%s\n", runtime.Version())
			cmd.Printf("engine\t\t%d\n", engine.Version)
			cmd.Printf("catalog format\t%d\n", rules.CatalogVersion)
			cmd.Printf("catalog\t\t%s\n", catalog)
			cmd.Printf("rules\t\t%d\n", len(registry.Entries()))
			cmd.Printf("fingerprint\t%s\n", shortFingerprint(registry.Fingerprint()))

			return nil
		},
	}
}

func buildVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info.Main.Version == "" {
		return unknownVersion
	}

	return info.Main.Version
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}

	return fp
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
