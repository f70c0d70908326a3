package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const starterCatalogName = "jsgate-rules.yaml"

// starterCatalog is an empty rule catalog with commented examples of every
// entry kind the loader accepts.
const starterCatalog = `# jsgate rule catalog. Entries are added to the built-in XPCOM and
# web-platform rules; built-in paths cannot be redefined.
version: 1

# Extra names that refer to the global object (window, self and globalThis
# are built in).
global_aliases: []

# Host objects predefined in every global scope, for example:
#   - root: Services
#     members: [search]
namespaces: []

# Rules are keyed by API path. A flag records a finding when the path is
# read, called or overwritten:
#   - path: Services.search.addEngine
#     behavior: flag
#     severity: warning
#     code: search-engine
#     message: installs a search engine
#
# A flag can be limited to calls whose argument is a string literal or a
# computed value:
#     arg_index: 0
#     when: dynamic
#
# pass-through entries mark paths as known and harmless:
#   - path: Services.appinfo.version
#     behavior: pass-through
rules: []
`

// initCmd represents the init command.
var initCmd = newInitCmd()

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Generate a jsgate.yaml configuration and a starter rule catalog",
		Long: `Create a jsgate.yaml in the current working directory populated with the
current CLI defaults. Unless a rule catalog is already configured, a starter
catalog (jsgate-rules.yaml) is written next to it and referenced from
rules.file. An existing catalog file is kept as is.`,
		Args: cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath := filepath.Join(configFolderPath, configFileName)
			if _, err := os.Stat(configPath); err == nil {
				return fmt.Errorf("failed to write config file: %s: %w", configPath, os.ErrExist)
			}

			catalog := viper.GetString(rulesFileConfigKey)
			if catalog == "" {
				catalog = starterCatalogName

				written, err := writeStarterCatalog(filepath.Join(configFolderPath, catalog))
				if err != nil {
					return err
				}

				if written {
					cmd.Printf("Wrote rule catalog %s\n", catalog)
				}
			}

			cfg := viper.New()
			if err := cfg.MergeConfigMap(viper.AllSettings()); err != nil {
				return fmt.Errorf("failed to collect settings: %w", err)
			}

			cfg.Set(rulesFileConfigKey, catalog)

			if err := cfg.SafeWriteConfigAs(configPath); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}

			cmd.Printf("Wrote config %s\n", configPath)

			return nil
		},
	}
}

// writeStarterCatalog creates path unless it exists; it reports whether a
// file was written.
func writeStarterCatalog(path string) (bool, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("failed to write rule catalog: %w", err)
	}

	if _, err := f.WriteString(starterCatalog); err != nil {
		_ = f.Close()

		return false, fmt.Errorf("failed to write rule catalog: %w", err)
	}

	if err := f.Close(); err != nil {
		return false, fmt.Errorf("failed to write rule catalog: %w", err)
	}

	return true, nil
}

func init() {
	rootCmd.AddCommand(initCmd)
}
