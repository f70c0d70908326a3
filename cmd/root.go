// Package cmd provides the root command and CLI setup for jsgate.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"jsgate.dev/pkg/jsgate/internal/adapter"
	"jsgate.dev/pkg/jsgate/internal/controller"
	"jsgate.dev/pkg/jsgate/internal/domain"
	"jsgate.dev/pkg/jsgate/internal/domain/engine"
	"jsgate.dev/pkg/jsgate/internal/domain/rules"
	m "jsgate.dev/pkg/jsgate/internal/model"
)

var sourceFSAdapter adapter.SourceFSAdapter
var jsParser adapter.JSParserAdapter
var reportStore adapter.ReportStore
var workflow domain.Workflow

// reportsOutputDirFlag is a root-level flag shared by commands that read/write reports.
var reportsOutputDirFlag string

// noCacheFlag disables incremental caching when set.
var noCacheFlag bool

// excludePatterns is a root-level flag that filters files for applicable commands.
var excludePatterns []string

var verboseFlag bool

// rulesCatalogFlag names an extra YAML rule catalog.
var rulesCatalogFlag string

func init() {
	configureRootFlags(rootCmd)

	sourceFSAdapter = adapter.NewLocalSourceFSAdapter()
	reportStore = adapter.NewReportStore()
}

const pathPatternsHelp = `Supports Go-style path patterns:
  - ./...            recursively scan current directory
  - ./content/...    recursively scan the content directory
  - ./lib ./content  scan multiple directories (non-recursive)`

const rootLongDescription = `jsgate reviews the JavaScript of a browser add-on submission. Each file is
walked once by a symbolic interpreter that tracks host objects such as the
XPCOM Components namespace and reports disallowed or notable API use.
A submission fails when any file records a failure or could not be fully
analyzed.

` + pathPatternsHelp

const scanLongDescription = `Analyze JavaScript files and store one report per file (default: current directory tree).

` + pathPatternsHelp

const listLongDescription = `List the JavaScript files a scan would analyze.

` + pathPatternsHelp

// rootCmd represents the base command when called without any subcommands.
var rootCmd = baseRootCmd()

func baseRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "jsgate",
		Short:        "JavaScript add-on review gate",
		Long:         rootLongDescription,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			configureLogger("", verboseFlag)

			if workflow != nil {
				return nil
			}

			w, err := newWorkflow(cmd)
			if err != nil {
				return err
			}

			workflow = w

			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
}

func newRootCmd() *cobra.Command {
	cmd := baseRootCmd()
	configureRootFlags(cmd)

	return cmd
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().
		StringVarP(
			&reportsOutputDirFlag, outputFlagName, "o",
			viper.GetString(outputFlagName),
			"output directory for analysis reports",
		)
	bindFlagToConfig(cmd.PersistentFlags().Lookup(outputFlagName), outputFlagName)

	cmd.PersistentFlags().BoolVar(&noCacheFlag, noCacheFlagName, viper.GetBool(noCacheFlagName), "disable cached incremental scans (re-analyze everything)")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(noCacheFlagName), noCacheFlagName)

	cmd.PersistentFlags().StringArrayVarP(&excludePatterns, excludeFlagName, "x", viper.GetStringSlice(excludeConfigKey), "exclude files matching regex (can be repeated)")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(excludeFlagName), excludeConfigKey)

	cmd.PersistentFlags().BoolVarP(&verboseFlag, verboseFlagName, "v", viper.GetBool(logVerboseKey), "write debug logs")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(verboseFlagName), logVerboseKey)

	cmd.PersistentFlags().StringVar(&rulesCatalogFlag, rulesFlagName, viper.GetString(rulesFileConfigKey), "YAML rule catalog applied on top of the built-in rules")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(rulesFlagName), rulesFileConfigKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// newWorkflow assembles the production workflow from the current config.
// The registry is built once and shared by every analyzed file.
func newWorkflow(cmd *cobra.Command) (domain.Workflow, error) {
	registry, err := rules.New(rules.WithCatalogFile(viper.GetString(rulesFileConfigKey)))
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}

	jsParser = adapter.NewTreeSitterJSAdapter(
		adapter.WithMaxFileSize(viper.GetInt(parserMaxFileSizeKey)),
		adapter.WithMaxNesting(viper.GetInt(parserMaxNestingKey)),
	)

	analyzer := domain.NewAnalyzer(
		sourceFSAdapter,
		jsParser,
		registry,
		engine.WithMaxDepth(viper.GetInt(engineMaxDepthKey)),
		engine.WithMaxNodes(viper.GetInt(engineMaxNodesKey)),
	)

	ui := controller.NewUI(cmd.Root(), controller.IsTTY(cmd.OutOrStdout()))

	return domain.NewWorkflow(sourceFSAdapter, reportStore, ui, analyzer), nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		os.Exit(1)
	}
}

func parsePaths(args []string) []m.Path {
	paths := make([]m.Path, 0, len(args))
	for _, arg := range args {
		paths = append(paths, m.Path(arg))
	}

	return paths
}
