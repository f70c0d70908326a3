package cmd

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"jsgate.dev/pkg/jsgate/internal/adapter"
	"jsgate.dev/pkg/jsgate/internal/domain/engine"
)

const (
	configVersionKey     = "version"
	currentConfigVersion = 1

	configBaseName   = "jsgate"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	outputFlagName       = "output"
	noCacheFlagName      = "no-cache"
	excludeFlagName      = "exclude"
	verboseFlagName      = "verbose"
	scanParallelFlagName = "parallel"
	scanShardFlagName    = "shard"
	rulesFlagName        = "rules"

	scanParallelConfigKey   = "scan.parallel"
	scanExtensionsConfigKey = "scan.extensions"
	excludeConfigKey        = "paths.exclude"
	rulesFileConfigKey      = "rules.file"
	engineMaxDepthKey       = "engine.max_depth"
	engineMaxNodesKey       = "engine.max_nodes"
	parserMaxFileSizeKey    = "parser.max_file_size"
	parserMaxNestingKey     = "parser.max_nesting"

	defaultReportsDir   = ".jsgate-reports"
	defaultNoCache      = false
	defaultScanParallel = 1

	envPrefix = "JSGATE"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logVerboseKey    = "log.verbose"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"
	logFormatKey     = "log.format"

	logToStderr   = "-"
	logFormatText = "text"
	logFormatJSON = "json"

	defaultLogFilename   = ".jsgate.log"
	defaultLogLevel      = int(slog.LevelInfo)
	defaultLogVerbose    = false
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
	defaultLogFormat     = logFormatText
)

var globalLogger *slog.Logger

func init() {
	viper.SetConfigName(configBaseName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configFolderPath)
	viper.SetConfigFile(filepath.Join(configFolderPath, configFileName))
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	viper.SetDefault(configVersionKey, currentConfigVersion)
	viper.SetDefault(outputFlagName, defaultReportsDir)
	viper.SetDefault(noCacheFlagName, defaultNoCache)
	viper.SetDefault(scanParallelConfigKey, defaultScanParallel)
	viper.SetDefault(scanExtensionsConfigKey, adapter.DefaultExtensions)
	viper.SetDefault(excludeConfigKey, []string{})
	viper.SetDefault(rulesFileConfigKey, "")
	viper.SetDefault(engineMaxDepthKey, engine.DefaultMaxDepth)
	viper.SetDefault(engineMaxNodesKey, engine.DefaultMaxNodes)
	viper.SetDefault(parserMaxFileSizeKey, adapter.DefaultMaxFileSize)
	viper.SetDefault(parserMaxNestingKey, adapter.DefaultMaxNesting)

	viper.SetDefault(logFilenameKey, defaultLogFilename)
	viper.SetDefault(logLevelKey, defaultLogLevel)
	viper.SetDefault(logVerboseKey, defaultLogVerbose)
	viper.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	viper.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	viper.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	viper.SetDefault(logCompressKey, defaultLogCompress)
	viper.SetDefault(logFormatKey, defaultLogFormat)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return
		}

		// A missing explicit config file surfaces as a path error; both
		// leave the defaults in place.
		return
	}
}

func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	if level == "" {
		return defaultLevel
	}

	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	// Numeric slog levels are accepted too (e.g. -4 for debug).
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

// configureLogger installs the slog default for a jsgate run.
//
// Records go to a rotating file, or to stderr when the path is "-". They use
// the text or JSON handler per log.format and carry the engine version, so a
// log can be matched with the reports it describes. verbose forces Debug.
func configureLogger(logPath string, verbose bool) {
	logPath = strings.TrimSpace(logPath)
	if logPath == "" {
		logPath = strings.TrimSpace(viper.GetString(logFilenameKey))
	}

	if logPath == "" {
		logPath = defaultLogFilename
	}

	globalLogger = newLogger(logWriter(logPath), logLevel(verbose))
	slog.SetDefault(globalLogger)
}

func logLevel(verbose bool) slog.Level {
	if verbose || viper.GetBool(logVerboseKey) {
		return slog.LevelDebug
	}

	return parseSlogLevel(viper.GetString(logLevelKey), slog.LevelInfo)
}

func logWriter(logPath string) io.Writer {
	if logPath == logToStderr {
		return os.Stderr
	}

	return &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    viper.GetInt(logMaxSizeKey),
		MaxBackups: viper.GetInt(logMaxBackupsKey),
		MaxAge:     viper.GetInt(logMaxAgeKey),
		Compress:   viper.GetBool(logCompressKey),
	}
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{AddSource: true, Level: level}

	var handler slog.Handler
	if strings.EqualFold(strings.TrimSpace(viper.GetString(logFormatKey)), logFormatJSON) {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler).With("engine", engine.Version)
}
