package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/cfsync/internal/cfsync"
	"github.com/temirov/cfsync/internal/execshell"
	"github.com/temirov/cfsync/internal/utils"
	pathutils "github.com/temirov/cfsync/internal/utils/path"
)

const (
	applicationNameConstant                 = "git-cfsync"
	applicationUsageConstant                = applicationNameConstant + " [flags] <PATH>"
	applicationShortDescriptionConstant     = "Keep configuration directories in sync through git"
	applicationLongDescriptionConstant      = "git-cfsync binds to a git repository holding configuration files and reads its cfsync.* settings from git configuration."
	applicationVersionConstant              = "0.1"
	versionTemplateConstant                 = "{{.Version}}\n"
	versionFlagNameConstant                 = "version"
	versionFlagShorthandConstant            = "V"
	versionFlagUsageConstant                = "Print the version and exit."
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format (structured or console)."
	configReaderFlagNameConstant            = "config-reader"
	configReaderFlagUsageConstant           = "Override how git configuration is read (git or native)."
	showSettingsFlagNameConstant            = "show-settings"
	showSettingsFlagUsageConstant           = "Print the loaded cfsync settings as YAML."
	commonConfigurationKeyConstant          = "common"
	commonLogLevelConfigKeyConstant         = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant        = commonConfigurationKeyConstant + ".log_format"
	commonConfigReaderConfigKeyConstant     = commonConfigurationKeyConstant + ".config_reader"
	environmentPrefixConstant               = "CFSYNC"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	userConfigurationDirectoryNameConstant  = "cfsync"
	defaultConfigurationSearchPathConstant  = "."
	configurationInitializedMessageConstant = "configuration initialized"
	rootCommandDebugMessageConstant         = "git-cfsync invoked"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationReaderFieldConstant        = "config_reader"
	configurationFileFieldConstant          = "config_file"
	logFieldRepositoryPathConstant          = "repository"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	unsupportedReaderErrorTemplateConstant  = "%w: %s"
	readerConstructionErrorTemplateConstant = "unable to construct configuration reader: %w"
	settingsRenderErrorTemplateConstant     = "unable to display settings: %w"
	loggerNotInitializedMessageConstant     = "logger not initialized"
	unsupportedReaderMessageConstant        = "unsupported configuration reader"
	repositoryPathMissingMessageConstant    = "repository path not available"
)

// ConfigReaderKind selects how cfsync settings are read from git configuration.
type ConfigReaderKind string

const (
	// ConfigReaderGit runs the git executable.
	ConfigReaderGit ConfigReaderKind = "git"
	// ConfigReaderNative reads configuration files with go-git.
	ConfigReaderNative ConfigReaderKind = "native"
)

// ErrUnsupportedConfigurationReader indicates an unknown config_reader value.
var ErrUnsupportedConfigurationReader = errors.New(unsupportedReaderMessageConstant)

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common ApplicationCommonConfiguration `mapstructure:"common"`
}

// ApplicationCommonConfiguration stores logging and reader settings.
type ApplicationCommonConfiguration struct {
	LogLevel     string `mapstructure:"log_level"`
	LogFormat    string `mapstructure:"log_format"`
	ConfigReader string `mapstructure:"config_reader"`
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand            *cobra.Command
	configurationLoader    *utils.ConfigurationLoader
	loggerFactory          *utils.LoggerFactory
	logger                 *zap.Logger
	configuration          ApplicationConfiguration
	configurationMetadata  utils.LoadedConfiguration
	configurationFilePath  string
	logLevelFlagValue      string
	logFormatFlagValue     string
	configReaderFlagValue  string
	showSettingsFlagValue  bool
	commandContextAccessor utils.CommandContextAccessor
	homeExpander           *pathutils.HomeExpander
	commandRunner          execshell.CommandRunner
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		[]string{
			defaultConfigurationSearchPathConstant,
			utils.UserConfigurationSearchPath(userConfigurationDirectoryNameConstant),
		},
	)
	configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())

	application := &Application{
		configurationLoader:    configurationLoader,
		loggerFactory:          utils.NewLoggerFactory(),
		logger:                 zap.NewNop(),
		commandContextAccessor: utils.NewCommandContextAccessor(),
		homeExpander:           pathutils.NewHomeExpander(),
		commandRunner:          execshell.NewOSCommandRunner(),
	}

	cobraCommand := &cobra.Command{
		Use:           applicationUsageConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		Version:       applicationVersionConstant,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.runRootCommand(command, arguments)
		},
	}

	cobraCommand.SetContext(context.Background())
	cobraCommand.SetVersionTemplate(versionTemplateConstant)
	cobraCommand.Flags().BoolP(versionFlagNameConstant, versionFlagShorthandConstant, false, versionFlagUsageConstant)
	cobraCommand.Flags().BoolVar(&application.showSettingsFlagValue, showSettingsFlagNameConstant, false, showSettingsFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", logLevelFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", logFormatFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.configReaderFlagValue, configReaderFlagNameConstant, "", configReaderFlagUsageConstant)

	application.rootCommand = cobraCommand

	return application
}

// Execute runs the configured Cobra command and ensures logger flushing.
func (application *Application) Execute() error {
	executionError := application.rootCommand.Execute()
	if syncError := application.flushLogger(); syncError != nil && executionError == nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Execute builds a fresh application instance and executes the root command.
func Execute() error {
	return NewApplication().Execute()
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultConfigurationValues(), &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}

	application.configurationMetadata = loadedConfiguration

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}

	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}

	if application.persistentFlagChanged(command, configReaderFlagNameConstant) {
		application.configuration.Common.ConfigReader = application.configReaderFlagValue
	}

	logger, loggerCreationError := application.loggerFactory.CreateLogger(
		utils.LogLevel(application.configuration.Common.LogLevel),
		utils.LogFormat(application.configuration.Common.LogFormat),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}

	application.logger = logger

	application.logger.Info(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationReaderFieldConstant, application.configuration.Common.ConfigReader),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
	)

	if command != nil {
		updatedContext := application.commandContextAccessor.WithConfigurationFilePath(
			command.Context(),
			application.configurationMetadata.ConfigFileUsed,
		)
		command.SetContext(updatedContext)
	}

	return nil
}

func (application *Application) runRootCommand(command *cobra.Command, arguments []string) error {
	if application.logger == nil {
		return errors.New(loggerNotInitializedMessageConstant)
	}

	repositoryPath, resolveError := application.homeExpander.ResolveAbsolute(arguments[0])
	if resolveError != nil {
		return cfsync.DirectoryError{Path: arguments[0], Cause: resolveError}
	}

	executionContext := command.Context()
	configurationFilePath, _ := application.commandContextAccessor.ConfigurationFilePath(executionContext)
	application.logger.Debug(
		rootCommandDebugMessageConstant,
		zap.String(logFieldRepositoryPathConstant, repositoryPath),
		zap.String(configurationFileFieldConstant, configurationFilePath),
	)

	reader, readerError := application.buildConfigurationReader()
	if readerError != nil {
		return readerError
	}

	repository, openError := cfsync.Open(executionContext, repositoryPath, reader, application.logger)
	if openError != nil {
		return openError
	}

	repository.RunPeriodicTasks(executionContext)

	if !application.showSettingsFlagValue {
		return nil
	}

	syncSettings, decodeError := repository.Settings().Decode()
	if decodeError != nil {
		return fmt.Errorf(settingsRenderErrorTemplateConstant, decodeError)
	}
	if writeError := syncSettings.WriteYAML(command.OutOrStdout()); writeError != nil {
		return fmt.Errorf(settingsRenderErrorTemplateConstant, writeError)
	}
	return nil
}

func (application *Application) buildConfigurationReader() (cfsync.ConfigurationReader, error) {
	readerKind := ConfigReaderKind(strings.ToLower(strings.TrimSpace(application.configuration.Common.ConfigReader)))
	switch readerKind {
	case ConfigReaderGit:
		executor, executorError := execshell.NewShellExecutor(application.logger, application.commandRunner)
		if executorError != nil {
			return nil, fmt.Errorf(readerConstructionErrorTemplateConstant, executorError)
		}
		gitReader, gitReaderError := cfsync.NewGitCommandReader(executor)
		if gitReaderError != nil {
			return nil, fmt.Errorf(readerConstructionErrorTemplateConstant, gitReaderError)
		}
		return gitReader, nil
	case ConfigReaderNative:
		return cfsync.NewNativeReader(), nil
	default:
		return nil, fmt.Errorf(unsupportedReaderErrorTemplateConstant, ErrUnsupportedConfigurationReader, application.configuration.Common.ConfigReader)
	}
}

func (application *Application) flushLogger() error {
	if application.logger == nil {
		return nil
	}

	syncError := application.logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	case errors.Is(syncError, syscall.ENOTTY):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}

	rootCommand := command.Root()
	if rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet == nil {
			continue
		}

		if flagSet.Changed(flagName) {
			return true
		}
	}

	return false
}
