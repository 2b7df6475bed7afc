package cli

import (
	"context"
	"errors"
	"fmt"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	orgscmd "github.com/temirov/gitprovision/cmd/cli/orgs"
	projectscmd "github.com/temirov/gitprovision/cmd/cli/projects"
	provisioncmd "github.com/temirov/gitprovision/cmd/cli/provision"
	"github.com/temirov/gitprovision/internal/dependencies"
	"github.com/temirov/gitprovision/internal/gitapi"
	"github.com/temirov/gitprovision/internal/utils"
)

const (
	applicationNameConstant                 = "gitprovision"
	applicationShortDescriptionConstant     = "Provision remote git repositories on behalf of registered users"
	applicationLongDescriptionConstant      = "gitprovision links to or creates repositories on GitHub-compatible providers using the acting user's git user and personal access token, and validates organizations and project links against the registry."
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format (structured or console)."
	actingUserFlagNameConstant              = "user"
	actingUserFlagUsageConstant             = "Application user on whose behalf the command runs."
	registryFlagNameConstant                = "registry"
	registryFlagUsageConstant               = "Path to the registry file of providers, git users, and repositories."
	commonConfigurationKeyConstant          = "common"
	commonLogLevelConfigKeyConstant         = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant        = commonConfigurationKeyConstant + ".log_format"
	commonActingUserConfigKeyConstant       = commonConfigurationKeyConstant + ".acting_user"
	commonRegistryPathConfigKeyConstant     = commonConfigurationKeyConstant + ".registry_path"
	apiConfigurationKeyConstant             = "api"
	apiTimeoutConfigKeyConstant             = apiConfigurationKeyConstant + ".timeout"
	apiRequestsPerSecondConfigKeyConstant   = apiConfigurationKeyConstant + ".requests_per_second"
	apiBurstConfigKeyConstant               = apiConfigurationKeyConstant + ".burst"
	apiUserAgentConfigKeyConstant           = apiConfigurationKeyConstant + ".user_agent"
	defaultAPITimeoutConstant               = "30s"
	defaultAPIRequestsPerSecondConstant     = 5.0
	defaultAPIBurstConstant                 = 5
	environmentPrefixConstant               = "GITPROVISION"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	configurationActingUserFieldConstant    = "acting_user"
	configurationRegistryFieldConstant      = "registry_path"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	rootCommandInfoMessageConstant          = "gitprovision CLI executed"
	rootCommandDebugMessageConstant         = "gitprovision CLI diagnostics"
	logFieldCommandNameConstant             = "command_name"
	logFieldArgumentCountConstant           = "argument_count"
	logFieldArgumentsConstant               = "arguments"
	loggerNotInitializedMessageConstant     = "logger not initialized"
	toolsConfigurationKeyConstant           = "tools"
	provisionConfigurationKeyConstant       = toolsConfigurationKeyConstant + ".provision"
	organizationsConfigurationKeyConstant   = toolsConfigurationKeyConstant + ".organizations"
)

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common ApplicationCommonConfiguration `mapstructure:"common"`
	API    gitapi.ClientConfiguration     `mapstructure:"api"`
	Tools  ApplicationToolsConfiguration  `mapstructure:"tools"`
}

// ApplicationCommonConfiguration stores settings shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel     string `mapstructure:"log_level"`
	LogFormat    string `mapstructure:"log_format"`
	ActingUser   string `mapstructure:"acting_user"`
	RegistryPath string `mapstructure:"registry_path"`
}

// ApplicationToolsConfiguration holds configuration for CLI subcommands grouped by tool family.
type ApplicationToolsConfiguration struct {
	Provision     provisioncmd.Configuration `mapstructure:"provision"`
	Organizations orgscmd.Configuration      `mapstructure:"organizations"`
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
	actingUserFlagValue    string
	registryFlagValue      string
	commandContextAccessor utils.CommandContextAccessor
	collaborators          dependencies.Collaborators
}

// NewApplication assembles a fully wired CLI application instance backed by production collaborators.
func NewApplication() *Application {
	return NewApplicationWithCollaborators(dependencies.Collaborators{})
}

// NewApplicationWithCollaborators assembles the CLI with injected collaborators. Zero fields use production defaults.
func NewApplicationWithCollaborators(collaborators dependencies.Collaborators) *Application {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		utils.DefaultSearchPaths(applicationNameConstant),
	)
	configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())

	application := &Application{
		configurationLoader:    configurationLoader,
		loggerFactory:          utils.NewLoggerFactory(),
		logger:                 zap.NewNop(),
		commandContextAccessor: utils.NewCommandContextAccessor(),
		collaborators:          collaborators,
	}

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
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
	cobraCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", logLevelFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", logFormatFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.actingUserFlagValue, actingUserFlagNameConstant, "", actingUserFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.registryFlagValue, registryFlagNameConstant, "", registryFlagUsageConstant)

	loggerProvider := func() *zap.Logger {
		return application.logger
	}

	provisionBuilder := provisioncmd.RepositoryCommandBuilder{
		LoggerProvider:        loggerProvider,
		ConfigurationProvider: application.provisionConfiguration,
		SettingsProvider:      application.settings,
		Collaborators:         collaborators,
	}
	provisionCommand, provisionBuildError := provisionBuilder.Build()
	if provisionBuildError == nil {
		cobraCommand.AddCommand(provisionCommand)
	}

	batchBuilder := provisioncmd.BatchCommandBuilder{
		LoggerProvider:        loggerProvider,
		ConfigurationProvider: application.provisionConfiguration,
		SettingsProvider:      application.settings,
		Collaborators:         collaborators,
	}
	batchCommand, batchBuildError := batchBuilder.Build()
	if batchBuildError == nil {
		cobraCommand.AddCommand(batchCommand)
	}

	verifyBuilder := orgscmd.VerifyCommandBuilder{
		LoggerProvider:        loggerProvider,
		ConfigurationProvider: application.organizationsConfiguration,
		SettingsProvider:      application.settings,
		Collaborators:         collaborators,
	}
	verifyCommand, verifyBuildError := verifyBuilder.Build()
	if verifyBuildError == nil {
		cobraCommand.AddCommand(verifyCommand)
	}

	membershipBuilder := orgscmd.MembershipCommandBuilder{
		LoggerProvider:        loggerProvider,
		ConfigurationProvider: application.organizationsConfiguration,
		SettingsProvider:      application.settings,
		Collaborators:         collaborators,
	}
	membershipCommand, membershipBuildError := membershipBuilder.Build()
	if membershipBuildError == nil {
		cobraCommand.AddCommand(membershipCommand)
	}

	linkBuilder := projectscmd.LinkCommandBuilder{
		LoggerProvider:   loggerProvider,
		SettingsProvider: application.settings,
		Collaborators:    collaborators,
	}
	linkCommand, linkBuildError := linkBuilder.Build()
	if linkBuildError == nil {
		cobraCommand.AddCommand(linkCommand)
	}

	application.rootCommand = cobraCommand

	return application
}

// RootCommand exposes the Cobra root command.
func (application *Application) RootCommand() *cobra.Command {
	return application.rootCommand
}

// Execute runs the configured Cobra command hierarchy and ensures logger flushing.
func (application *Application) Execute() error {
	executionError := application.rootCommand.Execute()
	if syncError := application.flushLogger(); syncError != nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Execute builds a fresh application instance and executes the root command hierarchy.
func Execute() error {
	return NewApplication().Execute()
}

// DefaultConfigurationValues returns the Viper defaults for every configuration key.
func DefaultConfigurationValues() map[string]any {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:       string(utils.LogLevelInfo),
		commonLogFormatConfigKeyConstant:      string(utils.LogFormatStructured),
		commonActingUserConfigKeyConstant:     "",
		commonRegistryPathConfigKeyConstant:   "",
		apiTimeoutConfigKeyConstant:           defaultAPITimeoutConstant,
		apiRequestsPerSecondConfigKeyConstant: defaultAPIRequestsPerSecondConstant,
		apiBurstConfigKeyConstant:             defaultAPIBurstConstant,
		apiUserAgentConfigKeyConstant:         applicationNameConstant,
	}
	for configurationKey, configurationValue := range provisioncmd.DefaultConfigurationValues(provisionConfigurationKeyConstant) {
		defaultValues[configurationKey] = configurationValue
	}
	for configurationKey, configurationValue := range orgscmd.DefaultConfigurationValues(organizationsConfigurationKeyConstant) {
		defaultValues[configurationKey] = configurationValue
	}
	return defaultValues
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, DefaultConfigurationValues(), &application.configuration)
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

	if application.persistentFlagChanged(command, actingUserFlagNameConstant) {
		application.configuration.Common.ActingUser = application.actingUserFlagValue
	}

	if application.persistentFlagChanged(command, registryFlagNameConstant) {
		application.configuration.Common.RegistryPath = application.registryFlagValue
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
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
		zap.String(configurationActingUserFieldConstant, application.configuration.Common.ActingUser),
		zap.String(configurationRegistryFieldConstant, application.configuration.Common.RegistryPath),
	)

	if command != nil {
		updatedContext := application.commandContextAccessor.WithConfigurationFilePath(
			command.Context(),
			application.configurationMetadata.ConfigFileUsed,
		)
		updatedContext = application.commandContextAccessor.WithActingUser(updatedContext, application.configuration.Common.ActingUser)
		command.SetContext(updatedContext)
		if rootCommand := command.Root(); rootCommand != nil {
			rootCommand.SetContext(updatedContext)
		}
	}

	return nil
}

func (application *Application) provisionConfiguration() provisioncmd.Configuration {
	return application.configuration.Tools.Provision
}

func (application *Application) organizationsConfiguration() orgscmd.Configuration {
	return application.configuration.Tools.Organizations
}

func (application *Application) settings() dependencies.Settings {
	return dependencies.Settings{
		RegistryPath: application.configuration.Common.RegistryPath,
		API:          application.configuration.API,
	}
}

func (application *Application) runRootCommand(command *cobra.Command, arguments []string) error {
	if application.logger == nil {
		return errors.New(loggerNotInitializedMessageConstant)
	}

	application.logger.Info(
		rootCommandInfoMessageConstant,
		zap.String(logFieldCommandNameConstant, command.Name()),
		zap.Int(logFieldArgumentCountConstant, len(arguments)),
	)

	application.logger.Debug(
		rootCommandDebugMessageConstant,
		zap.Strings(logFieldArgumentsConstant, arguments),
	)

	if len(arguments) == 0 {
		return command.Help()
	}

	return nil
}

func (application *Application) flushLogger() error {
	logger := application.logger
	if logger == nil {
		return nil
	}

	syncError := logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
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
