package provision

import (
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/gitprovision/internal/dependencies"
	"github.com/temirov/gitprovision/internal/utils"
)

// LoggerProvider yields a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the current provisioning configuration.
type ConfigurationProvider func() Configuration

// SettingsProvider returns the shared registry and API settings.
type SettingsProvider func() dependencies.Settings

var commandContextAccessor = utils.NewCommandContextAccessor()

func resolveLogger(provider LoggerProvider) *zap.Logger {
	if provider == nil {
		return zap.NewNop()
	}
	logger := provider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func resolveConfiguration(provider ConfigurationProvider) Configuration {
	if provider == nil {
		return DefaultConfiguration()
	}
	return provider().sanitize()
}

func resolveSettings(provider SettingsProvider) dependencies.Settings {
	if provider == nil {
		return dependencies.Settings{}
	}
	return provider()
}

func actingUser(command *cobra.Command) string {
	resolvedUser, _ := commandContextAccessor.ActingUser(command.Context())
	return resolvedUser
}

func selectStringValue(flagValue string, configuredValue string) string {
	trimmedFlagValue := strings.TrimSpace(flagValue)
	if len(trimmedFlagValue) > 0 {
		return trimmedFlagValue
	}
	return strings.TrimSpace(configuredValue)
}
