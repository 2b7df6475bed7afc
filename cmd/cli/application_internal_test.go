package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitializeConfigurationAttachesActingUser(testInstance *testing.T) {
	configurationPath := filepath.Join(testInstance.TempDir(), "config.yaml")
	require.NoError(testInstance, os.WriteFile(configurationPath, []byte("common:\n  log_level: error\n  acting_user: configured@example.com\n  registry_path: /srv/registry.yaml\napi:\n  requests_per_second: 2\n"), 0o600))

	testCases := []struct {
		name                 string
		flags                map[string]string
		expectedActingUser   string
		expectedRegistryPath string
	}{
		{
			name:                 "configuration_values",
			flags:                map[string]string{},
			expectedActingUser:   "configured@example.com",
			expectedRegistryPath: "/srv/registry.yaml",
		},
		{
			name:                 "flags_take_priority",
			flags:                map[string]string{actingUserFlagNameConstant: "flagged@example.com", registryFlagNameConstant: "/tmp/other.yaml"},
			expectedActingUser:   "flagged@example.com",
			expectedRegistryPath: "/tmp/other.yaml",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			application := NewApplication()
			rootCommand := application.rootCommand
			rootCommand.SetContext(context.Background())

			require.NoError(subTest, rootCommand.PersistentFlags().Set(configFileFlagNameConstant, configurationPath))
			for flagName, flagValue := range testCase.flags {
				require.NoError(subTest, rootCommand.PersistentFlags().Set(flagName, flagValue))
			}

			require.NoError(subTest, application.initializeConfiguration(rootCommand))

			actingUser, actingUserFound := application.commandContextAccessor.ActingUser(rootCommand.Context())
			require.True(subTest, actingUserFound)
			require.Equal(subTest, testCase.expectedActingUser, actingUser)

			configurationFile, configurationFileFound := application.commandContextAccessor.ConfigurationFilePath(rootCommand.Context())
			require.True(subTest, configurationFileFound)
			require.Equal(subTest, configurationPath, configurationFile)

			settings := application.settings()
			require.Equal(subTest, testCase.expectedRegistryPath, settings.RegistryPath)
			require.Equal(subTest, 2.0, settings.API.RequestsPerSecond)
			require.Equal(subTest, defaultAPIBurstConstant, settings.API.Burst)
		})
	}
}

func TestPersistentFlagChangedIgnoresNilCommand(testInstance *testing.T) {
	application := NewApplication()
	require.False(testInstance, application.persistentFlagChanged(nil, logLevelFlagNameConstant))
}
