package dependencies_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/gitprovision/internal/credentials"
	"github.com/temirov/gitprovision/internal/dependencies"
	"github.com/temirov/gitprovision/internal/gitapi"
	"github.com/temirov/gitprovision/internal/registry"
)

const (
	testRegistryContentsConstant = "providers:\n  - name: github\n    url: https://api.github.com\ngit_users:\n  - name: octodev\n    user: dev@example.com\n    pat_source: env:OCTODEV_TOKEN\n    valid_date: \"2026-06-30\"\n"
	testActingUserConstant       = "dev@example.com"
)

func writeRegistry(testInstance *testing.T) string {
	testInstance.Helper()
	registryPath := filepath.Join(testInstance.TempDir(), "registry.yaml")
	require.NoError(testInstance, os.WriteFile(registryPath, []byte(testRegistryContentsConstant), 0o600))
	return registryPath
}

func TestResolveRecordStore(testInstance *testing.T) {
	injectedStore, buildError := registry.New(registry.Document{})
	require.NoError(testInstance, buildError)

	testCases := []struct {
		name          string
		existing      dependencies.RecordStore
		registryPath  func(*testing.T) string
		expectedError error
		expectLoaded  bool
	}{
		{
			name:         "returns_injected_store",
			existing:     injectedStore,
			registryPath: func(*testing.T) string { return "" },
		},
		{
			name:          "requires_path",
			registryPath:  func(*testing.T) string { return "   " },
			expectedError: dependencies.ErrRegistryPathMissing,
		},
		{
			name:         "loads_registry_file",
			registryPath: writeRegistry,
			expectLoaded: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			recordStore, resolveError := dependencies.ResolveRecordStore(testCase.existing, testCase.registryPath(subTest))
			if testCase.expectedError != nil {
				require.ErrorIs(subTest, resolveError, testCase.expectedError)
				return
			}
			require.NoError(subTest, resolveError)
			if !testCase.expectLoaded {
				require.Same(subTest, injectedStore, recordStore)
				return
			}
			provider, providerError := recordStore.Provider("github")
			require.NoError(subTest, providerError)
			require.Equal(subTest, "https://api.github.com", provider.URL)
		})
	}
}

func TestResolveRecordStoreReportsUnreadableRegistry(testInstance *testing.T) {
	_, resolveError := dependencies.ResolveRecordStore(nil, filepath.Join(testInstance.TempDir(), "absent.yaml"))
	require.Error(testInstance, resolveError)
	require.Contains(testInstance, resolveError.Error(), "unable to load registry")
}

func TestResolveAPIClient(testInstance *testing.T) {
	injectedClient := gitapi.NewClient(zap.NewNop(), nil, gitapi.ClientConfiguration{})
	require.Same(testInstance, injectedClient, dependencies.ResolveAPIClient(injectedClient, zap.NewNop(), gitapi.ClientConfiguration{}))

	builtClient := dependencies.ResolveAPIClient(nil, nil, gitapi.ClientConfiguration{Timeout: time.Second})
	require.NotNil(testInstance, builtClient)
	require.IsType(testInstance, &gitapi.Client{}, builtClient)
}

func TestExpandPathResolvesHomeDirectory(testInstance *testing.T) {
	homeDirectory, homeError := os.UserHomeDir()
	require.NoError(testInstance, homeError)

	require.Equal(testInstance, filepath.Join(homeDirectory, "registry.yaml"), dependencies.ExpandPath(" ~/registry.yaml "))
	require.Equal(testInstance, "/etc/registry.yaml", dependencies.ExpandPath("/etc/registry.yaml"))
}

func TestWorkspaceSession(testInstance *testing.T) {
	collaborators := dependencies.Collaborators{
		EnvironmentLookup: func(key string) (string, bool) {
			if key == "OCTODEV_TOKEN" {
				return "ghp_octodev", true
			}
			return "", false
		},
	}

	workspace, resolveError := collaborators.Resolve(nil, dependencies.Settings{RegistryPath: writeRegistry(testInstance)})
	require.NoError(testInstance, resolveError)
	require.NotNil(testInstance, workspace.APIClient)
	require.NotNil(testInstance, workspace.Clock)

	session, sessionError := workspace.Session(context.Background(), testActingUserConstant, "github")
	require.NoError(testInstance, sessionError)
	require.Equal(testInstance, "octodev", session.GitUser.Name)
	require.Equal(testInstance, "ghp_octodev", session.Credential.Token)
	require.Equal(testInstance, time.Date(2026, time.June, 30, 0, 0, 0, 0, time.UTC), session.Credential.ExpiresAt)

	_, missingUserError := workspace.Session(context.Background(), "", "github")
	require.ErrorIs(testInstance, missingUserError, dependencies.ErrActingUserMissing)

	_, unknownProviderError := workspace.Session(context.Background(), testActingUserConstant, "gitlab")
	require.ErrorIs(testInstance, unknownProviderError, credentials.ErrProviderNotFound)
}

func TestCollaboratorsResolveRequiresRegistry(testInstance *testing.T) {
	_, resolveError := dependencies.Collaborators{}.Resolve(zap.NewNop(), dependencies.Settings{})
	require.ErrorIs(testInstance, resolveError, dependencies.ErrRegistryPathMissing)
}
