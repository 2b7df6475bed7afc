package dependencies

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/gitprovision/internal/credentials"
	"github.com/temirov/gitprovision/internal/gitapi"
	"github.com/temirov/gitprovision/internal/registry"
	pathutils "github.com/temirov/gitprovision/internal/utils/path"
)

const (
	registryPathMissingMessageConstant = "no registry configured; set common.registry_path or pass --registry"
	registryLoadErrorTemplateConstant  = "unable to load registry: %w"
)

// ErrRegistryPathMissing indicates no registry file was configured.
var ErrRegistryPathMissing = errors.New(registryPathMissingMessageConstant)

var registryHomeDirectoryExpander = pathutils.NewHomeExpander()

// RecordStore is the full read-only registry surface. *registry.Registry satisfies it.
type RecordStore interface {
	Provider(name string) (registry.Provider, error)
	GitUserByName(name string) (registry.GitUser, error)
	GitUserForUser(user string) (registry.GitUser, error)
	GitUsersForUser(user string) []registry.GitUser
	Repository(name string) (registry.Repository, error)
}

// Settings carries the shared configuration commands need to build their collaborators.
type Settings struct {
	RegistryPath string
	API          gitapi.ClientConfiguration
}

// ResolveRecordStore returns the provided store or loads the registry file at registryPath.
// A leading tilde in registryPath expands to the user's home directory.
func ResolveRecordStore(existing RecordStore, registryPath string) (RecordStore, error) {
	if existing != nil {
		return existing, nil
	}

	trimmedPath := strings.TrimSpace(registryPath)
	if len(trimmedPath) == 0 {
		return nil, ErrRegistryPathMissing
	}

	loadedRegistry, loadError := registry.Load(registryHomeDirectoryExpander.Expand(trimmedPath))
	if loadError != nil {
		return nil, fmt.Errorf(registryLoadErrorTemplateConstant, loadError)
	}
	return loadedRegistry, nil
}

// ResolveAPIClient returns the provided sender or an HTTP client built from configuration.
func ResolveAPIClient(existing gitapi.Sender, logger *zap.Logger, configuration gitapi.ClientConfiguration) gitapi.Sender {
	if existing != nil {
		return existing
	}
	return gitapi.NewClient(logger, nil, configuration)
}

// ResolveSessionResolver builds a credential resolver over the record store.
// Nil token resolvers and environment lookups fall back to the process environment and file system.
func ResolveSessionResolver(logger *zap.Logger, recordStore RecordStore, tokenResolver credentials.TokenResolver, environmentLookup credentials.EnvironmentLookup) *credentials.Resolver {
	return credentials.NewResolver(logger, recordStore, tokenResolver, environmentLookup)
}

// ExpandPath resolves a leading tilde in user supplied file paths.
func ExpandPath(candidatePath string) string {
	return registryHomeDirectoryExpander.Expand(strings.TrimSpace(candidatePath))
}
