package registry

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Registry serves read-only lookups over a validated Document.
type Registry struct {
	providersByName    map[string]Provider
	gitUsersByName     map[string]GitUser
	gitUsersByUser     map[string][]GitUser
	repositoriesByName map[string]Repository
}

// Load reads, decodes, and validates the registry file at path.
func Load(path string) (*Registry, error) {
	trimmedPath := strings.TrimSpace(path)
	if len(trimmedPath) == 0 {
		return nil, errors.New(registryPathMissingMessageConstant)
	}

	contents, readError := os.ReadFile(trimmedPath)
	if readError != nil {
		return nil, fmt.Errorf(registryReadErrorTemplateConstant, trimmedPath, readError)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(contents))
	decoder.KnownFields(true)

	var document Document
	if decodeError := decoder.Decode(&document); decodeError != nil && !errors.Is(decodeError, io.EOF) {
		return nil, fmt.Errorf(registryParseErrorTemplateConstant, trimmedPath, decodeError)
	}

	loadedRegistry, buildError := New(document)
	if buildError != nil {
		return nil, fmt.Errorf(registryInvalidErrorTemplateConstant, trimmedPath, buildError)
	}

	return loadedRegistry, nil
}

// New validates the document and indexes its records.
func New(document Document) (*Registry, error) {
	if validationError := validator.New().Struct(document); validationError != nil {
		return nil, validationError
	}

	builtRegistry := &Registry{
		providersByName:    make(map[string]Provider, len(document.Providers)),
		gitUsersByName:     make(map[string]GitUser, len(document.GitUsers)),
		gitUsersByUser:     make(map[string][]GitUser),
		repositoriesByName: make(map[string]Repository, len(document.Repositories)),
	}

	for _, provider := range document.Providers {
		if _, exists := builtRegistry.providersByName[provider.Name]; exists {
			return nil, DuplicateRecordError{Kind: recordKindProviderConstant, Key: provider.Name}
		}
		builtRegistry.providersByName[provider.Name] = provider
	}

	for _, gitUser := range document.GitUsers {
		if _, exists := builtRegistry.gitUsersByName[gitUser.Name]; exists {
			return nil, DuplicateRecordError{Kind: recordKindGitUserConstant, Key: gitUser.Name}
		}
		if _, expiryError := gitUser.Expiry(); expiryError != nil {
			return nil, expiryError
		}
		builtRegistry.gitUsersByName[gitUser.Name] = gitUser
		builtRegistry.gitUsersByUser[gitUser.User] = append(builtRegistry.gitUsersByUser[gitUser.User], gitUser)
	}

	for _, repository := range document.Repositories {
		if _, exists := builtRegistry.repositoriesByName[repository.Name]; exists {
			return nil, DuplicateRecordError{Kind: recordKindRepositoryConstant, Key: repository.Name}
		}
		builtRegistry.repositoriesByName[repository.Name] = repository
	}

	return builtRegistry, nil
}

// Provider returns the provider with the given name.
func (registry *Registry) Provider(name string) (Provider, error) {
	provider, exists := registry.providersByName[strings.TrimSpace(name)]
	if !exists {
		return Provider{}, RecordNotFoundError{Kind: recordKindProviderConstant, Key: name}
	}
	return provider, nil
}

// GitUserByName returns the git user whose remote login is name.
func (registry *Registry) GitUserByName(name string) (GitUser, error) {
	gitUser, exists := registry.gitUsersByName[strings.TrimSpace(name)]
	if !exists {
		return GitUser{}, RecordNotFoundError{Kind: recordKindGitUserConstant, Key: name}
	}
	return gitUser, nil
}

// GitUserForUser returns the first git user mapped to the application user.
func (registry *Registry) GitUserForUser(user string) (GitUser, error) {
	gitUsers := registry.GitUsersForUser(user)
	if len(gitUsers) == 0 {
		return GitUser{}, RecordNotFoundError{Kind: recordKindGitUserForUserConstant, Key: user}
	}
	return gitUsers[0], nil
}

// GitUsersForUser returns every git user mapped to the application user, in document order.
func (registry *Registry) GitUsersForUser(user string) []GitUser {
	gitUsers := registry.gitUsersByUser[strings.TrimSpace(user)]
	return append([]GitUser(nil), gitUsers...)
}

// Repository returns the linked repository record with the given name.
func (registry *Registry) Repository(name string) (Repository, error) {
	repository, exists := registry.repositoriesByName[strings.TrimSpace(name)]
	if !exists {
		return Repository{}, RecordNotFoundError{Kind: recordKindRepositoryConstant, Key: name}
	}
	return repository, nil
}
