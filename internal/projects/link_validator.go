package projects

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/gitprovision/internal/gitrepo"
	"github.com/temirov/gitprovision/internal/provisioning"
	"github.com/temirov/gitprovision/internal/registry"
)

const (
	recordStoreMissingMessageConstant         = "registry not configured"
	repositoryOwnerMissingTemplateConstant    = "git repo %s has no owner"
	gitUserNotUniqueTemplateConstant          = "%w: no git user found matching email %q (found %d)"
	gitUserNotFoundTemplateConstant           = "git user %s not found: %w"
	gitUserNotUniqueMessageConstant           = "git user not unique"
	organizationMismatchTemplateConstant      = "git user %s is not associated with the organization %q in the repository URL"
	repositoryNotOrganizationTemplateConstant = "git repo %s is owned by a %s; only organization repositories can be linked"
	repositoryURLInvalidTemplateConstant      = "git repo %s has an unreadable url: %w"
	linkValidatedMessageConstant              = "project repository link validated"
	logFieldRepositoryConstant                = "repository"
	logFieldGitUserConstant                   = "git_user"
	logFieldOrganizationConstant              = "organization"
)

var (
	// ErrRecordStoreMissing indicates the validator was built without a registry.
	ErrRecordStoreMissing = errors.New(recordStoreMissingMessageConstant)
	// ErrGitUserNotUnique indicates the repository owner maps to zero or several git users.
	ErrGitUserNotUnique = errors.New(gitUserNotUniqueMessageConstant)
)

// RecordStore is the registry subset used for link validation.
type RecordStore interface {
	Repository(name string) (registry.Repository, error)
	GitUserByName(name string) (registry.GitUser, error)
	GitUsersForUser(user string) []registry.GitUser
}

// OrganizationMismatchError reports a git user who does not belong to the repository's organization.
type OrganizationMismatchError struct {
	GitUser      string
	Organization string
}

// Error describes the mismatch.
func (mismatchError OrganizationMismatchError) Error() string {
	return fmt.Sprintf(organizationMismatchTemplateConstant, mismatchError.GitUser, mismatchError.Organization)
}

// Link is a validated project repository link.
type Link struct {
	Repository    registry.Repository
	RepositoryURL gitrepo.RepositoryURL
	GitUser       string
}

// LinkValidator checks project repository links against the registry.
type LinkValidator struct {
	recordStore RecordStore
	logger      *zap.Logger
}

// NewLinkValidator builds a LinkValidator.
func NewLinkValidator(logger *zap.Logger, recordStore RecordStore) (*LinkValidator, error) {
	if recordStore == nil {
		return nil, ErrRecordStoreMissing
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LinkValidator{recordStore: recordStore, logger: logger}, nil
}

// ResolveGitUser returns the single git user mapped to the repository owner's email.
func (validator *LinkValidator) ResolveGitUser(repositoryName string) (string, error) {
	repository, lookupError := validator.recordStore.Repository(repositoryName)
	if lookupError != nil {
		return "", lookupError
	}

	ownerEmail := strings.TrimSpace(repository.Owner)
	if len(ownerEmail) == 0 {
		return "", fmt.Errorf(repositoryOwnerMissingTemplateConstant, repository.Name)
	}

	gitUsers := validator.recordStore.GitUsersForUser(ownerEmail)
	if len(gitUsers) != 1 {
		return "", fmt.Errorf(gitUserNotUniqueTemplateConstant, ErrGitUserNotUnique, ownerEmail, len(gitUsers))
	}

	return gitUsers[0].Name, nil
}

// Validate requires the organization in repositoryURL to be one of the git user's organizations.
func (validator *LinkValidator) Validate(repositoryURL string, gitUserName string) (gitrepo.RepositoryURL, error) {
	gitUser, lookupError := validator.recordStore.GitUserByName(gitUserName)
	if lookupError != nil {
		return gitrepo.RepositoryURL{}, fmt.Errorf(gitUserNotFoundTemplateConstant, gitUserName, lookupError)
	}

	parsedURL, parseError := gitrepo.ParseRepositoryURL(repositoryURL)
	if parseError != nil {
		return gitrepo.RepositoryURL{}, parseError
	}

	if !gitUser.BelongsTo(parsedURL.Owner) {
		return gitrepo.RepositoryURL{}, OrganizationMismatchError{GitUser: gitUser.Name, Organization: parsedURL.Owner}
	}

	return parsedURL, nil
}

// Link resolves the git user for an organization repository record and validates the pairing.
func (validator *LinkValidator) Link(repositoryName string) (Link, error) {
	repository, lookupError := validator.recordStore.Repository(repositoryName)
	if lookupError != nil {
		return Link{}, lookupError
	}

	ownerKind, ownerKindError := provisioning.ParseOwnerKind(repository.Party)
	if ownerKindError != nil || ownerKind != provisioning.OwnerKindOrganization {
		return Link{}, fmt.Errorf(repositoryNotOrganizationTemplateConstant, repository.Name, repository.Party)
	}

	gitUserName, resolveError := validator.ResolveGitUser(repository.Name)
	if resolveError != nil {
		return Link{}, resolveError
	}

	parsedURL, validationError := validator.Validate(repository.URL, gitUserName)
	if validationError != nil {
		var parseError gitrepo.ParseError
		if errors.As(validationError, &parseError) {
			return Link{}, fmt.Errorf(repositoryURLInvalidTemplateConstant, repository.Name, validationError)
		}
		return Link{}, validationError
	}

	validator.logger.Info(
		linkValidatedMessageConstant,
		zap.String(logFieldRepositoryConstant, repository.Name),
		zap.String(logFieldGitUserConstant, gitUserName),
		zap.String(logFieldOrganizationConstant, parsedURL.Owner),
	)

	return Link{Repository: repository, RepositoryURL: parsedURL, GitUser: gitUserName}, nil
}
