package provisioning

import (
	"errors"
	"fmt"
	"strings"

	"github.com/temirov/gitprovision/internal/credentials"
)

const (
	ownerKindUserConstant              = "user"
	ownerKindOrganizationConstant      = "organization"
	ownerKindOrganizationAliasConstant = "org"
	ownerKindGitUserPartyConstant      = "git user"
	ownerKindGitOrgPartyConstant       = "git organization"
	visibilityPublicConstant           = "public"
	visibilityPrivateConstant          = "private"
	outcomeAlreadyExistedConstant      = "already_existed"
	outcomeCreatedConstant             = "created"
	ownerKindEmptyErrorMessageConstant = "owner kind must be provided"
	ownerKindInvalidTemplateConstant   = "owner kind %q is not supported"
	visibilityInvalidTemplateConstant  = "visibility %q is not supported"
	userRepositoriesPathConstant       = "user"
	organizationsPathSegmentConstant   = "orgs"
	repositoriesPathSegmentConstant    = "repos"
)

// OwnerKind tells whether a repository owner is a user or an organization.
type OwnerKind string

// Owner kinds.
const (
	OwnerKindUser         OwnerKind = ownerKindUserConstant
	OwnerKindOrganization OwnerKind = ownerKindOrganizationConstant
)

// ParseOwnerKind accepts user, organization, org, and the record party labels "Git User" and "Git Organization".
func ParseOwnerKind(ownerKindValue string) (OwnerKind, error) {
	trimmedValue := strings.TrimSpace(ownerKindValue)
	if len(trimmedValue) == 0 {
		return "", errors.New(ownerKindEmptyErrorMessageConstant)
	}

	switch strings.ToLower(trimmedValue) {
	case ownerKindUserConstant, ownerKindGitUserPartyConstant:
		return OwnerKindUser, nil
	case ownerKindOrganizationConstant, ownerKindOrganizationAliasConstant, ownerKindGitOrgPartyConstant:
		return OwnerKindOrganization, nil
	default:
		return "", fmt.Errorf(ownerKindInvalidTemplateConstant, ownerKindValue)
	}
}

// Visibility is the public/private state of a repository.
type Visibility string

// Visibilities.
const (
	VisibilityPublic  Visibility = visibilityPublicConstant
	VisibilityPrivate Visibility = visibilityPrivateConstant
)

// ParseVisibility accepts public or private; an empty value means public.
func ParseVisibility(visibilityValue string) (Visibility, error) {
	switch strings.ToLower(strings.TrimSpace(visibilityValue)) {
	case "", visibilityPublicConstant:
		return VisibilityPublic, nil
	case visibilityPrivateConstant:
		return VisibilityPrivate, nil
	default:
		return "", fmt.Errorf(visibilityInvalidTemplateConstant, visibilityValue)
	}
}

func visibilityFromPrivateFlag(private bool) Visibility {
	if private {
		return VisibilityPrivate
	}
	return VisibilityPublic
}

// Outcome records whether the repository was adopted or created.
type Outcome string

// Outcomes.
const (
	OutcomeAlreadyExisted Outcome = outcomeAlreadyExistedConstant
	OutcomeCreated        Outcome = outcomeCreatedConstant
)

// RepositoryIdentity names the repository to provision and the visibility requested for creation.
type RepositoryIdentity struct {
	Owner      string
	Name       string
	OwnerKind  OwnerKind
	Visibility Visibility
}

// Credential is the bearer token used for both API calls.
type Credential = credentials.Credential

// ProviderEndpoint is the API base URL of the git hosting service.
type ProviderEndpoint struct {
	BaseURL string
}

// ProvisionResult is the outcome of a successful Provision call.
type ProvisionResult struct {
	RemoteURL  string
	Visibility Visibility
	Outcome    Outcome
}

func creationPathSegments(identity RepositoryIdentity) []string {
	if identity.OwnerKind == OwnerKindOrganization {
		return []string{organizationsPathSegmentConstant, identity.Owner, repositoriesPathSegmentConstant}
	}
	return []string{userRepositoriesPathConstant, repositoriesPathSegmentConstant}
}

func existencePathSegments(identity RepositoryIdentity) []string {
	return []string{repositoriesPathSegmentConstant, identity.Owner, identity.Name}
}
