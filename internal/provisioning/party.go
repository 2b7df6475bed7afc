package provisioning

import (
	"fmt"
	"strings"

	"github.com/temirov/gitprovision/internal/registry"
)

const (
	gitUserPartyMissingTemplateConstant     = "no git user found for %s"
	gitUserPartyMismatchTemplateConstant    = "owner %q must be the git user %q mapped to %s"
	organizationPartyMissingMessageConstant = "organization name must be provided for organization-owned repositories"
	actingUserPartyMissingMessageConstant   = "acting user must be provided to resolve a user-owned repository"
)

// GitUserLookup finds the git user mapped to an application user.
type GitUserLookup interface {
	GitUserForUser(user string) (registry.GitUser, error)
}

// ResolveParty returns the repository owner for the requested owner kind.
// User-owned repositories always belong to the acting user's git user; organization-owned
// repositories take the supplied organization name.
func ResolveParty(lookup GitUserLookup, actingUser string, ownerKind OwnerKind, ownerInput string) (string, error) {
	trimmedOwnerInput := strings.TrimSpace(ownerInput)

	if ownerKind == OwnerKindOrganization {
		if len(trimmedOwnerInput) == 0 {
			return "", newProvisionError(ErrMissingInput, organizationPartyMissingMessageConstant)
		}
		return trimmedOwnerInput, nil
	}

	trimmedActingUser := strings.TrimSpace(actingUser)
	if len(trimmedActingUser) == 0 || lookup == nil {
		return "", newProvisionError(ErrMissingInput, actingUserPartyMissingMessageConstant)
	}

	gitUser, lookupError := lookup.GitUserForUser(trimmedActingUser)
	if lookupError != nil {
		return "", ProvisionError{Kind: ErrMissingInput, Message: fmt.Sprintf(gitUserPartyMissingTemplateConstant, trimmedActingUser), Cause: lookupError}
	}

	if len(trimmedOwnerInput) > 0 && trimmedOwnerInput != gitUser.Name {
		return "", newProvisionError(ErrMissingInput, fmt.Sprintf(gitUserPartyMismatchTemplateConstant, trimmedOwnerInput, gitUser.Name, trimmedActingUser))
	}

	return gitUser.Name, nil
}
