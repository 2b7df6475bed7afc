package ui

import (
	"fmt"

	"github.com/temirov/gitprovision/internal/gitrepo"
	"github.com/temirov/gitprovision/internal/provisioning"
)

const (
	repositoryCreatedTemplateConstant       = "CREATED %s/%s (%s): %s\n"
	repositoryAdoptedTemplateConstant       = "EXISTS %s/%s (%s): %s\n"
	repositoryFailedTemplateConstant        = "FAILED %s/%s: %v\n"
	batchSummaryTemplateConstant            = "provisioned %d of %d repositories\n"
	organizationVerifiedTemplateConstant    = "VERIFIED organization %s on %s\n"
	membershipConfirmedTemplateConstant     = "MEMBER %s belongs to %s\n"
	linkValidatedTemplateConstant           = "LINKED %s -> %s (organization %s, git user %s)\n"
	repositoryPairValidatedTemplateConstant = "VALID %s for git user %s (organization %s)\n"
)

// ResultFormatter renders command results as single lines.
type ResultFormatter struct{}

// ProvisionResult describes a successful provisioning invocation.
func (formatter ResultFormatter) ProvisionResult(identity provisioning.RepositoryIdentity, result provisioning.ProvisionResult) string {
	template := repositoryCreatedTemplateConstant
	if result.Outcome == provisioning.OutcomeAlreadyExisted {
		template = repositoryAdoptedTemplateConstant
	}
	return fmt.Sprintf(template, identity.Owner, identity.Name, result.Visibility, result.RemoteURL)
}

// BatchOutcome describes one batch entry, successful or not.
func (formatter ResultFormatter) BatchOutcome(outcome provisioning.BatchOutcome) string {
	if outcome.Error != nil {
		return fmt.Sprintf(repositoryFailedTemplateConstant, outcome.Request.Identity.Owner, outcome.Request.Identity.Name, outcome.Error)
	}
	return formatter.ProvisionResult(outcome.Request.Identity, outcome.Result)
}

// BatchSummary reports how many batch entries succeeded.
func (formatter ResultFormatter) BatchSummary(succeeded int, total int) string {
	return fmt.Sprintf(batchSummaryTemplateConstant, succeeded, total)
}

// OrganizationVerified confirms a public organization lookup.
func (formatter ResultFormatter) OrganizationVerified(organization string, provider string) string {
	return fmt.Sprintf(organizationVerifiedTemplateConstant, organization, provider)
}

// MembershipConfirmed confirms the git user belongs to the organization.
func (formatter ResultFormatter) MembershipConfirmed(gitUser string, organization string) string {
	return fmt.Sprintf(membershipConfirmedTemplateConstant, gitUser, organization)
}

// LinkValidated confirms a project repository link.
func (formatter ResultFormatter) LinkValidated(repositoryName string, repositoryURL gitrepo.RepositoryURL, gitUser string) string {
	return fmt.Sprintf(linkValidatedTemplateConstant, repositoryName, repositoryURL.HTTPSCloneURL(), repositoryURL.Owner, gitUser)
}

// RepositoryPairValidated confirms an explicit repository URL and git user pairing.
func (formatter ResultFormatter) RepositoryPairValidated(repositoryURL gitrepo.RepositoryURL, gitUser string) string {
	return fmt.Sprintf(repositoryPairValidatedTemplateConstant, repositoryURL.HTTPSCloneURL(), gitUser, repositoryURL.Owner)
}
