package provision

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/temirov/gitprovision/internal/dependencies"
	"github.com/temirov/gitprovision/internal/organizations"
	"github.com/temirov/gitprovision/internal/provisioning"
	"github.com/temirov/gitprovision/internal/ui"
)

const (
	provisionUseConstant                    = "repo-provision"
	provisionShortDescriptionConstant       = "Link to or create a remote repository"
	provisionLongDescriptionConstant        = "repo-provision adopts the repository when the provider already has it and creates it otherwise, using the acting user's git user and personal access token."
	nameFlagNameConstant                    = "name"
	nameFlagDescriptionConstant             = "Repository name (lowercase)"
	ownerFlagNameConstant                   = "owner"
	ownerFlagDescriptionConstant            = "Organization that owns the repository; user-owned repositories default to the acting user's git user"
	ownerKindFlagNameConstant               = "owner-kind"
	ownerKindFlagDescriptionConstant        = "Owner kind: user or organization"
	visibilityFlagNameConstant              = "visibility"
	visibilityFlagDescriptionConstant       = "Visibility used when creating the repository: public or private"
	providerFlagNameConstant                = "provider"
	providerFlagDescriptionConstant         = "Git provider name from the registry"
	verifyMembershipFlagNameConstant        = "verify-membership"
	verifyMembershipFlagDescriptionConstant = "Confirm organization membership with the provider before provisioning"
	unexpectedArgumentsMessageConstant      = "repo-provision does not accept positional arguments"
	provisionFailedTemplateConstant         = "repo-provision failed: %w"
	ownerKindParseErrorTemplateConstant     = "invalid owner kind: %w"
	visibilityParseErrorTemplateConstant    = "invalid visibility: %w"
	membershipCheckFailedTemplateConstant   = "organization membership check failed: %w"
)

// RepositoryCommandBuilder assembles the repo-provision command.
type RepositoryCommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	SettingsProvider      SettingsProvider
	Collaborators         dependencies.Collaborators
}

type repositoryOptions struct {
	name             string
	owner            string
	ownerKind        provisioning.OwnerKind
	visibility       provisioning.Visibility
	provider         string
	verifyMembership bool
}

// Build constructs the repo-provision command.
func (builder *RepositoryCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   provisionUseConstant,
		Short: provisionShortDescriptionConstant,
		Long:  provisionLongDescriptionConstant,
		RunE:  builder.run,
	}

	command.Flags().String(nameFlagNameConstant, "", nameFlagDescriptionConstant)
	command.Flags().String(ownerFlagNameConstant, "", ownerFlagDescriptionConstant)
	command.Flags().String(ownerKindFlagNameConstant, "", ownerKindFlagDescriptionConstant)
	command.Flags().String(visibilityFlagNameConstant, "", visibilityFlagDescriptionConstant)
	command.Flags().String(providerFlagNameConstant, "", providerFlagDescriptionConstant)
	command.Flags().Bool(verifyMembershipFlagNameConstant, false, verifyMembershipFlagDescriptionConstant)

	return command, nil
}

func (builder *RepositoryCommandBuilder) run(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errors.New(unexpectedArgumentsMessageConstant)
	}

	options, optionsError := builder.parseOptions(command)
	if optionsError != nil {
		return optionsError
	}

	logger := resolveLogger(builder.LoggerProvider)
	workspace, workspaceError := builder.Collaborators.Resolve(logger, resolveSettings(builder.SettingsProvider))
	if workspaceError != nil {
		return fmt.Errorf(provisionFailedTemplateConstant, workspaceError)
	}

	currentUser := actingUser(command)
	session, sessionError := workspace.Session(command.Context(), currentUser, options.provider)
	if sessionError != nil {
		return fmt.Errorf(provisionFailedTemplateConstant, sessionError)
	}

	owner, partyError := provisioning.ResolveParty(workspace.RecordStore, currentUser, options.ownerKind, options.owner)
	if partyError != nil {
		return fmt.Errorf(provisionFailedTemplateConstant, partyError)
	}

	if options.ownerKind == provisioning.OwnerKindOrganization && options.verifyMembership {
		membershipChecker, checkerError := organizations.NewMembershipChecker(logger, workspace.APIClient, workspace.Clock)
		if checkerError != nil {
			return checkerError
		}
		if _, membershipError := membershipChecker.Check(command.Context(), session, owner); membershipError != nil {
			return fmt.Errorf(membershipCheckFailedTemplateConstant, membershipError)
		}
	}

	provisioner, provisionerError := provisioning.NewProvisioner(logger, workspace.APIClient, workspace.Clock)
	if provisionerError != nil {
		return provisionerError
	}

	identity := provisioning.RepositoryIdentity{
		Owner:      owner,
		Name:       options.name,
		OwnerKind:  options.ownerKind,
		Visibility: options.visibility,
	}
	result, provisionError := provisioner.Provision(command.Context(), identity, session.Credential, provisioning.ProviderEndpoint{BaseURL: session.Provider.URL})
	if provisionError != nil {
		return fmt.Errorf(provisionFailedTemplateConstant, provisionError)
	}

	fmt.Fprint(command.OutOrStdout(), ui.ResultFormatter{}.ProvisionResult(identity, result))
	return nil
}

func (builder *RepositoryCommandBuilder) parseOptions(command *cobra.Command) (repositoryOptions, error) {
	configuration := resolveConfiguration(builder.ConfigurationProvider)

	nameValue, _ := command.Flags().GetString(nameFlagNameConstant)
	ownerValue, _ := command.Flags().GetString(ownerFlagNameConstant)
	ownerKindFlagValue, _ := command.Flags().GetString(ownerKindFlagNameConstant)
	visibilityFlagValue, _ := command.Flags().GetString(visibilityFlagNameConstant)
	providerFlagValue, _ := command.Flags().GetString(providerFlagNameConstant)

	ownerKind, ownerKindError := provisioning.ParseOwnerKind(selectStringValue(ownerKindFlagValue, configuration.OwnerKind))
	if ownerKindError != nil {
		return repositoryOptions{}, fmt.Errorf(ownerKindParseErrorTemplateConstant, ownerKindError)
	}

	visibility, visibilityError := provisioning.ParseVisibility(selectStringValue(visibilityFlagValue, configuration.Visibility))
	if visibilityError != nil {
		return repositoryOptions{}, fmt.Errorf(visibilityParseErrorTemplateConstant, visibilityError)
	}

	verifyMembership := configuration.VerifyMembership
	if command.Flags().Changed(verifyMembershipFlagNameConstant) {
		verifyMembership, _ = command.Flags().GetBool(verifyMembershipFlagNameConstant)
	}

	return repositoryOptions{
		name:             nameValue,
		owner:            ownerValue,
		ownerKind:        ownerKind,
		visibility:       visibility,
		provider:         selectStringValue(providerFlagValue, configuration.Provider),
		verifyMembership: verifyMembership,
	}, nil
}
