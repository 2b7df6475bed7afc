package orgs

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/gitprovision/internal/dependencies"
	"github.com/temirov/gitprovision/internal/organizations"
	"github.com/temirov/gitprovision/internal/ui"
	"github.com/temirov/gitprovision/internal/utils"
)

const (
	verifyUseConstant                   = "org-verify"
	verifyShortDescriptionConstant      = "Check that an organization exists on a git provider"
	verifyLongDescriptionConstant       = "org-verify performs an unauthenticated lookup of the organization (GitHub) or group (GitLab) on the provider."
	membershipUseConstant               = "org-membership"
	membershipShortDescriptionConstant  = "Check that the acting git user belongs to an organization"
	membershipLongDescriptionConstant   = "org-membership lists the organizations visible to the acting user's personal access token and requires the named organization among them."
	organizationFlagNameConstant        = "organization"
	organizationFlagDescriptionConstant = "Organization or group name"
	providerFlagNameConstant            = "provider"
	providerFlagDescriptionConstant     = "Git provider name from the registry"
	unexpectedArgumentsTemplateConstant = "%s does not accept positional arguments"
	verifyFailedTemplateConstant        = "org-verify failed: %w"
	membershipFailedTemplateConstant    = "org-membership failed: %w"
	membershipDeniedMessageConstant     = "organization not among the token's memberships"
	logFieldAvailableConstant           = "available_organizations"
	logFieldOrganizationConstant        = "organization"
)

// LoggerProvider yields a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the current organization configuration.
type ConfigurationProvider func() Configuration

// SettingsProvider returns the shared registry and API settings.
type SettingsProvider func() dependencies.Settings

var commandContextAccessor = utils.NewCommandContextAccessor()

// VerifyCommandBuilder assembles the org-verify command.
type VerifyCommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	SettingsProvider      SettingsProvider
	Collaborators         dependencies.Collaborators
}

// Build constructs the org-verify command.
func (builder *VerifyCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   verifyUseConstant,
		Short: verifyShortDescriptionConstant,
		Long:  verifyLongDescriptionConstant,
		RunE:  builder.run,
	}
	registerFlags(command)
	return command, nil
}

func (builder *VerifyCommandBuilder) run(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return fmt.Errorf(unexpectedArgumentsTemplateConstant, verifyUseConstant)
	}

	organization, providerName := readFlags(command, builder.ConfigurationProvider)
	logger := resolveLogger(builder.LoggerProvider)

	workspace, workspaceError := builder.Collaborators.Resolve(logger, resolveSettings(builder.SettingsProvider))
	if workspaceError != nil {
		return fmt.Errorf(verifyFailedTemplateConstant, workspaceError)
	}

	provider, providerError := workspace.RecordStore.Provider(providerName)
	if providerError != nil {
		return fmt.Errorf(verifyFailedTemplateConstant, providerError)
	}

	verifier, verifierError := organizations.NewVerifier(logger, workspace.APIClient)
	if verifierError != nil {
		return verifierError
	}

	if verificationError := verifier.Verify(command.Context(), provider, organization); verificationError != nil {
		return fmt.Errorf(verifyFailedTemplateConstant, verificationError)
	}

	fmt.Fprint(command.OutOrStdout(), ui.ResultFormatter{}.OrganizationVerified(organization, provider.Name))
	return nil
}

// MembershipCommandBuilder assembles the org-membership command.
type MembershipCommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	SettingsProvider      SettingsProvider
	Collaborators         dependencies.Collaborators
}

// Build constructs the org-membership command.
func (builder *MembershipCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   membershipUseConstant,
		Short: membershipShortDescriptionConstant,
		Long:  membershipLongDescriptionConstant,
		RunE:  builder.run,
	}
	registerFlags(command)
	return command, nil
}

func (builder *MembershipCommandBuilder) run(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return fmt.Errorf(unexpectedArgumentsTemplateConstant, membershipUseConstant)
	}

	organization, providerName := readFlags(command, builder.ConfigurationProvider)
	logger := resolveLogger(builder.LoggerProvider)

	workspace, workspaceError := builder.Collaborators.Resolve(logger, resolveSettings(builder.SettingsProvider))
	if workspaceError != nil {
		return fmt.Errorf(membershipFailedTemplateConstant, workspaceError)
	}

	actingUser, _ := commandContextAccessor.ActingUser(command.Context())
	session, sessionError := workspace.Session(command.Context(), actingUser, providerName)
	if sessionError != nil {
		return fmt.Errorf(membershipFailedTemplateConstant, sessionError)
	}

	checker, checkerError := organizations.NewMembershipChecker(logger, workspace.APIClient, workspace.Clock)
	if checkerError != nil {
		return checkerError
	}

	if _, membershipError := checker.Check(command.Context(), session, organization); membershipError != nil {
		var notPermittedError organizations.OrganizationNotPermittedError
		if errors.As(membershipError, &notPermittedError) && len(notPermittedError.Available) > 0 {
			logger.Info(membershipDeniedMessageConstant, zap.String(logFieldOrganizationConstant, organization), zap.Strings(logFieldAvailableConstant, notPermittedError.Available))
		}
		return fmt.Errorf(membershipFailedTemplateConstant, membershipError)
	}

	fmt.Fprint(command.OutOrStdout(), ui.ResultFormatter{}.MembershipConfirmed(session.GitUser.Name, strings.TrimSpace(organization)))
	return nil
}

func registerFlags(command *cobra.Command) {
	command.Flags().String(organizationFlagNameConstant, "", organizationFlagDescriptionConstant)
	command.Flags().String(providerFlagNameConstant, "", providerFlagDescriptionConstant)
}

func readFlags(command *cobra.Command, configurationProvider ConfigurationProvider) (string, string) {
	configuration := DefaultConfiguration()
	if configurationProvider != nil {
		configuration = configurationProvider().sanitize()
	}

	organization, _ := command.Flags().GetString(organizationFlagNameConstant)
	providerName, _ := command.Flags().GetString(providerFlagNameConstant)
	if len(strings.TrimSpace(providerName)) == 0 {
		providerName = configuration.Provider
	}
	return organization, strings.TrimSpace(providerName)
}

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

func resolveSettings(provider SettingsProvider) dependencies.Settings {
	if provider == nil {
		return dependencies.Settings{}
	}
	return provider()
}
