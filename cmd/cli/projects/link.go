package projects

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/gitprovision/internal/dependencies"
	"github.com/temirov/gitprovision/internal/projects"
	"github.com/temirov/gitprovision/internal/ui"
)

const (
	linkUseConstant                      = "project-link-validate"
	linkShortDescriptionConstant         = "Validate the git user and organization behind a project repository link"
	linkLongDescriptionConstant          = "project-link-validate resolves the git user that may act for a registered organization repository and confirms the repository's organization is one of that git user's organizations. Pass --url with --git-user to check an unregistered pairing."
	repositoryFlagNameConstant           = "repository"
	repositoryFlagDescriptionConstant    = "Registered repository name"
	urlFlagNameConstant                  = "url"
	urlFlagDescriptionConstant           = "Repository URL to validate instead of a registered repository"
	gitUserFlagNameConstant              = "git-user"
	gitUserFlagDescriptionConstant       = "Git user to validate against; resolved from the repository owner when omitted"
	unexpectedArgumentsMessageConstant   = "project-link-validate does not accept positional arguments"
	targetMissingMessageConstant         = "provide --repository or --url"
	gitUserRequiredForURLMessageConstant = "--url requires --git-user"
	linkFailedTemplateConstant           = "project-link-validate failed: %w"
)

// LoggerProvider yields a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// SettingsProvider returns the shared registry and API settings.
type SettingsProvider func() dependencies.Settings

// LinkCommandBuilder assembles the project-link-validate command.
type LinkCommandBuilder struct {
	LoggerProvider   LoggerProvider
	SettingsProvider SettingsProvider
	Collaborators    dependencies.Collaborators
}

// Build constructs the project-link-validate command.
func (builder *LinkCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   linkUseConstant,
		Short: linkShortDescriptionConstant,
		Long:  linkLongDescriptionConstant,
		RunE:  builder.run,
	}

	command.Flags().String(repositoryFlagNameConstant, "", repositoryFlagDescriptionConstant)
	command.Flags().String(urlFlagNameConstant, "", urlFlagDescriptionConstant)
	command.Flags().String(gitUserFlagNameConstant, "", gitUserFlagDescriptionConstant)

	return command, nil
}

func (builder *LinkCommandBuilder) run(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errors.New(unexpectedArgumentsMessageConstant)
	}

	repositoryName, _ := command.Flags().GetString(repositoryFlagNameConstant)
	repositoryURL, _ := command.Flags().GetString(urlFlagNameConstant)
	gitUserName, _ := command.Flags().GetString(gitUserFlagNameConstant)
	repositoryName = strings.TrimSpace(repositoryName)
	repositoryURL = strings.TrimSpace(repositoryURL)
	gitUserName = strings.TrimSpace(gitUserName)

	if len(repositoryName) == 0 && len(repositoryURL) == 0 {
		return errors.New(targetMissingMessageConstant)
	}
	if len(repositoryURL) > 0 && len(gitUserName) == 0 {
		return errors.New(gitUserRequiredForURLMessageConstant)
	}

	logger := zap.NewNop()
	if builder.LoggerProvider != nil {
		if providedLogger := builder.LoggerProvider(); providedLogger != nil {
			logger = providedLogger
		}
	}

	settings := dependencies.Settings{}
	if builder.SettingsProvider != nil {
		settings = builder.SettingsProvider()
	}

	workspace, workspaceError := builder.Collaborators.Resolve(logger, settings)
	if workspaceError != nil {
		return fmt.Errorf(linkFailedTemplateConstant, workspaceError)
	}

	validator, validatorError := projects.NewLinkValidator(logger, workspace.RecordStore)
	if validatorError != nil {
		return validatorError
	}

	formatter := ui.ResultFormatter{}

	if len(gitUserName) == 0 {
		link, linkError := validator.Link(repositoryName)
		if linkError != nil {
			return fmt.Errorf(linkFailedTemplateConstant, linkError)
		}
		fmt.Fprint(command.OutOrStdout(), formatter.LinkValidated(link.Repository.Name, link.RepositoryURL, link.GitUser))
		return nil
	}

	if len(repositoryURL) == 0 {
		repository, lookupError := workspace.RecordStore.Repository(repositoryName)
		if lookupError != nil {
			return fmt.Errorf(linkFailedTemplateConstant, lookupError)
		}
		repositoryURL = repository.URL
	}

	parsedURL, validationError := validator.Validate(repositoryURL, gitUserName)
	if validationError != nil {
		return fmt.Errorf(linkFailedTemplateConstant, validationError)
	}

	fmt.Fprint(command.OutOrStdout(), formatter.RepositoryPairValidated(parsedURL, gitUserName))
	return nil
}
