package provision

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/temirov/gitprovision/internal/dependencies"
	"github.com/temirov/gitprovision/internal/provisioning"
	"github.com/temirov/gitprovision/internal/ui"
)

const (
	batchUseConstant                        = "repo-provision-batch"
	batchShortDescriptionConstant           = "Provision every repository listed in a manifest"
	batchLongDescriptionConstant            = "repo-provision-batch runs repo-provision for each manifest entry with bounded concurrency and reports every outcome."
	manifestFlagNameConstant                = "manifest"
	manifestFlagDescriptionConstant         = "Path to the YAML manifest listing repositories"
	concurrencyFlagNameConstant             = "concurrency"
	concurrencyFlagDescriptionConstant      = "Maximum number of repositories provisioned at once"
	batchUnexpectedArgumentsMessageConstant = "repo-provision-batch does not accept positional arguments"
	batchFailedTemplateConstant             = "repo-provision-batch failed: %w"
	batchPartialFailureTemplateConstant     = "repo-provision-batch: %d of %d repositories failed"
	batchEntryPartyErrorTemplateConstant    = "manifest entry %s: %w"
)

// BatchCommandBuilder assembles the repo-provision-batch command.
type BatchCommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	SettingsProvider      SettingsProvider
	Collaborators         dependencies.Collaborators
}

// Build constructs the repo-provision-batch command.
func (builder *BatchCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   batchUseConstant,
		Short: batchShortDescriptionConstant,
		Long:  batchLongDescriptionConstant,
		RunE:  builder.run,
	}

	command.Flags().String(manifestFlagNameConstant, "", manifestFlagDescriptionConstant)
	command.Flags().String(providerFlagNameConstant, "", providerFlagDescriptionConstant)
	command.Flags().Int(concurrencyFlagNameConstant, 0, concurrencyFlagDescriptionConstant)

	return command, nil
}

func (builder *BatchCommandBuilder) run(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errors.New(batchUnexpectedArgumentsMessageConstant)
	}

	configuration := resolveConfiguration(builder.ConfigurationProvider)
	manifestPath, _ := command.Flags().GetString(manifestFlagNameConstant)
	providerFlagValue, _ := command.Flags().GetString(providerFlagNameConstant)
	concurrency := configuration.Concurrency
	if command.Flags().Changed(concurrencyFlagNameConstant) {
		concurrency, _ = command.Flags().GetInt(concurrencyFlagNameConstant)
	}

	manifest, manifestError := provisioning.LoadManifest(dependencies.ExpandPath(manifestPath))
	if manifestError != nil {
		return fmt.Errorf(batchFailedTemplateConstant, manifestError)
	}
	identities, identitiesError := manifest.Identities()
	if identitiesError != nil {
		return fmt.Errorf(batchFailedTemplateConstant, identitiesError)
	}

	providerName := selectStringValue(providerFlagValue, selectStringValue(manifest.Provider, configuration.Provider))

	logger := resolveLogger(builder.LoggerProvider)
	workspace, workspaceError := builder.Collaborators.Resolve(logger, resolveSettings(builder.SettingsProvider))
	if workspaceError != nil {
		return fmt.Errorf(batchFailedTemplateConstant, workspaceError)
	}

	currentUser := actingUser(command)
	session, sessionError := workspace.Session(command.Context(), currentUser, providerName)
	if sessionError != nil {
		return fmt.Errorf(batchFailedTemplateConstant, sessionError)
	}

	requests := make([]provisioning.BatchRequest, 0, len(identities))
	for _, identity := range identities {
		owner, partyError := provisioning.ResolveParty(workspace.RecordStore, currentUser, identity.OwnerKind, identity.Owner)
		if partyError != nil {
			return fmt.Errorf(batchFailedTemplateConstant, fmt.Errorf(batchEntryPartyErrorTemplateConstant, identity.Name, partyError))
		}
		identity.Owner = owner
		requests = append(requests, provisioning.BatchRequest{
			Identity:   identity,
			Credential: session.Credential,
			Endpoint:   provisioning.ProviderEndpoint{BaseURL: session.Provider.URL},
		})
	}

	provisioner, provisionerError := provisioning.NewProvisioner(logger, workspace.APIClient, workspace.Clock)
	if provisionerError != nil {
		return provisionerError
	}
	batchProvisioner, batchError := provisioning.NewBatchProvisioner(logger, provisioner, concurrency)
	if batchError != nil {
		return batchError
	}

	formatter := ui.ResultFormatter{}
	failureCount := 0
	for _, outcome := range batchProvisioner.ProvisionAll(command.Context(), requests) {
		fmt.Fprint(command.OutOrStdout(), formatter.BatchOutcome(outcome))
		if outcome.Error != nil {
			failureCount++
		}
	}
	fmt.Fprint(command.OutOrStdout(), formatter.BatchSummary(len(requests)-failureCount, len(requests)))

	if failureCount > 0 {
		return fmt.Errorf(batchPartialFailureTemplateConstant, failureCount, len(requests))
	}
	return nil
}
