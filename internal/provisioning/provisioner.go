package provisioning

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/temirov/gitprovision/internal/gitapi"
)

const (
	apiClientMissingMessageConstant     = "api client not configured"
	nameRequiredMessageConstant         = "repository name must be provided"
	nameLowercaseMessageConstant        = "repository name must use only lowercase letters"
	nameWhitespaceMessageConstant       = "repository name must not have leading or trailing whitespace"
	ownerRequiredMessageConstant        = "repository owner must be provided"
	tokenRequiredMessageConstant        = "credential token must be provided"
	endpointInvalidMessageConstant      = "provider endpoint must be a non-empty http(s) url"
	credentialExpiredMessageConstant    = "personal access token expired; renew it"
	unauthorizedMessageConstant         = "invalid or unauthorized personal access token"
	existenceCheckFailedMessageConstant = "repository existence check failed"
	creationFailedMessageConstant       = "repository creation failed"
	provisionStartedMessageConstant     = "provisioning repository"
	repositoryAdoptedMessageConstant    = "repository already exists; adopting remote metadata"
	repositoryNotFoundMessageConstant   = "repository not found"
	repositoryCreatedMessageConstant    = "repository created"
	creatingRepositoryMessageConstant   = "creating repository"
	provisionFailedMessageConstant      = "repository provisioning failed"
	logFieldProvisionIdentifierConstant = "provision_id"
	logFieldOwnerConstant               = "owner"
	logFieldRepositoryConstant          = "repository"
	logFieldOwnerKindConstant           = "owner_kind"
	logFieldRequestedVisibilityConstant = "requested_visibility"
	logFieldVisibilityConstant          = "visibility"
	logFieldRemoteURLConstant           = "remote_url"
	logFieldStatusCodeConstant          = "status_code"
	logFieldEndpointConstant            = "endpoint"
	logFieldErrorKindConstant           = "error_kind"
	logFieldCreationEndpointConstant    = "creation_endpoint"
	visibilityOverriddenMessageConstant = "existing repository visibility differs from requested visibility"
	logFieldExistingVisibilityConstant  = "existing_visibility"
)

// ErrAPIClientNotConfigured indicates NewProvisioner was called without an API client.
var ErrAPIClientNotConfigured = errors.New(apiClientMissingMessageConstant)

// APIClient sends REST requests. *gitapi.Client satisfies it.
type APIClient interface {
	Send(requestContext context.Context, request gitapi.Request) (gitapi.Response, error)
}

// Clock returns the current time.
type Clock func() time.Time

// Provisioner adopts or creates remote repositories.
type Provisioner struct {
	apiClient APIClient
	clock     Clock
	logger    *zap.Logger
}

type repositoryPayload struct {
	HTMLURL string `json:"html_url"`
	Private bool   `json:"private"`
	Message string `json:"message"`
}

type creationPayload struct {
	Name    string `json:"name"`
	Private bool   `json:"private"`
}

// NewProvisioner builds a Provisioner. A nil clock uses time.Now and a nil logger discards output.
func NewProvisioner(logger *zap.Logger, apiClient APIClient, clock Clock) (*Provisioner, error) {
	if apiClient == nil {
		return nil, ErrAPIClientNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = time.Now
	}

	return &Provisioner{apiClient: apiClient, clock: clock, logger: logger}, nil
}

// Provision returns the existing repository when the provider already has it and creates it otherwise.
// When the repository exists its remote visibility is reported, even if it differs from identity.Visibility.
func (provisioner *Provisioner) Provision(provisionContext context.Context, identity RepositoryIdentity, credential Credential, endpoint ProviderEndpoint) (ProvisionResult, error) {
	normalizedIdentity, baseURL, validationError := provisioner.validate(identity, credential, endpoint)

	logger := provisioner.logger.With(
		zap.String(logFieldProvisionIdentifierConstant, uuid.NewString()),
		zap.String(logFieldOwnerConstant, normalizedIdentity.Owner),
		zap.String(logFieldRepositoryConstant, normalizedIdentity.Name),
		zap.String(logFieldOwnerKindConstant, string(normalizedIdentity.OwnerKind)),
	)

	if validationError != nil {
		logProvisionFailure(logger, validationError)
		return ProvisionResult{}, validationError
	}

	logger.Info(
		provisionStartedMessageConstant,
		zap.String(logFieldEndpointConstant, baseURL),
		zap.String(logFieldRequestedVisibilityConstant, string(normalizedIdentity.Visibility)),
	)

	existingResult, exists, lookupError := provisioner.lookupExisting(provisionContext, logger, normalizedIdentity, credential, baseURL)
	if lookupError != nil {
		logProvisionFailure(logger, lookupError)
		return ProvisionResult{}, lookupError
	}
	if exists {
		if existingResult.Visibility != normalizedIdentity.Visibility {
			logger.Warn(
				visibilityOverriddenMessageConstant,
				zap.String(logFieldRequestedVisibilityConstant, string(normalizedIdentity.Visibility)),
				zap.String(logFieldExistingVisibilityConstant, string(existingResult.Visibility)),
			)
		}
		logger.Info(
			repositoryAdoptedMessageConstant,
			zap.String(logFieldRemoteURLConstant, existingResult.RemoteURL),
			zap.String(logFieldVisibilityConstant, string(existingResult.Visibility)),
		)
		return existingResult, nil
	}

	createdResult, creationError := provisioner.create(provisionContext, logger, normalizedIdentity, credential, baseURL)
	if creationError != nil {
		logProvisionFailure(logger, creationError)
		return ProvisionResult{}, creationError
	}

	logger.Info(
		repositoryCreatedMessageConstant,
		zap.String(logFieldRemoteURLConstant, createdResult.RemoteURL),
		zap.String(logFieldVisibilityConstant, string(createdResult.Visibility)),
	)

	return createdResult, nil
}

func (provisioner *Provisioner) validate(identity RepositoryIdentity, credential Credential, endpoint ProviderEndpoint) (RepositoryIdentity, string, error) {
	normalizedIdentity := identity
	normalizedIdentity.Owner = strings.TrimSpace(identity.Owner)
	normalizedIdentity.Name = strings.TrimSpace(identity.Name)
	if normalizedIdentity.OwnerKind != OwnerKindOrganization {
		normalizedIdentity.OwnerKind = OwnerKindUser
	}
	if normalizedIdentity.Visibility != VisibilityPrivate {
		normalizedIdentity.Visibility = VisibilityPublic
	}

	if len(normalizedIdentity.Name) == 0 {
		return normalizedIdentity, "", newProvisionError(ErrInvalidName, nameRequiredMessageConstant)
	}
	if normalizedIdentity.Name != identity.Name {
		return normalizedIdentity, "", newProvisionError(ErrInvalidName, nameWhitespaceMessageConstant)
	}
	if normalizedIdentity.Name != strings.ToLower(normalizedIdentity.Name) {
		return normalizedIdentity, "", newProvisionError(ErrInvalidName, nameLowercaseMessageConstant)
	}

	if len(normalizedIdentity.Owner) == 0 {
		return normalizedIdentity, "", newProvisionError(ErrMissingInput, ownerRequiredMessageConstant)
	}

	baseURL, endpointError := gitapi.NormalizeBaseURL(endpoint.BaseURL)
	if endpointError != nil {
		return normalizedIdentity, "", ProvisionError{Kind: ErrMissingInput, Message: endpointInvalidMessageConstant, Cause: endpointError}
	}

	if credential.Empty() {
		return normalizedIdentity, "", newProvisionError(ErrMissingInput, tokenRequiredMessageConstant)
	}

	if credential.Expired(provisioner.clock()) {
		return normalizedIdentity, "", newProvisionError(ErrCredentialExpired, credentialExpiredMessageConstant)
	}

	return normalizedIdentity, baseURL, nil
}

func (provisioner *Provisioner) lookupExisting(provisionContext context.Context, logger *zap.Logger, identity RepositoryIdentity, credential Credential, baseURL string) (ProvisionResult, bool, error) {
	response, sendError := provisioner.apiClient.Send(provisionContext, gitapi.Request{
		Method: http.MethodGet,
		URL:    gitapi.JoinPath(baseURL, existencePathSegments(identity)...),
		Token:  credential.Token,
	})
	if sendError != nil {
		return ProvisionResult{}, false, ProvisionError{Kind: ErrNetworkFailure, Message: existenceCheckFailedMessageConstant, Cause: sendError}
	}

	if response.Unauthorized() {
		return ProvisionResult{}, false, ProvisionError{Kind: ErrUnauthorized, Message: unauthorizedMessageConstant, StatusCode: response.StatusCode}
	}

	if response.Successful() {
		var existing repositoryPayload
		if decodeError := response.Decode(&existing); decodeError == nil && len(existing.HTMLURL) > 0 {
			return ProvisionResult{
				RemoteURL:  existing.HTMLURL,
				Visibility: visibilityFromPrivateFlag(existing.Private),
				Outcome:    OutcomeAlreadyExisted,
			}, true, nil
		}
	}

	logger.Debug(repositoryNotFoundMessageConstant, zap.Int(logFieldStatusCodeConstant, response.StatusCode))

	return ProvisionResult{}, false, nil
}

func (provisioner *Provisioner) create(provisionContext context.Context, logger *zap.Logger, identity RepositoryIdentity, credential Credential, baseURL string) (ProvisionResult, error) {
	creationURL := gitapi.JoinPath(baseURL, creationPathSegments(identity)...)
	logger.Debug(creatingRepositoryMessageConstant, zap.String(logFieldCreationEndpointConstant, creationURL))

	response, sendError := provisioner.apiClient.Send(provisionContext, gitapi.Request{
		Method: http.MethodPost,
		URL:    creationURL,
		Token:  credential.Token,
		Payload: creationPayload{
			Name:    identity.Name,
			Private: identity.Visibility == VisibilityPrivate,
		},
	})
	if sendError != nil {
		return ProvisionResult{}, ProvisionError{Kind: ErrNetworkFailure, Message: creationFailedMessageConstant, Cause: sendError}
	}

	if response.Unauthorized() {
		return ProvisionResult{}, ProvisionError{Kind: ErrUnauthorized, Message: unauthorizedMessageConstant, StatusCode: response.StatusCode}
	}

	var created repositoryPayload
	decodeError := response.Decode(&created)
	if response.Successful() && decodeError == nil && len(created.HTMLURL) > 0 {
		return ProvisionResult{
			RemoteURL:  created.HTMLURL,
			Visibility: identity.Visibility,
			Outcome:    OutcomeCreated,
		}, nil
	}

	remoteMessage := strings.TrimSpace(created.Message)
	if decodeError != nil || len(remoteMessage) == 0 {
		remoteMessage = unknownRemoteErrorMessageConstant
	}

	return ProvisionResult{}, ProvisionError{Kind: ErrRemoteRejected, Message: remoteMessage, StatusCode: response.StatusCode}
}

func logProvisionFailure(logger *zap.Logger, failure error) {
	var provisionError ProvisionError
	if errors.As(failure, &provisionError) {
		logger.Warn(provisionFailedMessageConstant, zap.String(logFieldErrorKindConstant, provisionError.Kind.Error()), zap.Error(failure))
		return
	}
	logger.Warn(provisionFailedMessageConstant, zap.Error(failure))
}
