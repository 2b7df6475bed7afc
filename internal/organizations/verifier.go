package organizations

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/gitprovision/internal/gitapi"
	"github.com/temirov/gitprovision/internal/registry"
)

const (
	gitHubOrganizationsSegmentConstant  = "orgs"
	gitLabGroupsSegmentConstant         = "groups"
	organizationVerifiedMessageConstant = "organization verified"
	logFieldOrganizationConstant        = "organization"
	logFieldProviderConstant            = "provider"
	logFieldCheckURLConstant            = "check_url"
)

// APIClient sends REST requests. *gitapi.Client satisfies it.
type APIClient interface {
	Send(requestContext context.Context, request gitapi.Request) (gitapi.Response, error)
}

// Verifier confirms that an organization is publicly visible on its provider.
type Verifier struct {
	apiClient APIClient
	logger    *zap.Logger
}

// NewVerifier builds a Verifier.
func NewVerifier(logger *zap.Logger, apiClient APIClient) (*Verifier, error) {
	if apiClient == nil {
		return nil, ErrAPIClientNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Verifier{apiClient: apiClient, logger: logger}, nil
}

// Verify issues an unauthenticated lookup of the organization (GitHub) or group (GitLab).
func (verifier *Verifier) Verify(verificationContext context.Context, provider registry.Provider, organization string) error {
	trimmedOrganization := strings.TrimSpace(organization)
	if len(trimmedOrganization) == 0 {
		return ErrOrganizationMissing
	}

	checkURL, checkURLError := organizationCheckURL(provider, trimmedOrganization)
	if checkURLError != nil {
		return checkURLError
	}

	response, sendError := verifier.apiClient.Send(verificationContext, gitapi.Request{Method: http.MethodGet, URL: checkURL})
	if sendError != nil {
		return VerificationError{Organization: trimmedOrganization, Cause: sendError}
	}

	if !response.Successful() {
		return OrganizationNotFoundError{Organization: trimmedOrganization, Provider: provider.Name, StatusCode: response.StatusCode}
	}

	verifier.logger.Info(
		organizationVerifiedMessageConstant,
		zap.String(logFieldOrganizationConstant, trimmedOrganization),
		zap.String(logFieldProviderConstant, provider.Name),
		zap.String(logFieldCheckURLConstant, checkURL),
	)

	return nil
}

func organizationCheckURL(provider registry.Provider, organization string) (string, error) {
	baseURL, baseURLError := gitapi.NormalizeBaseURL(provider.URL)
	if baseURLError != nil {
		return "", InvalidProviderEndpointError{ProviderURL: provider.URL, Cause: baseURLError}
	}

	switch provider.ResolvedKind() {
	case registry.ProviderKindGitHub:
		return gitapi.JoinPath(baseURL, gitHubOrganizationsSegmentConstant, organization), nil
	case registry.ProviderKindGitLab:
		return gitapi.JoinPath(baseURL, gitLabGroupsSegmentConstant, organization), nil
	default:
		return "", UnsupportedProviderError{ProviderURL: baseURL}
	}
}
