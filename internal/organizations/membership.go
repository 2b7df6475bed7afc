package organizations

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/gitprovision/internal/credentials"
	"github.com/temirov/gitprovision/internal/gitapi"
)

const (
	userSegmentConstant                = "user"
	membershipConfirmedMessageConstant = "organization membership confirmed"
	logFieldGitUserConstant            = "git_user"
)

type organizationPayload struct {
	Login string `json:"login"`
	Name  string `json:"name"`
}

// MembershipChecker confirms that the session's git user belongs to an organization.
type MembershipChecker struct {
	apiClient APIClient
	clock     func() time.Time
	logger    *zap.Logger
}

// NewMembershipChecker builds a MembershipChecker. A nil clock uses time.Now.
func NewMembershipChecker(logger *zap.Logger, apiClient APIClient, clock func() time.Time) (*MembershipChecker, error) {
	if apiClient == nil {
		return nil, ErrAPIClientNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = time.Now
	}
	return &MembershipChecker{apiClient: apiClient, clock: clock, logger: logger}, nil
}

// Check lists the organizations visible to the session's PAT and requires organization among them.
// Entries match on login, falling back to name for providers that only report names.
func (checker *MembershipChecker) Check(checkContext context.Context, session credentials.Session, organization string) ([]string, error) {
	trimmedOrganization := strings.TrimSpace(organization)
	if len(trimmedOrganization) == 0 {
		return nil, ErrOrganizationMissing
	}
	if session.Credential.Empty() {
		return nil, ErrTokenMissing
	}
	if session.Credential.Expired(checker.clock()) {
		return nil, ErrCredentialExpired
	}

	baseURL, baseURLError := gitapi.NormalizeBaseURL(session.Provider.URL)
	if baseURLError != nil {
		return nil, InvalidProviderEndpointError{ProviderURL: session.Provider.URL, Cause: baseURLError}
	}

	response, sendError := checker.apiClient.Send(checkContext, gitapi.Request{
		Method: http.MethodGet,
		URL:    gitapi.JoinPath(baseURL, userSegmentConstant, gitHubOrganizationsSegmentConstant),
		Token:  session.Credential.Token,
	})
	if sendError != nil {
		return nil, VerificationError{Organization: trimmedOrganization, Cause: sendError}
	}
	if !response.Successful() {
		return nil, MembershipLookupError{Provider: session.Provider.Name, StatusCode: response.StatusCode}
	}

	var payloads []organizationPayload
	if decodeError := response.Decode(&payloads); decodeError != nil {
		return nil, VerificationError{Organization: trimmedOrganization, Cause: decodeError}
	}

	organizationNames := make([]string, 0, len(payloads))
	for _, payload := range payloads {
		organizationName := payload.Login
		if len(organizationName) == 0 {
			organizationName = payload.Name
		}
		if len(organizationName) > 0 {
			organizationNames = append(organizationNames, organizationName)
		}
	}

	for _, organizationName := range organizationNames {
		if organizationName == trimmedOrganization {
			checker.logger.Info(
				membershipConfirmedMessageConstant,
				zap.String(logFieldOrganizationConstant, trimmedOrganization),
				zap.String(logFieldGitUserConstant, session.GitUser.Name),
			)
			return organizationNames, nil
		}
	}

	return organizationNames, OrganizationNotPermittedError{Organization: trimmedOrganization, Available: organizationNames}
}
