package organizations

import (
	"errors"
	"fmt"
)

const (
	unsupportedProviderTemplateConstant      = "unsupported git provider API URL: %s"
	invalidProviderEndpointTemplateConstant  = "invalid git provider API URL %q: %v"
	organizationNotFoundTemplateConstant     = "organization %q not found or is not publicly accessible on %s (status %d)"
	membershipLookupTemplateConstant         = "failed to fetch organizations from %s (status %d); check the PAT or provider"
	organizationNotPermittedTemplateConstant = "invalid organization %q for the selected git provider"
	verificationFailedTemplateConstant       = "error while validating organization %q: %v"
	organizationMissingMessageConstant       = "organization name must be provided"
	credentialExpiredMessageConstant         = "personal access token expired; renew it"
	tokenMissingMessageConstant              = "personal access token must be provided"
	apiClientMissingMessageConstant          = "api client not configured"
)

var (
	// ErrOrganizationMissing indicates an empty organization name.
	ErrOrganizationMissing = errors.New(organizationMissingMessageConstant)
	// ErrCredentialExpired indicates the membership lookup was attempted with an expired PAT.
	ErrCredentialExpired = errors.New(credentialExpiredMessageConstant)
	// ErrTokenMissing indicates the membership lookup was attempted without a PAT.
	ErrTokenMissing = errors.New(tokenMissingMessageConstant)
	// ErrAPIClientNotConfigured indicates a constructor received a nil API client.
	ErrAPIClientNotConfigured = errors.New(apiClientMissingMessageConstant)
)

// UnsupportedProviderError reports a provider whose API dialect cannot be determined.
type UnsupportedProviderError struct {
	ProviderURL string
}

// Error describes the unsupported provider.
func (unsupportedError UnsupportedProviderError) Error() string {
	return fmt.Sprintf(unsupportedProviderTemplateConstant, unsupportedError.ProviderURL)
}

// InvalidProviderEndpointError reports a provider whose API URL is not an absolute http(s) URL.
type InvalidProviderEndpointError struct {
	ProviderURL string
	Cause       error
}

// Error describes the malformed endpoint.
func (endpointError InvalidProviderEndpointError) Error() string {
	return fmt.Sprintf(invalidProviderEndpointTemplateConstant, endpointError.ProviderURL, endpointError.Cause)
}

// Unwrap exposes the underlying cause.
func (endpointError InvalidProviderEndpointError) Unwrap() error {
	return endpointError.Cause
}

// OrganizationNotFoundError reports a non-2xx response to the public organization lookup.
type OrganizationNotFoundError struct {
	Organization string
	Provider     string
	StatusCode   int
}

// Error describes the missing organization.
func (notFoundError OrganizationNotFoundError) Error() string {
	return fmt.Sprintf(organizationNotFoundTemplateConstant, notFoundError.Organization, notFoundError.Provider, notFoundError.StatusCode)
}

// VerificationError wraps transport failures during organization checks.
type VerificationError struct {
	Organization string
	Cause        error
}

// Error describes the failure.
func (verificationError VerificationError) Error() string {
	return fmt.Sprintf(verificationFailedTemplateConstant, verificationError.Organization, verificationError.Cause)
}

// Unwrap exposes the underlying cause.
func (verificationError VerificationError) Unwrap() error {
	return verificationError.Cause
}

// MembershipLookupError reports a non-2xx response when listing the user's organizations.
type MembershipLookupError struct {
	Provider   string
	StatusCode int
}

// Error describes the lookup failure.
func (lookupError MembershipLookupError) Error() string {
	return fmt.Sprintf(membershipLookupTemplateConstant, lookupError.Provider, lookupError.StatusCode)
}

// OrganizationNotPermittedError reports an organization the user does not belong to.
type OrganizationNotPermittedError struct {
	Organization string
	Available    []string
}

// Error describes the rejected organization.
func (notPermittedError OrganizationNotPermittedError) Error() string {
	return fmt.Sprintf(organizationNotPermittedTemplateConstant, notPermittedError.Organization)
}
