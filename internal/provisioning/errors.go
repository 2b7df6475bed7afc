package provisioning

import (
	"errors"
	"fmt"
)

const (
	errorKindInvalidNameMessageConstant       = "invalid repository name"
	errorKindMissingInputMessageConstant      = "missing input"
	errorKindCredentialExpiredMessageConstant = "credential expired"
	errorKindUnauthorizedMessageConstant      = "unauthorized"
	errorKindRemoteRejectedMessageConstant    = "remote rejected request"
	errorKindNetworkFailureMessageConstant    = "network failure"
	unknownRemoteErrorMessageConstant         = "Unknown error"
	provisionErrorTemplateConstant            = "%s: %s"
	provisionErrorWithStatusTemplateConstant  = "%s (status %d): %s"
	provisionErrorWithCauseTemplateConstant   = "%s: %s: %v"
)

// Error kinds. Every ProvisionError matches exactly one of these through errors.Is.
var (
	ErrInvalidName       = errors.New(errorKindInvalidNameMessageConstant)
	ErrMissingInput      = errors.New(errorKindMissingInputMessageConstant)
	ErrCredentialExpired = errors.New(errorKindCredentialExpiredMessageConstant)
	ErrUnauthorized      = errors.New(errorKindUnauthorizedMessageConstant)
	ErrRemoteRejected    = errors.New(errorKindRemoteRejectedMessageConstant)
	ErrNetworkFailure    = errors.New(errorKindNetworkFailureMessageConstant)
)

// ProvisionError is the single error type returned by Provision.
type ProvisionError struct {
	Kind       error
	Message    string
	StatusCode int
	Cause      error
}

// Error describes the failure.
func (provisionError ProvisionError) Error() string {
	switch {
	case provisionError.Cause != nil:
		return fmt.Sprintf(provisionErrorWithCauseTemplateConstant, provisionError.Kind, provisionError.Message, provisionError.Cause)
	case provisionError.StatusCode > 0:
		return fmt.Sprintf(provisionErrorWithStatusTemplateConstant, provisionError.Kind, provisionError.StatusCode, provisionError.Message)
	default:
		return fmt.Sprintf(provisionErrorTemplateConstant, provisionError.Kind, provisionError.Message)
	}
}

// Is matches the error kind sentinel.
func (provisionError ProvisionError) Is(target error) bool {
	return target != nil && target == provisionError.Kind
}

// Unwrap exposes the underlying cause, such as a transport or context error.
func (provisionError ProvisionError) Unwrap() error {
	return provisionError.Cause
}

// RemoteMessage returns the message reported by the remote for rejected requests.
func (provisionError ProvisionError) RemoteMessage() string {
	if provisionError.Kind != ErrRemoteRejected {
		return ""
	}
	return provisionError.Message
}

func newProvisionError(kind error, message string) ProvisionError {
	return ProvisionError{Kind: kind, Message: message}
}
