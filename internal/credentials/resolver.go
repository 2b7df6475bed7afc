package credentials

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/gitprovision/internal/registry"
)

const (
	gitUserNotFoundMessageConstant              = "no git user mapping found for current user"
	gitUserMismatchMessageConstant              = "git user belongs to a different user"
	tokenNotFoundMessageConstant                = "no PAT found for the current git user"
	providerNotFoundMessageConstant             = "no URL configured for git provider"
	actingUserMissingMessageConstant            = "acting user must be provided"
	registryMissingMessageConstant              = "registry not configured"
	gitUserLookupTemplateConstant               = "%w: %s"
	gitUserMismatchTemplateConstant             = "%w: please create the git user for %s"
	providerLookupTemplateConstant              = "%w: %s"
	tokenResolutionTemplateConstant             = "%w: %s: %v"
	tokenSourceInvalidTemplateConstant          = "%w: invalid token source for %s: %v"
	tokenMissingTemplateConstant                = "%w: %s"
	expiryParseTemplateConstant                 = "unable to read PAT expiry: %w"
	sessionResolvedMessageConstant              = "git user session resolved"
	logFieldActingUserConstant                  = "acting_user"
	logFieldGitUserConstant                     = "git_user"
	logFieldProviderConstant                    = "provider"
	logFieldTokenSourceTypeConstant             = "token_source_type"
	logFieldExpiresAtConstant                   = "expires_at"
	environmentFallbackSourceConstant           = "environment_fallback"
	environmentFallbackReferenceMessageConstant = "no token source configured and no provider token variable set"
)

var (
	// ErrGitUserNotFound indicates the acting user has no git user record.
	ErrGitUserNotFound = errors.New(gitUserNotFoundMessageConstant)
	// ErrGitUserMismatch indicates the git user record belongs to someone else.
	ErrGitUserMismatch = errors.New(gitUserMismatchMessageConstant)
	// ErrTokenNotFound indicates no PAT could be resolved for the git user.
	ErrTokenNotFound = errors.New(tokenNotFoundMessageConstant)
	// ErrProviderNotFound indicates the named provider has no configured URL.
	ErrProviderNotFound = errors.New(providerNotFoundMessageConstant)
	// ErrActingUserMissing indicates the caller did not identify the acting user.
	ErrActingUserMissing = errors.New(actingUserMissingMessageConstant)
	// ErrRegistryMissing indicates the resolver was built without a registry.
	ErrRegistryMissing = errors.New(registryMissingMessageConstant)
)

// RecordStore is the registry subset needed to build sessions.
type RecordStore interface {
	GitUserForUser(user string) (registry.GitUser, error)
	Provider(name string) (registry.Provider, error)
}

// Session is everything needed to call a provider API on behalf of the acting user.
type Session struct {
	ActingUser string
	GitUser    registry.GitUser
	Provider   registry.Provider
	Credential Credential
}

// Resolver turns an acting user and provider name into a Session.
type Resolver struct {
	recordStore       RecordStore
	tokenResolver     TokenResolver
	environmentLookup EnvironmentLookup
	logger            *zap.Logger
}

// NewResolver builds a Resolver. Nil token resolvers and environment lookups fall back to the process environment.
func NewResolver(logger *zap.Logger, recordStore RecordStore, tokenResolver TokenResolver, environmentLookup EnvironmentLookup) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if environmentLookup == nil {
		environmentLookup = os.LookupEnv
	}
	if tokenResolver == nil {
		tokenResolver = NewTokenResolver(environmentLookup, nil)
	}

	return &Resolver{
		recordStore:       recordStore,
		tokenResolver:     tokenResolver,
		environmentLookup: environmentLookup,
		logger:            logger,
	}
}

// Resolve looks up the acting user's git user, confirms ownership, resolves its PAT, and finds the provider URL.
// Expiry is attached to the credential but not enforced here; callers decide when an expired token is fatal.
func (resolver *Resolver) Resolve(resolutionContext context.Context, actingUser string, providerName string) (Session, error) {
	if resolver.recordStore == nil {
		return Session{}, ErrRegistryMissing
	}

	trimmedActingUser := strings.TrimSpace(actingUser)
	if len(trimmedActingUser) == 0 {
		return Session{}, ErrActingUserMissing
	}

	gitUser, lookupError := resolver.recordStore.GitUserForUser(trimmedActingUser)
	if lookupError != nil {
		return Session{}, fmt.Errorf(gitUserLookupTemplateConstant, ErrGitUserNotFound, trimmedActingUser)
	}

	if gitUser.User != trimmedActingUser {
		return Session{}, fmt.Errorf(gitUserMismatchTemplateConstant, ErrGitUserMismatch, trimmedActingUser)
	}

	expiresAt, expiryError := gitUser.Expiry()
	if expiryError != nil {
		return Session{}, fmt.Errorf(expiryParseTemplateConstant, expiryError)
	}

	token, tokenSourceType, tokenError := resolver.resolveToken(resolutionContext, gitUser)
	if tokenError != nil {
		return Session{}, tokenError
	}

	provider, providerError := resolver.recordStore.Provider(providerName)
	if providerError != nil {
		return Session{}, fmt.Errorf(providerLookupTemplateConstant, ErrProviderNotFound, providerName)
	}

	resolver.logger.Debug(
		sessionResolvedMessageConstant,
		zap.String(logFieldActingUserConstant, trimmedActingUser),
		zap.String(logFieldGitUserConstant, gitUser.Name),
		zap.String(logFieldProviderConstant, provider.Name),
		zap.String(logFieldTokenSourceTypeConstant, tokenSourceType),
		zap.Time(logFieldExpiresAtConstant, expiresAt),
	)

	return Session{
		ActingUser: trimmedActingUser,
		GitUser:    gitUser,
		Provider:   provider,
		Credential: Credential{Token: token, ExpiresAt: expiresAt},
	}, nil
}

func (resolver *Resolver) resolveToken(resolutionContext context.Context, gitUser registry.GitUser) (string, string, error) {
	if len(strings.TrimSpace(gitUser.PATSource)) == 0 {
		token, found := ResolveEnvironmentToken(resolver.environmentLookup)
		if !found {
			return "", "", fmt.Errorf(tokenMissingTemplateConstant, ErrTokenNotFound, environmentFallbackReferenceMessageConstant)
		}
		return token, environmentFallbackSourceConstant, nil
	}

	tokenSource, parseError := ParseTokenSource(gitUser.PATSource)
	if parseError != nil {
		return "", "", fmt.Errorf(tokenSourceInvalidTemplateConstant, ErrTokenNotFound, gitUser.Name, parseError)
	}

	token, resolutionError := resolver.tokenResolver.ResolveToken(resolutionContext, tokenSource)
	if resolutionError != nil {
		return "", "", fmt.Errorf(tokenResolutionTemplateConstant, ErrTokenNotFound, gitUser.Name, resolutionError)
	}

	return token, string(tokenSource.Type), nil
}
