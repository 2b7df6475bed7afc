package dependencies

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/gitprovision/internal/credentials"
	"github.com/temirov/gitprovision/internal/gitapi"
)

const actingUserMissingMessageConstant = "no acting user configured; set common.acting_user or pass --user"

// ErrActingUserMissing indicates the command ran without an acting user.
var ErrActingUserMissing = errors.New(actingUserMissingMessageConstant)

// Collaborators holds optional injected collaborators. Zero values resolve to production defaults.
type Collaborators struct {
	RecordStore       RecordStore
	APIClient         gitapi.Sender
	TokenResolver     credentials.TokenResolver
	EnvironmentLookup credentials.EnvironmentLookup
	Clock             func() time.Time
}

// Workspace is the resolved set of collaborators for one command invocation.
type Workspace struct {
	RecordStore   RecordStore
	APIClient     gitapi.Sender
	Clock         func() time.Time
	logger        *zap.Logger
	collaborators Collaborators
}

// Resolve loads the record store and builds the API client described by settings.
func (collaborators Collaborators) Resolve(logger *zap.Logger, settings Settings) (Workspace, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	recordStore, storeError := ResolveRecordStore(collaborators.RecordStore, settings.RegistryPath)
	if storeError != nil {
		return Workspace{}, storeError
	}

	clock := collaborators.Clock
	if clock == nil {
		clock = time.Now
	}

	return Workspace{
		RecordStore:   recordStore,
		APIClient:     ResolveAPIClient(collaborators.APIClient, logger, settings.API),
		Clock:         clock,
		logger:        logger,
		collaborators: collaborators,
	}, nil
}

// Session resolves the acting user's git user, PAT, and provider.
func (workspace Workspace) Session(sessionContext context.Context, actingUser string, providerName string) (credentials.Session, error) {
	if len(actingUser) == 0 {
		return credentials.Session{}, ErrActingUserMissing
	}
	resolver := ResolveSessionResolver(workspace.logger, workspace.RecordStore, workspace.collaborators.TokenResolver, workspace.collaborators.EnvironmentLookup)
	return resolver.Resolve(sessionContext, actingUser, providerName)
}
