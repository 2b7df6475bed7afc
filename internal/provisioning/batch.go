package provisioning

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

const (
	provisionerMissingMessageConstant = "repository provisioner not configured"
	batchCancelledMessageConstant     = "provisioning cancelled before it started"
	batchStartedMessageConstant       = "batch provisioning started"
	batchCompletedMessageConstant     = "batch provisioning completed"
	logFieldRequestCountConstant      = "request_count"
	logFieldConcurrencyConstant       = "concurrency"
	logFieldFailureCountConstant      = "failure_count"
	defaultBatchConcurrencyConstant   = 4
)

// ErrProvisionerNotConfigured indicates NewBatchProvisioner was called without a provisioner.
var ErrProvisionerNotConfigured = errors.New(provisionerMissingMessageConstant)

// RepositoryProvisioner runs one provisioning invocation. *Provisioner satisfies it.
type RepositoryProvisioner interface {
	Provision(provisionContext context.Context, identity RepositoryIdentity, credential Credential, endpoint ProviderEndpoint) (ProvisionResult, error)
}

// BatchRequest is one independent provisioning invocation.
type BatchRequest struct {
	Identity   RepositoryIdentity
	Credential Credential
	Endpoint   ProviderEndpoint
}

// BatchOutcome pairs a request with its result or error.
type BatchOutcome struct {
	Request BatchRequest
	Result  ProvisionResult
	Error   error
}

// BatchProvisioner runs independent invocations with bounded concurrency.
type BatchProvisioner struct {
	provisioner RepositoryProvisioner
	concurrency int64
	logger      *zap.Logger
}

// NewBatchProvisioner builds a BatchProvisioner. Non-positive concurrency uses a default of four.
func NewBatchProvisioner(logger *zap.Logger, provisioner RepositoryProvisioner, concurrency int) (*BatchProvisioner, error) {
	if provisioner == nil {
		return nil, ErrProvisionerNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency <= 0 {
		concurrency = defaultBatchConcurrencyConstant
	}

	return &BatchProvisioner{provisioner: provisioner, concurrency: int64(concurrency), logger: logger}, nil
}

// ProvisionAll returns one outcome per request, in request order.
// A failed invocation does not stop the others.
func (batchProvisioner *BatchProvisioner) ProvisionAll(batchContext context.Context, requests []BatchRequest) []BatchOutcome {
	outcomes := make([]BatchOutcome, len(requests))
	pool := semaphore.NewWeighted(batchProvisioner.concurrency)

	batchProvisioner.logger.Info(
		batchStartedMessageConstant,
		zap.Int(logFieldRequestCountConstant, len(requests)),
		zap.Int64(logFieldConcurrencyConstant, batchProvisioner.concurrency),
	)

	var waitGroup sync.WaitGroup
	for requestIndex, request := range requests {
		outcomes[requestIndex].Request = request

		if acquireError := pool.Acquire(batchContext, 1); acquireError != nil {
			outcomes[requestIndex].Error = ProvisionError{Kind: ErrNetworkFailure, Message: batchCancelledMessageConstant, Cause: acquireError}
			continue
		}

		waitGroup.Add(1)
		go func(outcomeIndex int, batchRequest BatchRequest) {
			defer waitGroup.Done()
			defer pool.Release(1)

			result, provisionError := batchProvisioner.provisioner.Provision(batchContext, batchRequest.Identity, batchRequest.Credential, batchRequest.Endpoint)
			outcomes[outcomeIndex].Result = result
			outcomes[outcomeIndex].Error = provisionError
		}(requestIndex, request)
	}
	waitGroup.Wait()

	failureCount := 0
	for _, outcome := range outcomes {
		if outcome.Error != nil {
			failureCount++
		}
	}

	batchProvisioner.logger.Info(
		batchCompletedMessageConstant,
		zap.Int(logFieldRequestCountConstant, len(requests)),
		zap.Int(logFieldFailureCountConstant, failureCount),
	)

	return outcomes
}
