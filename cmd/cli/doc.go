// Package cli constructs the gitprovision command-line interface, wiring the
// Cobra command hierarchy, configuration loader, and structured logging.
// Commands resolve the registry, personal access tokens, and the provider API
// client through internal/dependencies so tests can inject collaborators.
package cli
