package utils

import (
	"context"
	"strings"
)

const (
	configurationFilePathContextKeyConstant = commandContextKey("configurationFilePath")
	actingUserContextKeyConstant            = commandContextKey("actingUser")
)

type commandContextKey string

// CommandContextAccessor stores and reads per-invocation values on command contexts.
type CommandContextAccessor struct{}

// NewCommandContextAccessor constructs a CommandContextAccessor.
func NewCommandContextAccessor() CommandContextAccessor {
	return CommandContextAccessor{}
}

// WithConfigurationFilePath records the configuration file that was loaded.
func (accessor CommandContextAccessor) WithConfigurationFilePath(parentContext context.Context, configurationFilePath string) context.Context {
	return context.WithValue(nonNilContext(parentContext), configurationFilePathContextKeyConstant, configurationFilePath)
}

// ConfigurationFilePath returns the recorded configuration file path.
func (accessor CommandContextAccessor) ConfigurationFilePath(executionContext context.Context) (string, bool) {
	return accessor.stringValue(executionContext, configurationFilePathContextKeyConstant)
}

// WithActingUser records the application user on whose behalf the command runs.
func (accessor CommandContextAccessor) WithActingUser(parentContext context.Context, actingUser string) context.Context {
	return context.WithValue(nonNilContext(parentContext), actingUserContextKeyConstant, strings.TrimSpace(actingUser))
}

// ActingUser returns the recorded acting user. Blank values report false.
func (accessor CommandContextAccessor) ActingUser(executionContext context.Context) (string, bool) {
	actingUser, found := accessor.stringValue(executionContext, actingUserContextKeyConstant)
	if !found || len(actingUser) == 0 {
		return "", false
	}
	return actingUser, true
}

func (accessor CommandContextAccessor) stringValue(executionContext context.Context, key commandContextKey) (string, bool) {
	if executionContext == nil {
		return "", false
	}
	value, available := executionContext.Value(key).(string)
	return value, available
}

func nonNilContext(parentContext context.Context) context.Context {
	if parentContext == nil {
		return context.Background()
	}
	return parentContext
}
