package registry

import (
	"errors"
	"fmt"
)

const (
	recordNotFoundMessageConstant        = "record not found"
	recordNotFoundTemplateConstant       = "%s %q not found"
	duplicateRecordTemplateConstant      = "duplicate %s %q"
	recordKindProviderConstant           = "git provider"
	recordKindGitUserConstant            = "git user"
	recordKindGitUserForUserConstant     = "git user for user"
	recordKindRepositoryConstant         = "git repo"
	registryReadErrorTemplateConstant    = "unable to read registry %s: %w"
	registryParseErrorTemplateConstant   = "unable to parse registry %s: %w"
	registryInvalidErrorTemplateConstant = "invalid registry %s: %w"
	registryPathMissingMessageConstant   = "registry path must be provided"
)

// ErrRecordNotFound is matched by every RecordNotFoundError.
var ErrRecordNotFound = errors.New(recordNotFoundMessageConstant)

// RecordNotFoundError reports a failed lookup.
type RecordNotFoundError struct {
	Kind string
	Key  string
}

// Error describes the missing record.
func (notFoundError RecordNotFoundError) Error() string {
	return fmt.Sprintf(recordNotFoundTemplateConstant, notFoundError.Kind, notFoundError.Key)
}

// Is matches ErrRecordNotFound.
func (notFoundError RecordNotFoundError) Is(target error) bool {
	return target == ErrRecordNotFound
}

// DuplicateRecordError reports two records sharing a name.
type DuplicateRecordError struct {
	Kind string
	Key  string
}

// Error describes the duplicate.
func (duplicateError DuplicateRecordError) Error() string {
	return fmt.Sprintf(duplicateRecordTemplateConstant, duplicateError.Kind, duplicateError.Key)
}
