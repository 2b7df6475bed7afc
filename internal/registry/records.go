package registry

import (
	"fmt"
	"strings"
	"time"
)

const (
	providerKindGitHubConstant       = "github"
	providerKindGitLabConstant       = "gitlab"
	gitHubHostMarkerConstant         = "github.com"
	gitLabHostMarkerConstant         = "gitlab.com"
	validDateLayoutConstant          = "2006-01-02"
	invalidValidDateTemplateConstant = "git user %s has invalid valid_date %q"
)

// ProviderKind identifies the REST dialect spoken by a provider.
type ProviderKind string

// Supported provider kinds. ProviderKindUnknown is returned when the kind cannot be inferred.
const (
	ProviderKindUnknown ProviderKind = ""
	ProviderKindGitHub  ProviderKind = ProviderKind(providerKindGitHubConstant)
	ProviderKindGitLab  ProviderKind = ProviderKind(providerKindGitLabConstant)
)

// Provider is a configured git hosting service.
type Provider struct {
	Name string       `yaml:"name" validate:"required"`
	URL  string       `yaml:"url" validate:"required,url"`
	Kind ProviderKind `yaml:"kind" validate:"omitempty,oneof=github gitlab"`
}

// ResolvedKind returns the declared kind or infers it from the API URL.
func (provider Provider) ResolvedKind() ProviderKind {
	if len(provider.Kind) > 0 {
		return ProviderKind(strings.ToLower(string(provider.Kind)))
	}

	lowerCasedURL := strings.ToLower(provider.URL)
	switch {
	case strings.Contains(lowerCasedURL, gitHubHostMarkerConstant):
		return ProviderKindGitHub
	case strings.Contains(lowerCasedURL, gitLabHostMarkerConstant):
		return ProviderKindGitLab
	default:
		return ProviderKindUnknown
	}
}

// GitUser maps an application user to a remote login and its personal access token.
type GitUser struct {
	Name          string   `yaml:"name" validate:"required"`
	User          string   `yaml:"user" validate:"required"`
	ValidDate     string   `yaml:"valid_date"`
	PATSource     string   `yaml:"pat_source"`
	Organizations []string `yaml:"organizations" validate:"omitempty,dive,required"`
}

// Expiry parses ValidDate. Dates without a time component expire at midnight UTC of that day.
// An empty ValidDate yields the zero time, meaning the token never expires.
func (gitUser GitUser) Expiry() (time.Time, error) {
	trimmedValidDate := strings.TrimSpace(gitUser.ValidDate)
	if len(trimmedValidDate) == 0 {
		return time.Time{}, nil
	}

	if parsedTime, parseError := time.Parse(time.RFC3339, trimmedValidDate); parseError == nil {
		return parsedTime, nil
	}

	parsedDate, parseError := time.Parse(validDateLayoutConstant, trimmedValidDate)
	if parseError != nil {
		return time.Time{}, fmt.Errorf(invalidValidDateTemplateConstant, gitUser.Name, gitUser.ValidDate)
	}

	return parsedDate.UTC(), nil
}

// BelongsTo reports whether the git user lists the organization.
func (gitUser GitUser) BelongsTo(organization string) bool {
	trimmedOrganization := strings.TrimSpace(organization)
	for _, candidate := range gitUser.Organizations {
		if strings.TrimSpace(candidate) == trimmedOrganization {
			return true
		}
	}
	return false
}

// Repository is a previously linked Git Repo record.
type Repository struct {
	Name      string `yaml:"name" validate:"required"`
	URL       string `yaml:"url" validate:"required,url"`
	Owner     string `yaml:"owner"`
	Party     string `yaml:"party"`
	PartyName string `yaml:"party_name"`
	Provider  string `yaml:"provider"`
}

// Document is the on-disk registry layout.
type Document struct {
	Providers    []Provider   `yaml:"providers" validate:"dive"`
	GitUsers     []GitUser    `yaml:"git_users" validate:"dive"`
	Repositories []Repository `yaml:"repositories" validate:"dive"`
}
