package credentials

import "strings"

// Environment variable names consulted when a git user has no token source.
const (
	EnvGitProvisionToken = "GITPROVISION_TOKEN"
	EnvGitHubCLIToken    = "GH_TOKEN"
	EnvGitHubToken       = "GITHUB_TOKEN"
	EnvGitLabToken       = "GITLAB_TOKEN"
)

var environmentTokenPreference = []string{
	EnvGitProvisionToken,
	EnvGitHubCLIToken,
	EnvGitHubToken,
	EnvGitLabToken,
}

// ResolveEnvironmentToken returns the first non-empty token among the well-known variables.
func ResolveEnvironmentToken(environmentLookup EnvironmentLookup) (string, bool) {
	if environmentLookup == nil {
		return "", false
	}
	for _, key := range environmentTokenPreference {
		value, exists := environmentLookup(key)
		if !exists {
			continue
		}
		value = strings.TrimSpace(value)
		if len(value) > 0 {
			return value, true
		}
	}
	return "", false
}
