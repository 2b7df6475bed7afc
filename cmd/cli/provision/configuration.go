package provision

import "strings"

const (
	configurationProviderKeyConstant         = "provider"
	configurationOwnerKindKeyConstant        = "owner_kind"
	configurationVisibilityKeyConstant       = "visibility"
	configurationConcurrencyKeyConstant      = "concurrency"
	configurationVerifyMembershipKeyConstant = "verify_membership"
	defaultProviderConstant                  = "github"
	defaultOwnerKindConstant                 = "user"
	defaultVisibilityConstant                = "public"
	defaultConcurrencyConstant               = 4
)

// Configuration describes the defaults applied by the provisioning commands.
type Configuration struct {
	Provider         string `mapstructure:"provider"`
	OwnerKind        string `mapstructure:"owner_kind"`
	Visibility       string `mapstructure:"visibility"`
	Concurrency      int    `mapstructure:"concurrency"`
	VerifyMembership bool   `mapstructure:"verify_membership"`
}

// DefaultConfiguration returns baseline provisioning configuration.
func DefaultConfiguration() Configuration {
	return Configuration{
		Provider:         defaultProviderConstant,
		OwnerKind:        defaultOwnerKindConstant,
		Visibility:       defaultVisibilityConstant,
		Concurrency:      defaultConcurrencyConstant,
		VerifyMembership: true,
	}
}

// DefaultConfigurationValues produces Viper defaults rooted at rootKey.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultConfiguration()
	return map[string]any{
		rootKey + "." + configurationProviderKeyConstant:         defaults.Provider,
		rootKey + "." + configurationOwnerKindKeyConstant:        defaults.OwnerKind,
		rootKey + "." + configurationVisibilityKeyConstant:       defaults.Visibility,
		rootKey + "." + configurationConcurrencyKeyConstant:      defaults.Concurrency,
		rootKey + "." + configurationVerifyMembershipKeyConstant: defaults.VerifyMembership,
	}
}

func (configuration Configuration) sanitize() Configuration {
	defaults := DefaultConfiguration()
	sanitized := configuration
	sanitized.Provider = strings.TrimSpace(configuration.Provider)
	if len(sanitized.Provider) == 0 {
		sanitized.Provider = defaults.Provider
	}
	sanitized.OwnerKind = strings.TrimSpace(configuration.OwnerKind)
	if len(sanitized.OwnerKind) == 0 {
		sanitized.OwnerKind = defaults.OwnerKind
	}
	sanitized.Visibility = strings.TrimSpace(configuration.Visibility)
	if sanitized.Concurrency <= 0 {
		sanitized.Concurrency = defaults.Concurrency
	}
	return sanitized
}
