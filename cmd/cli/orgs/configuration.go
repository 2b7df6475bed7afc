package orgs

import "strings"

const (
	configurationProviderKeyConstant = "provider"
	defaultProviderConstant          = "github"
)

// Configuration describes the defaults applied by organization commands.
type Configuration struct {
	Provider string `mapstructure:"provider"`
}

// DefaultConfiguration returns baseline organization configuration.
func DefaultConfiguration() Configuration {
	return Configuration{Provider: defaultProviderConstant}
}

// DefaultConfigurationValues produces Viper defaults rooted at rootKey.
func DefaultConfigurationValues(rootKey string) map[string]any {
	return map[string]any{
		rootKey + "." + configurationProviderKeyConstant: DefaultConfiguration().Provider,
	}
}

func (configuration Configuration) sanitize() Configuration {
	sanitized := configuration
	sanitized.Provider = strings.TrimSpace(configuration.Provider)
	if len(sanitized.Provider) == 0 {
		sanitized.Provider = defaultProviderConstant
	}
	return sanitized
}
