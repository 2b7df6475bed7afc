// Package utils exposes reusable helpers consumed by multiple commands.
//
// It houses ConfigurationLoader, which layers embedded defaults, an optional
// configuration file and GITPROVISION_ environment overrides through Viper,
// and LoggerFactory, which builds the zap loggers shared by every service.
package utils
