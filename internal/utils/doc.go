// Package utils exposes reusable helpers consumed by the cfsync CLI.
//
// It houses ConfigurationLoader and LoggerFactory abstractions that integrate
// Viper, environment variables, and zap logging, plus CommandContextAccessor
// for carrying resolved values through cobra command contexts.
package utils
