package cli

import (
	_ "embed"

	"github.com/temirov/cfsync/internal/utils"
)

//go:embed default_config.yaml
var embeddedDefaultConfigurationContent []byte

// EmbeddedDefaultConfiguration returns a copy of the bundled cfsync defaults and their configuration type.
func EmbeddedDefaultConfiguration() ([]byte, string) {
	return append([]byte(nil), embeddedDefaultConfigurationContent...), configurationTypeConstant
}

// defaultConfigurationValues backs every common setting with a viper default,
// so environment overrides apply even when no file names the key.
func defaultConfigurationValues() map[string]any {
	return map[string]any{
		commonLogLevelConfigKeyConstant:     string(utils.LogLevelWarn),
		commonLogFormatConfigKeyConstant:    string(utils.LogFormatStructured),
		commonConfigReaderConfigKeyConstant: string(ConfigReaderGit),
	}
}
