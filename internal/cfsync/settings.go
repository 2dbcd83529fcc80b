package cfsync

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"
)

// SettingsNamespace prefixes every cfsync key in git configuration.
const SettingsNamespace = "cfsync"

// FetchSettingKey names the multi-valued list of remotes to fetch from.
const FetchSettingKey = "fetch"

const (
	settingsKeySeparatorConstant         = "."
	settingsDecodeErrorTemplateConstant  = "failed to decode settings: %w"
	settingsDecoderErrorTemplateConstant = "failed to build settings decoder: %w"
	settingsEncodeErrorTemplateConstant  = "failed to render settings: %w"
	settingsYAMLIndentConstant           = 2
	settingsMapstructureTagNameConstant  = "mapstructure"
)

// RecognizedSettingKeys lists every key read from the cfsync namespace, in load order.
var RecognizedSettingKeys = []string{FetchSettingKey}

// Settings maps each recognized key to its whitespace-delimited tokens.
type Settings map[string][]string

// SyncSettings is the typed view of Settings.
type SyncSettings struct {
	Fetch []string `mapstructure:"fetch" yaml:"fetch"`
}

// QualifiedSettingKey returns the git configuration key for a recognized setting, such as cfsync.fetch.
func QualifiedSettingKey(settingKey string) string {
	return SettingsNamespace + settingsKeySeparatorConstant + settingKey
}

// newEmptySettings returns Settings with every recognized key mapped to an empty, non-nil sequence.
func newEmptySettings() Settings {
	emptySettings := make(Settings, len(RecognizedSettingKeys))
	for _, settingKey := range RecognizedSettingKeys {
		emptySettings[settingKey] = []string{}
	}
	return emptySettings
}

// tokenizeValues splits every raw configuration value on whitespace and concatenates the tokens in order.
func tokenizeValues(rawValues []string) []string {
	tokens := []string{}
	for _, rawValue := range rawValues {
		tokens = append(tokens, strings.Fields(rawValue)...)
	}
	return tokens
}

// Clone returns a deep copy so callers cannot mutate repository state.
func (settings Settings) Clone() Settings {
	clonedSettings := make(Settings, len(settings))
	for settingKey, settingValues := range settings {
		clonedSettings[settingKey] = append([]string{}, settingValues...)
	}
	return clonedSettings
}

// Decode converts the settings map into its typed view.
func (settings Settings) Decode() (SyncSettings, error) {
	decodedSettings := SyncSettings{}
	decoder, decoderError := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: settingsMapstructureTagNameConstant,
		Result:  &decodedSettings,
	})
	if decoderError != nil {
		return SyncSettings{}, fmt.Errorf(settingsDecoderErrorTemplateConstant, decoderError)
	}
	if decodeError := decoder.Decode(map[string][]string(settings)); decodeError != nil {
		return SyncSettings{}, fmt.Errorf(settingsDecodeErrorTemplateConstant, decodeError)
	}
	if decodedSettings.Fetch == nil {
		decodedSettings.Fetch = []string{}
	}
	return decodedSettings, nil
}

// WriteYAML renders the typed settings as YAML.
func (settings SyncSettings) WriteYAML(writer io.Writer) error {
	encoder := yaml.NewEncoder(writer)
	encoder.SetIndent(settingsYAMLIndentConstant)
	if encodeError := encoder.Encode(settings); encodeError != nil {
		return fmt.Errorf(settingsEncodeErrorTemplateConstant, encodeError)
	}
	if closeError := encoder.Close(); closeError != nil {
		return fmt.Errorf(settingsEncodeErrorTemplateConstant, closeError)
	}
	return nil
}
