package utils_test

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/cfsync/internal/utils"
)

const (
	testEnvironmentPrefixConstant                     = "TESTCFSYNC"
	testCommonSectionKeyConstant                      = "common"
	testLogLevelKeyConstant                           = testCommonSectionKeyConstant + ".log_level"
	testDefaultLogLevelConstant                       = "info"
	testConfiguredLogLevelConstant                    = "debug"
	testOverriddenLogLevelConstant                    = "error"
	testFileLogLevelConstant                          = "warn"
	testConfigFileNameConstant                        = "config.yaml"
	testConfigContentTemplateConstant                 = "common:\n  log_level: %s\n"
	testCaseEmbeddedMessageConstant                   = "embedded configuration merges"
	testCaseDefaultsMessageConstant                   = "defaults are applied"
	testCaseFileMessageConstant                       = "config file overrides defaults"
	testCaseEnvironmentMessageConstant                = "environment overrides file"
	testConfigurationNameConstant                     = "config"
	testConfigurationTypeConstant                     = "yaml"
	configurationLoaderSubtestNameTemplateConstant    = "%d_%s"
	testEmbeddedLogLevelConstant                      = "debug"
	testUserConfigurationDirectoryNameConstant        = "cfsync"
	testXDGConfigHomeDirectoryNameConstant            = "config"
	testCaseSearchPathWorkingDirectoryMessageConstant = "searches working directory"
	testCaseSearchPathHomeDirectoryMessageConstant    = "searches home configuration directory"
	testCaseTildeConfigurationFileMessageConstant     = "expands home prefix in configuration file path"
	testConfigReaderKeyConstant                       = testCommonSectionKeyConstant + ".config_reader"
	testDefaultConfigReaderConstant                   = "git"
)

type configurationFixture struct {
	Common configurationCommonFixture `mapstructure:"common"`
}

type configurationCommonFixture struct {
	LogLevel     string `mapstructure:"log_level"`
	ConfigReader string `mapstructure:"config_reader"`
}

func TestConfigurationLoaderLoadConfiguration(testInstance *testing.T) {
	testCases := []struct {
		name                string
		embeddedLogLevel    string
		fileLogLevel        string
		environmentLogLevel string
		expectedLogLevel    string
	}{
		{
			name:                testCaseEmbeddedMessageConstant,
			embeddedLogLevel:    testEmbeddedLogLevelConstant,
			fileLogLevel:        "",
			environmentLogLevel: "",
			expectedLogLevel:    testEmbeddedLogLevelConstant,
		},
		{
			name:                testCaseDefaultsMessageConstant,
			embeddedLogLevel:    testDefaultLogLevelConstant,
			fileLogLevel:        "",
			environmentLogLevel: "",
			expectedLogLevel:    testDefaultLogLevelConstant,
		},
		{
			name:                testCaseFileMessageConstant,
			embeddedLogLevel:    testDefaultLogLevelConstant,
			fileLogLevel:        testConfiguredLogLevelConstant,
			environmentLogLevel: "",
			expectedLogLevel:    testConfiguredLogLevelConstant,
		},
		{
			name:                testCaseEnvironmentMessageConstant,
			embeddedLogLevel:    testDefaultLogLevelConstant,
			fileLogLevel:        testFileLogLevelConstant,
			environmentLogLevel: testOverriddenLogLevelConstant,
			expectedLogLevel:    testOverriddenLogLevelConstant,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(configurationLoaderSubtestNameTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			tempDirectory := testInstance.TempDir()
			configurationFilePath := ""
			if len(testCase.fileLogLevel) > 0 {
				configurationFilePath = filepath.Join(tempDirectory, testConfigFileNameConstant)
				configurationContent := fmt.Sprintf(testConfigContentTemplateConstant, testCase.fileLogLevel)
				writeError := os.WriteFile(configurationFilePath, []byte(configurationContent), 0o600)
				require.NoError(testInstance, writeError)
			}

			if len(testCase.environmentLogLevel) > 0 {
				environmentVariableName := fmt.Sprintf("%s_%s", testEnvironmentPrefixConstant, strings.ToUpper(strings.ReplaceAll(testLogLevelKeyConstant, ".", "_")))
				setError := os.Setenv(environmentVariableName, testCase.environmentLogLevel)
				require.NoError(testInstance, setError)
				testInstance.Cleanup(func() {
					unsetError := os.Unsetenv(environmentVariableName)
					require.NoError(testInstance, unsetError)
				})
			}

			configurationLoader := utils.NewConfigurationLoader(testConfigurationNameConstant, testConfigurationTypeConstant, testEnvironmentPrefixConstant, []string{tempDirectory})

			configurationLoader.SetEmbeddedConfiguration([]byte(fmt.Sprintf(testConfigContentTemplateConstant, testCase.embeddedLogLevel)), testConfigurationTypeConstant)

			defaultValues := map[string]any{
				testLogLevelKeyConstant: testDefaultLogLevelConstant,
			}

			loadedConfiguration := configurationFixture{}
			metadata, loadError := configurationLoader.LoadConfiguration(configurationFilePath, defaultValues, &loadedConfiguration)
			require.NoError(testInstance, loadError)
			require.Equal(testInstance, testCase.expectedLogLevel, loadedConfiguration.Common.LogLevel)

			if len(configurationFilePath) > 0 {
				require.Equal(testInstance, configurationFilePath, metadata.ConfigFileUsed)
			} else {
				require.Empty(testInstance, metadata.ConfigFileUsed)
			}
		})
	}
}

func TestConfigurationLoaderSearchPaths(testInstance *testing.T) {
	testCases := []struct {
		name                         string
		configurationDirectorySelect func(workingDirectoryPath string, userConfigurationDirectoryPath string) string
	}{
		{
			name: testCaseSearchPathWorkingDirectoryMessageConstant,
			configurationDirectorySelect: func(workingDirectoryPath string, userConfigurationDirectoryPath string) string {
				return workingDirectoryPath
			},
		},
		{
			name: testCaseSearchPathHomeDirectoryMessageConstant,
			configurationDirectorySelect: func(workingDirectoryPath string, userConfigurationDirectoryPath string) string {
				return userConfigurationDirectoryPath
			},
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(configurationLoaderSubtestNameTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			workingDirectoryPath := testInstance.TempDir()
			homeDirectoryPath := testInstance.TempDir()
			xdgConfigHomeDirectoryPath := filepath.Join(homeDirectoryPath, testXDGConfigHomeDirectoryNameConstant)

			testInstance.Setenv("HOME", homeDirectoryPath)
			testInstance.Setenv("XDG_CONFIG_HOME", xdgConfigHomeDirectoryPath)

			userConfigurationDirectoryPath := utils.UserConfigurationSearchPath(testUserConfigurationDirectoryNameConstant)
			require.NotEmpty(testInstance, userConfigurationDirectoryPath)
			createDirectoryError := os.MkdirAll(userConfigurationDirectoryPath, 0o755)
			require.NoError(testInstance, createDirectoryError)

			selectedConfigurationDirectoryPath := testCase.configurationDirectorySelect(workingDirectoryPath, userConfigurationDirectoryPath)
			ensureSelectedDirectoryError := os.MkdirAll(selectedConfigurationDirectoryPath, 0o755)
			require.NoError(testInstance, ensureSelectedDirectoryError)

			configurationFilePath := filepath.Join(selectedConfigurationDirectoryPath, testConfigFileNameConstant)
			configurationContent := fmt.Sprintf(testConfigContentTemplateConstant, testConfiguredLogLevelConstant)
			writeConfigurationError := os.WriteFile(configurationFilePath, []byte(configurationContent), 0o600)
			require.NoError(testInstance, writeConfigurationError)

			configurationLoader := utils.NewConfigurationLoader(
				testConfigurationNameConstant,
				testConfigurationTypeConstant,
				testEnvironmentPrefixConstant,
				[]string{workingDirectoryPath, userConfigurationDirectoryPath},
			)

			defaultValues := map[string]any{
				testLogLevelKeyConstant: testDefaultLogLevelConstant,
			}

			loadedConfiguration := configurationFixture{}
			metadata, loadError := configurationLoader.LoadConfiguration("", defaultValues, &loadedConfiguration)
			require.NoError(testInstance, loadError)
			require.Equal(testInstance, testConfiguredLogLevelConstant, loadedConfiguration.Common.LogLevel)
			require.Equal(testInstance, configurationFilePath, metadata.ConfigFileUsed)
		})
	}
}

func TestConfigurationLoaderExpandsHomeInConfigurationFilePath(testInstance *testing.T) {
	homeDirectoryPath := testInstance.TempDir()
	testInstance.Setenv("HOME", homeDirectoryPath)

	configurationFilePath := filepath.Join(homeDirectoryPath, testConfigFileNameConstant)
	configurationContent := fmt.Sprintf(testConfigContentTemplateConstant, testConfiguredLogLevelConstant)
	require.NoError(testInstance, os.WriteFile(configurationFilePath, []byte(configurationContent), 0o600))

	configurationLoader := utils.NewConfigurationLoader(testConfigurationNameConstant, testConfigurationTypeConstant, testEnvironmentPrefixConstant, nil)

	defaultValues := map[string]any{
		testLogLevelKeyConstant:     testDefaultLogLevelConstant,
		testConfigReaderKeyConstant: testDefaultConfigReaderConstant,
	}

	loadedConfiguration := configurationFixture{}
	metadata, loadError := configurationLoader.LoadConfiguration("~/"+testConfigFileNameConstant, defaultValues, &loadedConfiguration)
	require.NoError(testInstance, loadError, testCaseTildeConfigurationFileMessageConstant)
	require.Equal(testInstance, testConfiguredLogLevelConstant, loadedConfiguration.Common.LogLevel)
	require.Equal(testInstance, testDefaultConfigReaderConstant, loadedConfiguration.Common.ConfigReader)
	require.Equal(testInstance, configurationFilePath, metadata.ConfigFileUsed)
}

func TestUserConfigurationSearchPath(testInstance *testing.T) {
	if runtime.GOOS != "linux" {
		testInstance.Skip("XDG configuration directories apply to linux")
	}

	homeDirectoryPath := testInstance.TempDir()
	xdgConfigHomeDirectoryPath := filepath.Join(homeDirectoryPath, testXDGConfigHomeDirectoryNameConstant)

	testCases := []struct {
		name          string
		homeValue     string
		xdgValue      string
		expectedValue string
	}{
		{
			name:          "xdg_config_home",
			homeValue:     homeDirectoryPath,
			xdgValue:      xdgConfigHomeDirectoryPath,
			expectedValue: filepath.Join(xdgConfigHomeDirectoryPath, testUserConfigurationDirectoryNameConstant),
		},
		{
			name:          "home_fallback",
			homeValue:     homeDirectoryPath,
			expectedValue: filepath.Join(homeDirectoryPath, ".config", testUserConfigurationDirectoryNameConstant),
		},
		{
			name:          "no_user_directory",
			expectedValue: "",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			testInstance.Setenv("HOME", testCase.homeValue)
			testInstance.Setenv("XDG_CONFIG_HOME", testCase.xdgValue)

			require.Equal(testInstance, testCase.expectedValue, utils.UserConfigurationSearchPath(testUserConfigurationDirectoryNameConstant))
		})
	}
}

func TestConfigurationLoaderReportsUnreadableConfiguration(testInstance *testing.T) {
	configurationDirectoryPath := testInstance.TempDir()
	malformedConfigurationPath := filepath.Join(configurationDirectoryPath, testConfigFileNameConstant)
	require.NoError(testInstance, os.WriteFile(malformedConfigurationPath, []byte("common: [unterminated\n"), 0o600))

	testCases := []struct {
		name                  string
		configurationFilePath string
	}{
		{name: "explicit_file_malformed", configurationFilePath: malformedConfigurationPath},
		{name: "searched_file_malformed", configurationFilePath: ""},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			configurationLoader := utils.NewConfigurationLoader(
				testConfigurationNameConstant,
				testConfigurationTypeConstant,
				testEnvironmentPrefixConstant,
				[]string{"", "   ", configurationDirectoryPath},
			)

			loadedConfiguration := configurationFixture{}
			_, loadError := configurationLoader.LoadConfiguration(testCase.configurationFilePath, nil, &loadedConfiguration)
			require.Error(testInstance, loadError)
			require.Contains(testInstance, loadError.Error(), "failed to read configuration")
		})
	}
}

func TestConfigurationLoaderToleratesMissingSearchedConfiguration(testInstance *testing.T) {
	configurationLoader := utils.NewConfigurationLoader(
		testConfigurationNameConstant,
		testConfigurationTypeConstant,
		testEnvironmentPrefixConstant,
		[]string{testInstance.TempDir(), ""},
	)

	defaultValues := map[string]any{
		testLogLevelKeyConstant:     testDefaultLogLevelConstant,
		testConfigReaderKeyConstant: testDefaultConfigReaderConstant,
	}

	loadedConfiguration := configurationFixture{}
	metadata, loadError := configurationLoader.LoadConfiguration("", defaultValues, &loadedConfiguration)
	require.NoError(testInstance, loadError)
	require.Empty(testInstance, metadata.ConfigFileUsed)
	require.Equal(testInstance, testDefaultLogLevelConstant, loadedConfiguration.Common.LogLevel)
	require.Equal(testInstance, testDefaultConfigReaderConstant, loadedConfiguration.Common.ConfigReader)
}
