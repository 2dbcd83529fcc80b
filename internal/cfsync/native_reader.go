package cfsync

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
)

const (
	qualifiedKeySeparatorConstant        = "."
	gitConfigGlobalEnvironmentConstant   = "GIT_CONFIG_GLOBAL"
	gitConfigSystemEnvironmentConstant   = "GIT_CONFIG_SYSTEM"
	gitConfigNoSystemEnvironmentConstant = "GIT_CONFIG_NOSYSTEM"
	xdgConfigHomeEnvironmentConstant     = "XDG_CONFIG_HOME"
	xdgDefaultConfigDirectoryConstant    = ".config"
	xdgGitConfigRelativePathConstant     = "git/config"
	homeGitConfigFileNameConstant        = ".gitconfig"
)

var gitTrueBooleanValues = map[string]bool{"true": true, "yes": true, "on": true}

// EnvironmentLookup reports the value of an environment variable and whether it is set.
type EnvironmentLookup func(variableName string) (string, bool)

// HomeDirectoryLookup resolves the current user's home directory.
type HomeDirectoryLookup func() (string, error)

// NativeReader reads configuration through go-git without spawning processes.
// Values are gathered from the system, global, and repository scopes in that
// order, matching the order git config --get-all reports them. The scope
// files are located the way git locates them, including GIT_CONFIG_GLOBAL,
// GIT_CONFIG_SYSTEM, and GIT_CONFIG_NOSYSTEM.
type NativeReader struct {
	lookupEnvironment   EnvironmentLookup
	lookupHomeDirectory HomeDirectoryLookup
}

// NewNativeReader constructs a NativeReader backed by the process environment.
func NewNativeReader() *NativeReader {
	return NewNativeReaderWithEnvironment(os.LookupEnv, os.UserHomeDir)
}

// NewNativeReaderWithEnvironment constructs a NativeReader with custom environment and home directory lookups.
func NewNativeReaderWithEnvironment(lookupEnvironment EnvironmentLookup, lookupHomeDirectory HomeDirectoryLookup) *NativeReader {
	if lookupEnvironment == nil {
		lookupEnvironment = os.LookupEnv
	}
	if lookupHomeDirectory == nil {
		lookupHomeDirectory = os.UserHomeDir
	}
	return &NativeReader{lookupEnvironment: lookupEnvironment, lookupHomeDirectory: lookupHomeDirectory}
}

// VerifyRepository opens repositoryPath with go-git, searching parent directories for .git.
func (reader *NativeReader) VerifyRepository(executionContext context.Context, repositoryPath string) error {
	_, openError := reader.openRepository(repositoryPath)
	return openError
}

// ReadValues returns every value of qualifiedKey across configuration scopes.
func (reader *NativeReader) ReadValues(executionContext context.Context, repositoryPath string, qualifiedKey string) ([]string, error) {
	repository, openError := reader.openRepository(repositoryPath)
	if openError != nil {
		return nil, openError
	}

	sectionName, optionName := splitQualifiedKey(qualifiedKey)

	scopeFiles, pathsError := reader.ScopeConfigurationPaths()
	if pathsError != nil {
		return nil, RepositoryError{Path: repositoryPath, Cause: pathsError}
	}

	values := []string{}
	for _, configurationPath := range scopeFiles {
		fileConfiguration, readError := readConfigurationFile(configurationPath)
		if readError != nil {
			return nil, RepositoryError{Path: repositoryPath, Cause: readError}
		}
		values = append(values, collectOptionValues(fileConfiguration, sectionName, optionName)...)
	}

	localConfiguration, localError := repository.Config()
	if localError != nil {
		return nil, RepositoryError{Path: repositoryPath, Cause: localError}
	}
	values = append(values, collectOptionValues(localConfiguration, sectionName, optionName)...)

	return values, nil
}

// ScopeConfigurationPaths lists the system and global configuration files in the order git reads them.
// Files that do not exist are included; readers skip them.
func (reader *NativeReader) ScopeConfigurationPaths() ([]string, error) {
	systemPaths, systemError := reader.systemConfigurationPaths()
	if systemError != nil {
		return nil, systemError
	}
	return append(systemPaths, reader.globalConfigurationPaths()...), nil
}

func (reader *NativeReader) systemConfigurationPaths() ([]string, error) {
	if noSystemValue, noSystemSet := reader.lookupEnvironment(gitConfigNoSystemEnvironmentConstant); noSystemSet && parseGitBoolean(noSystemValue) {
		return nil, nil
	}
	if systemPath, systemPathSet := reader.lookupEnvironment(gitConfigSystemEnvironmentConstant); systemPathSet {
		return nonEmptyPaths(systemPath), nil
	}
	return config.Paths(config.SystemScope)
}

func (reader *NativeReader) globalConfigurationPaths() []string {
	if globalPath, globalPathSet := reader.lookupEnvironment(gitConfigGlobalEnvironmentConstant); globalPathSet {
		return nonEmptyPaths(globalPath)
	}

	homeDirectory, homeError := reader.lookupHomeDirectory()
	if homeError != nil {
		homeDirectory = ""
	}

	globalPaths := []string{}
	xdgConfigHome, xdgSet := reader.lookupEnvironment(xdgConfigHomeEnvironmentConstant)
	switch {
	case xdgSet && len(xdgConfigHome) > 0:
		globalPaths = append(globalPaths, filepath.Join(xdgConfigHome, xdgGitConfigRelativePathConstant))
	case len(homeDirectory) > 0:
		globalPaths = append(globalPaths, filepath.Join(homeDirectory, xdgDefaultConfigDirectoryConstant, xdgGitConfigRelativePathConstant))
	}
	if len(homeDirectory) > 0 {
		globalPaths = append(globalPaths, filepath.Join(homeDirectory, homeGitConfigFileNameConstant))
	}
	return globalPaths
}

func (reader *NativeReader) openRepository(repositoryPath string) (*git.Repository, error) {
	repository, openError := git.PlainOpenWithOptions(repositoryPath, &git.PlainOpenOptions{DetectDotGit: true})
	if openError != nil {
		return nil, RepositoryError{Path: repositoryPath, Cause: openError}
	}
	return repository, nil
}

// readConfigurationFile parses one git configuration file; a missing file yields nil.
func readConfigurationFile(configurationPath string) (*config.Config, error) {
	configurationFile, openError := os.Open(configurationPath)
	if openError != nil {
		if errors.Is(openError, os.ErrNotExist) {
			return nil, nil
		}
		return nil, openError
	}
	defer configurationFile.Close()

	return config.ReadConfig(configurationFile)
}

func collectOptionValues(configuration *config.Config, sectionName string, optionName string) []string {
	if configuration == nil || configuration.Raw == nil {
		return nil
	}
	if !configuration.Raw.HasSection(sectionName) {
		return nil
	}
	return configuration.Raw.Section(sectionName).Options.GetAll(optionName)
}

// parseGitBoolean interprets an environment value as git does: empty is false, and numbers are true when non-zero.
func parseGitBoolean(value string) bool {
	normalizedValue := strings.ToLower(strings.TrimSpace(value))
	if len(normalizedValue) == 0 {
		return false
	}
	if gitTrueBooleanValues[normalizedValue] {
		return true
	}
	numericValue, parseError := strconv.Atoi(normalizedValue)
	return parseError == nil && numericValue != 0
}

func nonEmptyPaths(candidatePath string) []string {
	if len(candidatePath) == 0 {
		return nil
	}
	return []string{candidatePath}
}

// splitQualifiedKey separates "cfsync.fetch" into its section and option names.
func splitQualifiedKey(qualifiedKey string) (string, string) {
	separatorIndex := strings.Index(qualifiedKey, qualifiedKeySeparatorConstant)
	if separatorIndex == -1 {
		return qualifiedKey, ""
	}
	return qualifiedKey[:separatorIndex], qualifiedKey[separatorIndex+1:]
}
