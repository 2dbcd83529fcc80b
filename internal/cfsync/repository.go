package cfsync

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

const (
	settingLoadErrorTemplateConstant = "failed to load %s: %w"
	repositoryOpenedMessageConstant  = "repository opened"
	settingLoadedMessageConstant     = "setting loaded"
	periodicTasksMessageConstant     = "periodic tasks executed"
	logFieldRepositoryPathConstant   = "repository"
	logFieldSettingKeyConstant       = "setting"
	logFieldSettingValuesConstant    = "values"
	logFieldFetchRemoteCountConstant = "fetch_remote_count"
)

// Repository is the handle for one git-managed configuration directory.
type Repository struct {
	path          string
	configuration Settings
	reader        ConfigurationReader
	logger        *zap.Logger
}

// Open binds to repositoryPath and loads every recognized setting.
//
// The path is resolved to an absolute path and must name an accessible
// directory; otherwise Open fails with DirectoryError before the reader is
// consulted. The reader then verifies the directory belongs to a repository
// and supplies the settings. The process working directory is left untouched.
func Open(executionContext context.Context, repositoryPath string, reader ConfigurationReader, logger *zap.Logger) (*Repository, error) {
	if reader == nil {
		return nil, ErrReaderNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	resolvedPath, directoryError := resolveRepositoryDirectory(repositoryPath)
	if directoryError != nil {
		return nil, directoryError
	}

	if verificationError := reader.VerifyRepository(executionContext, resolvedPath); verificationError != nil {
		return nil, verificationError
	}

	repository := &Repository{
		path:          resolvedPath,
		configuration: newEmptySettings(),
		reader:        reader,
		logger:        logger,
	}

	if loadError := repository.LoadConfig(executionContext); loadError != nil {
		return nil, loadError
	}

	repository.logger.Info(repositoryOpenedMessageConstant, zap.String(logFieldRepositoryPathConstant, repository.path))

	return repository, nil
}

// Path returns the absolute repository directory.
func (repository *Repository) Path() string {
	return repository.path
}

// Settings returns a copy of the loaded configuration mapping.
func (repository *Repository) Settings() Settings {
	return repository.configuration.Clone()
}

// LoadConfig reads every recognized key from the cfsync namespace, replacing
// previously loaded values. The mapping is only updated when every key loads.
func (repository *Repository) LoadConfig(executionContext context.Context) error {
	loadedSettings := newEmptySettings()
	for _, settingKey := range RecognizedSettingKeys {
		qualifiedKey := QualifiedSettingKey(settingKey)
		rawValues, readError := repository.reader.ReadValues(executionContext, repository.path, qualifiedKey)
		if readError != nil {
			return fmt.Errorf(settingLoadErrorTemplateConstant, qualifiedKey, readError)
		}
		loadedSettings[settingKey] = tokenizeValues(rawValues)

		repository.logger.Debug(
			settingLoadedMessageConstant,
			zap.String(logFieldRepositoryPathConstant, repository.path),
			zap.String(logFieldSettingKeyConstant, qualifiedKey),
			zap.Strings(logFieldSettingValuesConstant, loadedSettings[settingKey]),
		)
	}

	repository.configuration = loadedSettings
	return nil
}

// RunPeriodicTasks performs the recurring work scheduled for the repository.
// Fetch and merge are not implemented yet, so the routine only records that it ran.
func (repository *Repository) RunPeriodicTasks(executionContext context.Context) {
	if repository == nil || repository.logger == nil {
		return
	}
	repository.logger.Debug(
		periodicTasksMessageConstant,
		zap.String(logFieldRepositoryPathConstant, repository.path),
		zap.Int(logFieldFetchRemoteCountConstant, len(repository.configuration[FetchSettingKey])),
	)
}

func resolveRepositoryDirectory(repositoryPath string) (string, error) {
	absolutePath, absoluteError := filepath.Abs(repositoryPath)
	if absoluteError != nil {
		return "", DirectoryError{Path: repositoryPath, Cause: absoluteError}
	}

	directoryInfo, statError := os.Stat(absolutePath)
	if statError != nil {
		return "", DirectoryError{Path: repositoryPath, Cause: statError}
	}
	if !directoryInfo.IsDir() {
		return "", DirectoryError{Path: repositoryPath, Cause: ErrNotDirectory}
	}

	directoryHandle, openError := os.Open(absolutePath)
	if openError != nil {
		return "", DirectoryError{Path: repositoryPath, Cause: openError}
	}
	if closeError := directoryHandle.Close(); closeError != nil {
		return "", DirectoryError{Path: repositoryPath, Cause: closeError}
	}

	return filepath.Clean(absolutePath), nil
}
