package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/numapde/papermake/internal/config"
	"github.com/numapde/papermake/internal/ctxlog"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// PaperfilePath is a single .hcl file or a directory containing them.
	// The workspace directory, which all artifact paths are relative to,
	// is the file's directory or the directory itself.
	PaperfilePath string

	LogFormat string
	LogLevel  string
	// Jobs is the worker count. 1 means strictly sequential resolution.
	Jobs int
}

// App encapsulates the orchestrator's dependencies, configuration, and
// lifecycle.
type App struct {
	outW    io.Writer
	logger  *slog.Logger
	model   *config.Model
	workDir string
	jobs    int
}

// New is the constructor for the application. It loads and validates the
// build declaration eagerly; a failure to do so is a fatal startup error
// and panics, to be recovered at the entrypoint.
func New(outW io.Writer, cfg *Config, loader config.Loader) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	workDir, err := workspaceDir(cfg.PaperfilePath)
	if err != nil {
		panic(fmt.Errorf("failed to locate workspace: %w", err))
	}

	model, err := loader.Load(ctx, cfg.PaperfilePath)
	if err != nil {
		panic(fmt.Errorf("failed to load build declaration: %w", err))
	}
	logger.Debug("Build declaration loaded into unified model.")

	if err := model.Validate(); err != nil {
		panic(fmt.Errorf("invalid build declaration: %w", err))
	}
	logger.Debug("Model validation passed.")

	jobs := cfg.Jobs
	if jobs < 1 {
		jobs = 1
	}

	return &App{
		outW:    outW,
		logger:  logger,
		model:   model,
		workDir: workDir,
		jobs:    jobs,
	}
}

// Model returns the loaded configuration model. This is primarily for testing.
func (a *App) Model() *config.Model {
	return a.model
}

// WorkDir returns the workspace directory artifact paths are relative to.
func (a *App) WorkDir() string {
	return a.workDir
}

// workspaceDir derives the workspace directory from the paperfile path.
func workspaceDir(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return path, nil
	}
	return filepath.Dir(path), nil
}
