package app

import (
	"context"
	"fmt"
	"os"

	"github.com/specialistvlad/flowcore/internal/codec"
	"github.com/specialistvlad/flowcore/internal/config"
	"github.com/specialistvlad/flowcore/internal/ctxlog"
	"github.com/specialistvlad/flowcore/internal/fsutil"
	"github.com/specialistvlad/flowcore/internal/hcl"
)

// loadProject loads the function library, if any, and then the project.
func (a *App) loadProject(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	if a.config.FunctionsPath != "" {
		logger.Debug("Loading function library...", "functions_path", a.config.FunctionsPath)
		lib, err := a.loader.Load(ctx, a.config.FunctionsPath)
		if err != nil {
			return fmt.Errorf("failed to load function library: %w", err)
		}
		if len(lib.Flows) > 0 {
			logger.Warn("Flows in the function library are ignored.", "count", len(lib.Flows))
		}
		if err := a.session.Load(ctx, &config.Project{Functions: lib.Functions}); err != nil {
			return fmt.Errorf("failed to load function library: %w", err)
		}
	}

	logger.Debug("Loading project...", "project_path", a.config.ProjectPath)
	p, err := a.readProject(ctx, a.config.ProjectPath)
	if err != nil {
		return fmt.Errorf("failed to load project: %w", err)
	}
	if err := a.session.Load(ctx, p); err != nil {
		return fmt.Errorf("failed to load project: %w", err)
	}
	return nil
}

// readProject reads HCL through the loader and anything else through the
// codec matching its extension.
func (a *App) readProject(ctx context.Context, path string) (*config.Project, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() || fsutil.HasExtension(path, hcl.Extension) {
		return a.loader.Load(ctx, path)
	}
	return codec.ReadFile(ctx, path)
}
