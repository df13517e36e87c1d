package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/specialistvlad/flowcore/internal/config"
	"github.com/specialistvlad/flowcore/internal/ctxlog"
	"github.com/specialistvlad/flowcore/internal/registry"
	"github.com/specialistvlad/flowcore/internal/session"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW    io.Writer
	logger  *slog.Logger
	ctx     context.Context
	config  *Config
	loader  config.Loader
	modules []registry.Module

	session    *session.Session
	httpServer *http.Server
}

// NewApp is the constructor for the main application. Logs go to logW and
// node output to outW. With no modules the core modules are used.
func NewApp(outW, logW io.Writer, cfg *Config, loader config.Loader, modules ...registry.Module) *App {
	logger := newLogger(cfg, logW)
	logger.Debug("Logger configured successfully.")
	if len(modules) == 0 {
		modules = coreModules(outW)
	}
	return &App{
		outW:    outW,
		logger:  logger,
		ctx:     ctxlog.WithLogger(context.Background(), logger),
		config:  cfg,
		loader:  loader,
		modules: modules,
	}
}

// Session returns the session built by Run. This is primarily for testing.
func (a *App) Session() *session.Session {
	return a.session
}
