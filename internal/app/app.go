package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/arbor/internal/ctxlog"
	"github.com/vk/arbor/internal/hclspec"
	"github.com/vk/arbor/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	registry *registry.Registry
	doc      *hclspec.Document
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and registry.
func NewApp(outW io.Writer, cfg *Config, modules ...registry.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	// Create and populate the registry before loading anything: building
	// the document's node tree needs every factory in place.
	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All node modules registered.", "count", len(modules), "types", len(reg.NodeTypeRegistry))

	loader := hclspec.NewLoader(reg)
	doc, err := loader.Load(ctx, cfg.SpecPath)
	if err != nil {
		// A failure to load the architecture is a fatal startup error.
		panic(fmt.Errorf("failed to load architecture: %w", err))
	}
	logger.Debug("Architecture document loaded.", "root", doc.Root.Name())

	return &App{
		outW:     outW,
		logger:   logger,
		registry: reg,
		doc:      doc,
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Document returns the loaded architecture document. This is primarily for
// testing.
func (a *App) Document() *hclspec.Document {
	return a.doc
}
