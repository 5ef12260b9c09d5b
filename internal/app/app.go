package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/graphc/internal/builder"
	"github.com/vk/graphc/internal/config"
	"github.com/vk/graphc/internal/ctxlog"
	"github.com/vk/graphc/internal/inmemorystore"
	"github.com/vk/graphc/internal/pass"
	"github.com/vk/graphc/internal/passes"
	"github.com/vk/graphc/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	cfg      *Config
	registry *registry.Registry
	model    *config.Model
	pipeline *pass.Pipeline
	builder  *builder.Builder
	writer   config.Writer
	store    *inmemorystore.Store
}

// NewApp is the constructor for the main application. Compiled programs go
// to outW and logs to logW. Configuration that cannot be loaded or does not
// match the registered passes is a fatal startup error, so NewApp panics.
func NewApp(outW, logW io.Writer, cfg *Config, loader config.Loader, writer config.Writer, modules ...registry.Module) *App {
	logger := newLogger(cfg, logW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	// Load all configuration into the format-agnostic model first.
	model, err := loader.Load(ctx, cfg.Paths...)
	if err != nil {
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}
	logger.Debug("Configuration loaded and translated into unified model.",
		"pipelines", len(model.Pipelines),
		"graphs", len(model.Graphs),
	)

	if len(modules) == 0 {
		modules = coreModules
	}
	reg := registry.New(modules...)
	logger.Debug("All pass modules registered.", "count", len(modules), "passes", reg.Names())

	// Validate the integrity of the registry against the loaded pipelines.
	if err := reg.Validate(ctx, model); err != nil {
		// A mismatch between code and config, so we panic.
		panic(err)
	}

	plCfg, ok := model.Pipelines[cfg.Pipeline]
	if !ok {
		if cfg.Pipeline != passes.DefaultPipelineName {
			panic(fmt.Errorf("pipeline '%s' is not defined", cfg.Pipeline))
		}
		logger.Debug("Using the builtin default pipeline.")
		plCfg = passes.DefaultPipeline()
	}
	pl, err := reg.Pipeline(plCfg)
	if err != nil {
		panic(err)
	}
	logger.Debug("Pipeline selected.", "pipeline", pl.Name, "passes", pl.Names())

	return &App{
		outW:     outW,
		logger:   logger,
		cfg:      cfg,
		registry: reg,
		model:    model,
		pipeline: pl,
		builder:  builder.New(nil),
		writer:   writer,
		store:    inmemorystore.New(),
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Store returns the compile results of the last run.
func (a *App) Store() *inmemorystore.Store {
	return a.store
}

// Pipeline returns the pipeline applied to every graph.
func (a *App) Pipeline() *pass.Pipeline {
	return a.pipeline
}
