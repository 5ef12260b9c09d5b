package app

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/vk/graphc/internal/builder"
	"github.com/vk/graphc/internal/config"
	"github.com/vk/graphc/internal/ctxlog"
	"github.com/vk/graphc/internal/inmemorystore"
)

// Run compiles every loaded graph and prints the resulting programs in load
// order. All graphs are attempted; the failures are returned together.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	graphs := a.model.Graphs
	if len(graphs) == 0 {
		a.logger.Warn("No graphs found, compilation not required.")
		return nil
	}

	a.logger.Info("Starting compilation.", "graphs", len(graphs), "pipeline", a.pipeline.Name, "workers", a.cfg.Workers)
	var g errgroup.Group
	g.SetLimit(a.cfg.Workers)
	for _, graph := range graphs {
		g.Go(func() error {
			return a.compile(ctx, graph)
		})
	}
	// Failures are recorded in the store and reported below.
	_ = g.Wait()

	var errs []error
	for _, graph := range graphs {
		if err, _ := a.store.GetError(ctx, graph.Source); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := a.emit(ctx, graph); err != nil {
			return err
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("compilation failed: %w", errors.Join(errs...))
	}

	a.logger.Info("Compilation finished.", "graphs", len(graphs))
	return nil
}

// compile builds one graph and runs the pipeline over it, recording every
// stage in the store.
func (a *App) compile(ctx context.Context, graph *config.Graph) (err error) {
	key := graph.Source
	ctx = ctxlog.With(ctx, "graph", key)
	logger := ctxlog.FromContext(ctx)
	defer func() {
		if err != nil {
			err = fmt.Errorf("graph %s: %w", key, err)
			logger.Error("Compilation failed.", "error", err)
			a.store.SetError(ctx, key, err)
			a.store.SetStatus(ctx, key, inmemorystore.StatusFailed)
		}
	}()

	a.store.SetStatus(ctx, key, inmemorystore.StatusBuilding)
	prog, err := a.builder.Build(ctx, graph)
	if err != nil {
		return err
	}

	a.store.SetStatus(ctx, key, inmemorystore.StatusOptimizing)
	if err := a.pipeline.Run(ctx, prog); err != nil {
		return err
	}

	a.store.SetProgram(ctx, key, prog)
	a.store.SetStatus(ctx, key, inmemorystore.StatusCompleted)
	logger.Info("Graph compiled.", "modules", len(prog.Modules()), "instructions", prog.Main().Len())
	return nil
}

// emit prints the compiled program of one graph.
func (a *App) emit(ctx context.Context, graph *config.Graph) error {
	prog, _ := a.store.GetProgram(ctx, graph.Source)
	if prog == nil {
		return nil
	}
	if a.cfg.Emit == EmitHCL {
		fmt.Fprintf(a.outW, "# %s\n", graph.Source)
		if err := a.writer.WriteGraph(a.outW, builder.Describe(prog)); err != nil {
			return fmt.Errorf("writing %s: %w", graph.Source, err)
		}
		return nil
	}
	fmt.Fprintf(a.outW, "# %s\n%s\n", graph.Source, prog)
	return nil
}
