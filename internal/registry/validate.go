package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/vk/graphc/internal/config"
	"github.com/vk/graphc/internal/ctxlog"
)

// Validate checks every pipeline of the model against the registered
// passes: names must be registered and attributes must fit the Go fields
// they set. All problems are reported together.
func (r *Registry) Validate(ctx context.Context, model *config.Model) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	names := make([]string, 0, len(model.Pipelines))
	for name := range model.Pipelines {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		pl := model.Pipelines[name]
		if len(pl.Passes) == 0 {
			logger.Warn("Pipeline has no passes; graphs compiled with it are only validated.", "pipeline", name)
			continue
		}
		for i, pc := range pl.Passes {
			if _, err := r.Make(pc); err != nil {
				errs = append(errs, fmt.Sprintf("pipeline '%s', pass %d: %v", name, i, err))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}

	logger.Debug("Registry validation passed.", "pipelines", len(names), "passes", len(r.Names()))
	return nil
}
