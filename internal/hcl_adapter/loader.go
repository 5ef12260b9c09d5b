package hcl_adapter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/graphc/internal/config"
	"github.com/vk/graphc/internal/ctxlog"
	"github.com/vk/graphc/internal/fsutil"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

var _ config.Loader = (*Loader)(nil)

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every .hcl file under the given paths. Pipeline blocks from
// all files are merged by name; each file declaring modules becomes one
// graph.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	hclFiles, err := l.findAllHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(hclFiles))

	model := config.NewModel()
	parser := hclparse.NewParser()
	for _, file := range hclFiles {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		for _, pb := range root.Pipelines {
			if _, dup := model.Pipelines[pb.Name]; dup {
				return nil, fmt.Errorf("%s: pipeline '%s' is already defined", file, pb.Name)
			}
			p, err := translatePipeline(ctx, pb)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", file, err)
			}
			model.Pipelines[p.Name] = p
		}

		if len(root.Modules) == 0 {
			continue
		}
		g := &config.Graph{Source: file}
		for _, mb := range root.Modules {
			m, err := translateModule(ctx, mb)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", file, err)
			}
			g.Modules = append(g.Modules, m)
		}
		model.Graphs = append(model.Graphs, g)
	}

	logger.Debug("HCL loading complete.", "pipelines", len(model.Pipelines), "graphs", len(model.Graphs))
	return model, nil
}

// findAllHCLFiles walks all given paths and returns a flat list of all .hcl
// files found, in lexical order within each directory.
func (l *Loader) findAllHCLFiles(paths []string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if _, wasSeen := seen[p]; !wasSeen {
			allFiles = append(allFiles, p)
			seen[p] = struct{}{}
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if !info.IsDir() {
			if filepath.Ext(path) != ".hcl" {
				return nil, fmt.Errorf("%s is not an .hcl file", path)
			}
			add(path)
			continue
		}
		files, err := fsutil.FindFilesByExtension(path, ".hcl")
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			add(f)
		}
	}
	return allFiles, nil
}
