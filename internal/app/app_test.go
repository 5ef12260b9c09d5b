package app_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/graphc/internal/app"
	"github.com/vk/graphc/internal/hcl_adapter"
	"github.com/vk/graphc/internal/inmemorystore"
	"github.com/vk/graphc/internal/testutil"
)

const quantizeHCL = `
module "main" {
  parameter "x" {
    type = "float_type"
    lens = [1, 3, 6, 6]
  }
  literal "scale" {
    type = "float_type"
    lens = [1]
    data = [0.5]
  }
  instruction "q" {
    op         = "quantizelinear"
    inputs     = ["x", "scale"]
    attributes = { axis = 1 }
  }
  outputs = ["q"]
}
`

const layoutHCL = `
module "main" {
  parameter "x" {
    type = "float_type"
    lens = [2, 3]
  }
  instruction "t" {
    op         = "transpose"
    inputs     = ["x"]
    attributes = { permutation = [1, 0] }
  }
  instruction "c" {
    op     = "contiguous"
    inputs = ["t"]
  }
  instruction "r" {
    op     = "relu"
    inputs = ["c"]
  }
}
`

const brokenHCL = `
module "main" {
  parameter "a" {
    type = "float_type"
    lens = [2]
  }
  parameter "b" {
    type = "float_type"
    lens = [3]
  }
  instruction "sum" {
    op     = "add"
    inputs = ["a", "b"]
  }
}
`

func newTestApp(t *testing.T, files map[string]string, cfg app.Config) (*app.App, *testutil.SafeBuffer, *testutil.SafeBuffer, string) {
	t.Helper()

	dir := testutil.WriteFiles(t, files)
	cfg.Paths = []string{dir}
	if cfg.Pipeline == "" {
		cfg.Pipeline = "default"
	}
	if cfg.Emit == "" {
		cfg.Emit = app.EmitText
	}
	if cfg.Workers == 0 {
		cfg.Workers = 2
	}
	cfg.LogLevel = "debug"
	cfg.LogFormat = "text"
	appCfg, err := app.NewConfig(cfg)
	require.NoError(t, err)

	out, logs := &testutil.SafeBuffer{}, &testutil.SafeBuffer{}
	a := app.NewApp(out, logs, appCfg, hcl_adapter.NewLoader(), hcl_adapter.NewWriter())
	return a, out, logs, dir
}

func TestRun_CompilesEveryGraph(t *testing.T) {
	// Arrange
	a, out, logs, dir := newTestApp(t, map[string]string{
		"layout.hcl":   layoutHCL,
		"quantize.hcl": quantizeHCL,
	}, app.Config{})

	// Act
	err := a.Run(context.Background())

	// Assert
	require.NoError(t, err, logs.String())
	text := out.String()
	layout, quantize := filepath.Join(dir, "layout.hcl"), filepath.Join(dir, "quantize.hcl")
	assert.Less(t, strings.Index(text, "# "+layout), strings.Index(text, "# "+quantize), "programs print in load order")
	assert.NotContains(t, text, "= quantizelinear")
	assert.Contains(t, text, "= clip")

	for _, key := range []string{layout, quantize} {
		status, _ := a.Store().GetStatus(context.Background(), key)
		assert.Equal(t, inmemorystore.StatusCompleted, status, key)
		p, _ := a.Store().GetProgram(context.Background(), key)
		assert.NotNil(t, p, key)
	}
	assert.Equal(t, []string{"rewrite_quantization", "eliminate_contiguous", "normalize_branch_outputs", "dead_code_elimination"}, a.Pipeline().Names())
	assert.Contains(t, logs.String(), "Compilation finished.")
}

func TestRun_ReportsEveryFailure(t *testing.T) {
	// Arrange
	a, out, _, dir := newTestApp(t, map[string]string{
		"a_broken.hcl": brokenHCL,
		"b_good.hcl":   quantizeHCL,
		"c_broken.hcl": brokenHCL,
	}, app.Config{Workers: 1})

	// Act
	err := a.Run(context.Background())

	// Assert
	require.Error(t, err)
	assert.ErrorContains(t, err, "graph "+filepath.Join(dir, "a_broken.hcl"))
	assert.ErrorContains(t, err, "graph "+filepath.Join(dir, "c_broken.hcl"))
	assert.Contains(t, out.String(), "# "+filepath.Join(dir, "b_good.hcl"), "good graphs still print")

	status, _ := a.Store().GetStatus(context.Background(), filepath.Join(dir, "a_broken.hcl"))
	assert.Equal(t, inmemorystore.StatusFailed, status)
}

func TestRun_PipelineFromFile(t *testing.T) {
	a, out, _, _ := newTestApp(t, map[string]string{
		"pipelines.hcl": `
pipeline "layout_only" {
  pass "eliminate_contiguous" {
    op_name = "contiguous"
  }
}
`,
		"quantize.hcl": quantizeHCL,
	}, app.Config{Pipeline: "layout_only"})

	require.NoError(t, a.Run(context.Background()))

	assert.Equal(t, []string{"eliminate_contiguous"}, a.Pipeline().Names())
	assert.Contains(t, out.String(), "= quantizelinear", "quantization is not lowered")
}

func TestRun_EmitHCL(t *testing.T) {
	a, out, _, _ := newTestApp(t, map[string]string{"layout.hcl": layoutHCL}, app.Config{Emit: app.EmitHCL})

	require.NoError(t, a.Run(context.Background()))

	assert.Contains(t, out.String(), `module "main" {`)
	assert.Contains(t, out.String(), `parameter "x" {`)
}

func TestRun_NoGraphs(t *testing.T) {
	a, out, logs, _ := newTestApp(t, map[string]string{"p.hcl": `pipeline "default" {}`}, app.Config{})

	require.NoError(t, a.Run(context.Background()))

	assert.Empty(t, out.String())
	assert.Contains(t, logs.String(), "No graphs found")
	assert.Contains(t, logs.String(), "Pipeline has no passes")
}

func TestNewApp_Panics(t *testing.T) {
	testCases := []struct {
		name      string
		files     map[string]string
		pipeline  string
		wantPanic string
	}{
		{
			name:      "syntax error",
			files:     map[string]string{"g.hcl": `module "main" {`},
			wantPanic: "failed to load configuration",
		},
		{
			name:      "unknown pass",
			files:     map[string]string{"p.hcl": "pipeline \"default\" {\n  pass \"fold_constants\" {}\n}\n"},
			wantPanic: "unknown pass: 'fold_constants'",
		},
		{
			name:      "undefined pipeline",
			files:     map[string]string{"g.hcl": quantizeHCL},
			pipeline:  "fast",
			wantPanic: "pipeline 'fast' is not defined",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			defer func() {
				r := recover()
				require.NotNil(t, r, "NewApp should have panicked")
				err, ok := r.(error)
				require.True(t, ok)
				assert.Contains(t, err.Error(), tc.wantPanic)
			}()
			newTestApp(t, tc.files, app.Config{Pipeline: tc.pipeline})
		})
	}
}
