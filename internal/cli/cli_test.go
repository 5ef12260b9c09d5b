package cli

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/graphc/internal/app"
)

func TestParse(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name           string
		args           []string
		expectExit     bool
		expectErr      string
		expectedConfig *app.Config
		expectOutput   string
	}{
		{
			name: "Happy Path with all flags",
			args: []string{
				"-graph", "/test/graphs",
				"--pipeline=fast",
				"--emit=HCL",
				"--log-level=DEBUG",
				"--log-format=text",
				"--workers=8",
				"/test/pipelines.hcl",
			},
			expectedConfig: &app.Config{
				Paths:     []string{"/test/graphs", "/test/pipelines.hcl"},
				Pipeline:  "fast",
				Emit:      "hcl",
				LogLevel:  "debug",
				LogFormat: "text",
				Workers:   8,
			},
		},
		{
			name: "Shorthand flag and defaults",
			args: []string{"-g", "/short/path"},
			expectedConfig: &app.Config{
				Paths:     []string{"/short/path"},
				Pipeline:  "default",
				Emit:      "text",
				LogLevel:  "info",
				LogFormat: "json",
				Workers:   4,
			},
		},
		{
			name: "Positional arguments for paths",
			args: []string{"/a.hcl", "/b"},
			expectedConfig: &app.Config{
				Paths:     []string{"/a.hcl", "/b"},
				Pipeline:  "default",
				Emit:      "text",
				LogLevel:  "info",
				LogFormat: "json",
				Workers:   4,
			},
		},
		{
			name:         "Help flag triggers clean exit",
			args:         []string{"-h"},
			expectExit:   true,
			expectOutput: "Usage:",
		},
		{
			name:         "No path prints usage",
			args:         []string{},
			expectExit:   true,
			expectOutput: "graphc [options] PATH...",
		},
		{
			name:      "Invalid log format",
			args:      []string{"--log-format=xml", "/p"},
			expectErr: "invalid log-format",
		},
		{
			name:      "Invalid log level",
			args:      []string{"--log-level=trace", "/p"},
			expectErr: "invalid log-level",
		},
		{
			name:      "Invalid emit format",
			args:      []string{"--emit=dot", "/p"},
			expectErr: "invalid emit format 'dot'",
		},
		{
			name:      "Invalid worker count",
			args:      []string{"--workers=0", "/p"},
			expectErr: "workers must be at least 1",
		},
		{
			name:      "Unknown flag",
			args:      []string{"--bogus"},
			expectErr: "flag provided but not defined: -bogus",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var out bytes.Buffer

			cfg, shouldExit, err := Parse(tc.args, &out)

			if tc.expectErr != "" {
				require.Error(t, err)
				var exitErr *ExitError
				require.ErrorAs(t, err, &exitErr)
				assert.Equal(t, 2, exitErr.Code)
				assert.Contains(t, exitErr.Message, tc.expectErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectExit, shouldExit)
			if tc.expectOutput != "" {
				assert.Contains(t, out.String(), tc.expectOutput)
			}
			if tc.expectedConfig != nil {
				if diff := cmp.Diff(tc.expectedConfig, cfg); diff != "" {
					t.Errorf("config mismatch (-want +got):\n%s", diff)
				}
			}
		})
	}
}
