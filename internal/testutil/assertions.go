package testutil

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"github.com/vk/graphc/internal/tensor"
)

// AllClose fails the test unless got and want have the same logical lens and
// their elements agree within an absolute tolerance.
func AllClose(t *testing.T, want, got tensor.Tensor, tol float64) {
	t.Helper()

	require.Equal(t, want.Shape().Lens(), got.Shape().Lens(), "lens differ")
	if diff := cmp.Diff(want.Values(), got.Values(), cmpopts.EquateApprox(0, tol)); diff != "" {
		t.Errorf("values differ beyond %g (-want +got):\n%s", tol, diff)
	}
}

// ValuesClose is AllClose over plain row-major values.
func ValuesClose(t *testing.T, want []float64, got tensor.Tensor, tol float64) {
	t.Helper()

	if diff := cmp.Diff(want, got.Values(), cmpopts.EquateApprox(0, tol)); diff != "" {
		t.Errorf("values differ beyond %g (-want +got):\n%s", tol, diff)
	}
}
