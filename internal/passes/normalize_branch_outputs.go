package passes

import (
	"context"

	"github.com/vk/graphc/internal/ctxlog"
	"github.com/vk/graphc/internal/ir"
	"github.com/vk/graphc/internal/op"
)

// NormalizeBranchOutputs gives if results a standard layout. A non-standard
// result gets a contiguous right after it that all its consumers read
// instead. For multi-output branches each non-standard get_tuple_elem of
// the result is normalized the same way. Values already read only through
// contiguous are left alone, which makes the pass idempotent.
type NormalizeBranchOutputs struct{}

func (NormalizeBranchOutputs) Name() string { return "normalize_branch_outputs" }

func (NormalizeBranchOutputs) Apply(ctx context.Context, m *ir.Module) error {
	inserted := 0
	for r := range m.Instructions() {
		if r.Op().Name() != "if" {
			continue
		}
		targets := []ir.Ref{r}
		if r.Shape().IsTuple() {
			targets = targets[:0]
			for _, u := range r.Outputs() {
				if u.Op().Name() == "get_tuple_elem" {
					targets = append(targets, u)
				}
			}
		}
		for _, t := range targets {
			done, err := normalize(t)
			if err != nil {
				return err
			}
			if done {
				inserted++
			}
		}
	}

	ctxlog.FromContext(ctx).Debug("Normalized branch outputs.", "module", m.Name(), "inserted", inserted)
	return nil
}

// normalize inserts contiguous after r and moves r's consumers onto it.
func normalize(r ir.Ref) (bool, error) {
	s := r.Shape()
	if s.Standard() || s.Elements() == 0 {
		return false, nil
	}
	users := r.Outputs()
	if len(users) > 0 && allContiguous(users) {
		return false, nil
	}

	m := r.Module()
	c, err := m.InsertInstruction(r.Next(), op.Contiguous{}, []ir.Ref{r})
	if err != nil {
		return false, err
	}
	for _, u := range users {
		if err := u.Module().ReplaceArgument(u, r, c); err != nil {
			return false, err
		}
	}
	return true, nil
}

func allContiguous(refs []ir.Ref) bool {
	for _, r := range refs {
		if r.Op().Name() != "contiguous" {
			return false
		}
	}
	return true
}
