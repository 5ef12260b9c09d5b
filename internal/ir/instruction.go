// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package ir

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/vk/graphc/internal/op"
	"github.com/vk/graphc/internal/shape"
)

// none marks a missing arena link.
const none int32 = -1

// instruction is an arena slot. Slots are never reused, so a Ref stays
// meaningful after its instruction is removed; dead slots keep the successor
// link they had at removal time so iterators can resume from them.
type instruction struct {
	name   string
	op     op.Operation
	inputs []Ref
	mods   []*Module
	shape  shape.Shape
	users  []Ref

	prev, next int32
	pos        int64
	alive      bool
}

// Ref is a non-owning handle to an instruction: the owning module and the
// arena slot. The zero Ref refers to nothing.
type Ref struct {
	mod *Module
	id  int32
}

func (r Ref) ins() *instruction {
	if r.mod == nil || r.id < 0 || int(r.id) >= len(r.mod.arena) {
		panic(fmt.Sprintf("ir: invalid instruction reference %v", r))
	}
	return &r.mod.arena[r.id]
}

// Valid reports whether r refers to a live instruction.
func (r Ref) Valid() bool {
	return r.mod != nil && r.id >= 0 && int(r.id) < len(r.mod.arena) && r.mod.arena[r.id].alive
}

// Module returns the owning module.
func (r Ref) Module() *Module { return r.mod }

// Name returns the instruction name, unique within its module.
func (r Ref) Name() string { return r.ins().name }

// Op returns the operation.
func (r Ref) Op() op.Operation { return r.ins().op }

// Inputs returns the argument references in argument order.
func (r Ref) Inputs() []Ref { return slices.Clone(r.ins().inputs) }

// Modules returns the nested modules the instruction refers to.
func (r Ref) Modules() []*Module { return slices.Clone(r.ins().mods) }

// Shape returns the cached output shape.
func (r Ref) Shape() shape.Shape { return r.ins().shape }

// Outputs returns the instructions reading r: those in r's module in module
// order, then those in nested modules in the order they were attached.
func (r Ref) Outputs() []Ref {
	users := slices.Clone(r.ins().users)
	slices.SortStableFunc(users, func(a, b Ref) int {
		switch {
		case a.mod == r.mod && b.mod == r.mod:
			return cmp.Compare(a.ins().pos, b.ins().pos)
		case a.mod == r.mod:
			return -1
		case b.mod == r.mod:
			return 1
		}
		return 0
	})
	return users
}

// Next returns the following live instruction, or an invalid Ref at the end
// of the module. Next may be called on a removed instruction.
func (r Ref) Next() Ref {
	next := r.ins().next
	for next != none && !r.mod.arena[next].alive {
		next = r.mod.arena[next].next
	}
	return Ref{mod: r.mod, id: next}
}

// Before reports whether r comes before o in their shared module.
func (r Ref) Before(o Ref) bool {
	if r.mod != o.mod {
		return false
	}
	if o.id == none {
		return true
	}
	return r.ins().pos < o.ins().pos
}

func (r Ref) String() string {
	if r.mod == nil {
		return "<nil>"
	}
	if r.id == none {
		return r.mod.name + ".<end>"
	}
	return r.mod.name + "." + r.mod.arena[r.id].name
}

// InputShapes returns the cached shapes of the inputs.
func (r Ref) InputShapes() []shape.Shape {
	in := r.ins()
	shapes := make([]shape.Shape, len(in.inputs))
	for i, a := range in.inputs {
		shapes[i] = a.ins().shape
	}
	return shapes
}

// InferShape runs r's shape inference over the given input shapes, keeping
// its modules. r is not modified.
func (r Ref) InferShape(inputs []shape.Shape) (shape.Shape, error) {
	in := r.ins()
	return in.op.ComputeShape(inputs, subgraphs(in.mods))
}

func (r Ref) computeShape() (shape.Shape, error) {
	return r.InferShape(r.InputShapes())
}

func (r Ref) removeUser(u Ref) {
	in := r.ins()
	if i := slices.Index(in.users, u); i >= 0 {
		in.users = slices.Delete(in.users, i, i+1)
	}
}

func (r Ref) addUser(u Ref) {
	in := r.ins()
	if !slices.Contains(in.users, u) {
		in.users = append(in.users, u)
	}
}

func subgraphs(mods []*Module) []op.Subgraph {
	if len(mods) == 0 {
		return nil
	}
	out := make([]op.Subgraph, len(mods))
	for i, m := range mods {
		out[i] = m
	}
	return out
}
