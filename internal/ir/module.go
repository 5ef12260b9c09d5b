// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package ir

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/vk/graphc/internal/op"
	"github.com/vk/graphc/internal/shape"
	"github.com/vk/graphc/internal/tensor"
)

// ErrValidation marks a module that violates reference integrity, ordering
// or shape consistency.
var ErrValidation = errors.New("module validation failed")

// spacing is the gap between order positions after renumbering.
const spacing int64 = 1 << 20

// Module is a named, ordered instruction graph. Instruction order is always
// a valid topological order. A module is not safe for concurrent use.
type Module struct {
	name  string
	prog  *Program
	arena []instruction
	names map[string]int32

	head, tail int32
	ret        int32
	params     []int32
	count      int

	// callers are the control-flow instructions that run this module.
	callers []Ref
}

// NewModule creates a standalone module. Modules that take part in control
// flow are created through a Program.
func NewModule(name string) *Module {
	return &Module{
		name:  name,
		names: make(map[string]int32),
		head:  none,
		tail:  none,
		ret:   none,
	}
}

// Name returns the module name.
func (m *Module) Name() string { return m.name }

// Program returns the owning program, or nil for a standalone module.
func (m *Module) Program() *Program { return m.prog }

// Len returns the number of live instructions.
func (m *Module) Len() int { return m.count }

// Begin returns the first instruction, or End for an empty module.
func (m *Module) Begin() Ref { return Ref{mod: m, id: m.head} }

// End returns the insertion point past the last instruction. Inserting at
// End places the instruction ahead of an @return terminal.
func (m *Module) End() Ref { return Ref{mod: m, id: none} }

// Contains reports whether r is a live instruction of m.
func (m *Module) Contains(r Ref) bool { return r.mod == m && r.Valid() }

// Lookup finds a live instruction by name.
func (m *Module) Lookup(name string) (Ref, bool) {
	id, ok := m.names[name]
	if !ok {
		return Ref{}, false
	}
	return Ref{mod: m, id: id}, true
}

// SetName renames an instruction. Names are unique within a module.
func (m *Module) SetName(r Ref, name string) error {
	m.own(r)
	if name == "" {
		return fmt.Errorf("instruction name cannot be empty")
	}
	if id, ok := m.names[name]; ok {
		if id == r.id {
			return nil
		}
		return fmt.Errorf("instruction name '%s' already used in module '%s'", name, m.name)
	}
	in := r.ins()
	delete(m.names, in.name)
	in.name = name
	m.names[name] = r.id
	return nil
}

// Instructions iterates over the live instructions in order. Instructions
// inserted after the cursor are visited. Removing the instruction under the
// cursor is safe: iteration resumes from the successor it had when removed.
func (m *Module) Instructions() iter.Seq[Ref] {
	return func(yield func(Ref) bool) {
		for cur := m.head; cur != none; {
			if !yield(Ref{mod: m, id: cur}) {
				return
			}
			cur = m.arena[cur].next
			for cur != none && !m.arena[cur].alive {
				cur = m.arena[cur].next
			}
		}
	}
}

// Backward iterates over the live instructions in reverse order. The
// instruction under the cursor may be removed.
func (m *Module) Backward() iter.Seq[Ref] {
	return func(yield func(Ref) bool) {
		for cur := m.tail; cur != none; {
			prev := m.arena[cur].prev
			if !yield(Ref{mod: m, id: cur}) {
				return
			}
			if m.arena[cur].alive {
				prev = m.arena[cur].prev
			}
			cur = prev
		}
	}
}

// InsertInstruction inserts o immediately before the given position and
// caches its inferred shape. Inputs from m must precede the insertion point;
// inputs from other modules must come from enclosing modules of the same
// program. Breaking either rule panics. A shape inference failure, whether
// of o or of an instruction calling m, is returned and leaves the module
// unchanged.
func (m *Module) InsertInstruction(before Ref, o op.Operation, inputs []Ref, mods ...*Module) (Ref, error) {
	return m.insert(before, o, inputs, mods, "")
}

// AddInstruction appends o, ahead of an @return terminal when one exists.
func (m *Module) AddInstruction(o op.Operation, inputs []Ref, mods ...*Module) (Ref, error) {
	return m.insert(m.End(), o, inputs, mods, "")
}

func (m *Module) insert(before Ref, o op.Operation, inputs []Ref, mods []*Module, name string) (Ref, error) {
	if before.mod != m {
		panic(fmt.Sprintf("ir: insertion point %v is not in module '%s'", before, m.name))
	}
	if before.id == none && m.ret != none {
		before = Ref{mod: m, id: m.ret}
	}
	if before.id != none && !before.Valid() {
		panic(fmt.Sprintf("ir: insertion point %v was removed", before))
	}
	for _, in := range inputs {
		m.checkInput(o.Name(), in, before)
	}
	for _, sub := range mods {
		m.checkSubmodule(o.Name(), sub)
	}

	shapes := make([]shape.Shape, len(inputs))
	for i, in := range inputs {
		shapes[i] = in.Shape()
	}
	s, err := o.ComputeShape(shapes, subgraphs(mods))
	if err != nil {
		return Ref{}, err
	}

	id := m.link(before)
	r := Ref{mod: m, id: id}
	in := r.ins()
	in.op = o
	in.inputs = slices.Clone(inputs)
	in.mods = slices.Clone(mods)
	in.shape = s
	if name == "" {
		name = m.uniqueName(strings.TrimPrefix(o.Name(), "@"), id)
	}
	in.name = name
	m.names[name] = id
	for _, a := range inputs {
		a.addUser(r)
	}
	for _, sub := range mods {
		if !slices.Contains(sub.callers, r) {
			sub.callers = append(sub.callers, r)
		}
	}
	if m.ret == none && m.tail == id {
		// A new implicit terminal changes the module outputs.
		if err := m.refreshModuleUsers(); err != nil {
			m.discard(r)
			_ = m.refreshModuleUsers()
			return Ref{}, err
		}
	}
	return r, nil
}

// discard takes back an instruction that insert just linked.
func (m *Module) discard(r Ref) {
	in := r.ins()
	for _, a := range in.inputs {
		a.removeUser(r)
	}
	detach(r, in.mods)
	delete(m.names, in.name)
	m.unlink(r.id)
	in.inputs = nil
	in.mods = nil
}

func (m *Module) checkInput(opName string, in, before Ref) {
	switch {
	case !in.Valid():
		panic(fmt.Sprintf("ir: input %v of %s is not a live instruction", in, opName))
	case in.mod == m:
		if !in.Before(before) {
			panic(fmt.Sprintf("ir: input %v of %s does not precede the insertion point", in, opName))
		}
	case m.prog == nil || in.mod.prog != m.prog:
		panic(fmt.Sprintf("ir: input %v of %s belongs to another program", in, opName))
	}
}

func (m *Module) checkSubmodule(opName string, sub *Module) {
	switch {
	case sub == nil:
		panic(fmt.Sprintf("ir: nil module passed to %s", opName))
	case sub == m:
		panic(fmt.Sprintf("ir: %s in module '%s' refers to its own module", opName, m.name))
	case m.prog == nil || sub.prog != m.prog:
		panic(fmt.Sprintf("ir: module '%s' passed to %s belongs to another program", sub.name, opName))
	}
}

func (m *Module) uniqueName(base string, id int32) string {
	name := fmt.Sprintf("%s_%d", base, id)
	for i := 1; ; i++ {
		if _, taken := m.names[name]; !taken {
			return name
		}
		name = fmt.Sprintf("%s_%d_%d", base, id, i)
	}
}

// link allocates a slot placed before the given position.
func (m *Module) link(before Ref) int32 {
	id := int32(len(m.arena))
	m.arena = append(m.arena, instruction{alive: true})

	prev := m.tail
	if before.id != none {
		prev = m.arena[before.id].prev
	}
	next := before.id
	e := &m.arena[id]
	e.prev, e.next = prev, next
	if prev == none {
		m.head = id
	} else {
		m.arena[prev].next = id
	}
	if next == none {
		m.tail = id
	} else {
		m.arena[next].prev = id
	}
	m.count++

	lo, hi := int64(0), int64(0)
	if prev != none {
		lo = m.arena[prev].pos
	}
	if next != none {
		hi = m.arena[next].pos
	} else {
		hi = lo + 2*spacing
	}
	if hi-lo < 2 {
		m.renumber()
	} else {
		e.pos = lo + (hi-lo)/2
	}
	return id
}

func (m *Module) renumber() {
	p := spacing
	for cur := m.head; cur != none; cur = m.arena[cur].next {
		m.arena[cur].pos = p
		p += spacing
	}
}

// unlink takes a slot out of the order. Its next link is left in place.
func (m *Module) unlink(id int32) {
	e := &m.arena[id]
	if e.prev == none {
		m.head = e.next
	} else {
		m.arena[e.prev].next = e.next
	}
	if e.next == none {
		m.tail = e.prev
	} else {
		m.arena[e.next].prev = e.prev
	}
	e.alive = false
	m.count--
}

func (m *Module) own(r Ref) {
	if r.mod != m || !r.Valid() {
		panic(fmt.Sprintf("ir: %v is not a live instruction of module '%s'", r, m.name))
	}
}

// RemoveInstruction deletes an instruction that nothing refers to. It panics
// if the instruction still has users.
func (m *Module) RemoveInstruction(r Ref) {
	m.own(r)
	in := r.ins()
	if len(in.users) > 0 {
		panic(fmt.Sprintf("ir: cannot remove %v: still used by %v", r, in.users))
	}
	terminal := m.Terminal() == r
	for _, a := range in.inputs {
		a.removeUser(r)
	}
	detach(r, in.mods)
	delete(m.names, in.name)
	if i := slices.Index(m.params, r.id); i >= 0 {
		m.params = slices.Delete(m.params, i, i+1)
	}
	if m.ret == r.id {
		m.ret = none
	}
	m.unlink(r.id)
	in.inputs = nil
	in.mods = nil
	if terminal {
		// Errors surface again through Validate.
		_ = m.refreshModuleUsers()
	}
}

// ReplaceArgument rewires every occurrence of old among the inputs of ins to
// rep and recomputes shapes downstream. rep must precede ins when they share
// a module. A shape inference failure on ins leaves it unchanged.
func (m *Module) ReplaceArgument(ins, old, rep Ref) error {
	m.own(ins)
	m.checkInput(ins.Op().Name(), rep, ins)

	in := ins.ins()
	if !slices.Contains(in.inputs, old) {
		return nil
	}
	saved := slices.Clone(in.inputs)
	for i, a := range in.inputs {
		if a == old {
			in.inputs[i] = rep
		}
	}
	s, err := ins.computeShape()
	if err != nil {
		in.inputs = saved
		return err
	}
	if old.Valid() {
		old.removeUser(ins)
	}
	rep.addUser(ins)
	return propagate(ins, s)
}

// ReplaceAllUsesWith rewires every user of old, except rep itself, to read
// rep instead, recomputing shapes downstream. Afterwards old is removed when
// it has no users and is neither the @return terminal nor a parameter. An
// implicit terminal is removed only when rep directly precedes it;
// otherwise it becomes identity(rep) so the module outputs are kept.
func (m *Module) ReplaceAllUsesWith(old, rep Ref) error {
	m.own(old)
	if old == rep {
		return nil
	}
	if !rep.Valid() {
		panic(fmt.Sprintf("ir: replacement %v is not a live instruction", rep))
	}

	var users []Ref
	for _, u := range old.Outputs() {
		if u == rep {
			continue
		}
		if u.mod == rep.mod && !rep.Before(u) {
			panic(fmt.Sprintf("ir: replacement %v does not precede user %v", rep, u))
		}
		users = append(users, u)
	}
	for _, u := range users {
		uin := u.ins()
		for i, a := range uin.inputs {
			if a == old {
				uin.inputs[i] = rep
			}
		}
		old.removeUser(u)
		rep.addUser(u)
	}
	for _, u := range users {
		s, err := u.computeShape()
		if err != nil {
			return fmt.Errorf("recomputing shape of %v: %w", u, err)
		}
		if err := propagate(u, s); err != nil {
			return err
		}
	}

	if len(old.ins().users) > 0 || m.ret == old.id || slices.Contains(m.params, old.id) {
		return nil
	}
	if m.ret == none && m.tail == old.id && !(rep.mod == m && old.ins().prev == rep.id) {
		return m.becomeIdentity(old, rep)
	}
	m.RemoveInstruction(old)
	return nil
}

// ReplaceInstruction inserts o at old's position and moves every user of old
// over to it.
func (m *Module) ReplaceInstruction(old Ref, o op.Operation, inputs []Ref, mods ...*Module) (Ref, error) {
	m.own(old)
	rep, err := m.InsertInstruction(old, o, inputs, mods...)
	if err != nil {
		return Ref{}, err
	}
	if err := m.ReplaceAllUsesWith(old, rep); err != nil {
		return Ref{}, err
	}
	return rep, nil
}

func (m *Module) becomeIdentity(r, rep Ref) error {
	in := r.ins()
	for _, a := range in.inputs {
		a.removeUser(r)
	}
	detach(r, in.mods)
	in.op = op.Identity{}
	in.inputs = []Ref{rep}
	in.mods = nil
	rep.addUser(r)
	s, err := r.computeShape()
	if err != nil {
		return err
	}
	return propagate(r, s)
}

// propagate stores a recomputed shape and, when it changed, recomputes the
// users that depend on it. A changed terminal also refreshes the
// control-flow instructions that run the module.
func propagate(r Ref, s shape.Shape) error {
	in := r.ins()
	if in.shape.Equal(s) {
		return nil
	}
	in.shape = s
	work := r.dependents()
	for len(work) > 0 {
		cur := work[0]
		work = work[1:]
		ns, err := cur.computeShape()
		if err != nil {
			return fmt.Errorf("recomputing shape of %v: %w", cur, err)
		}
		c := cur.ins()
		if c.shape.Equal(ns) {
			continue
		}
		c.shape = ns
		work = append(work, cur.dependents()...)
	}
	return nil
}

func (r Ref) dependents() []Ref {
	out := slices.Clone(r.ins().users)
	if r.mod.Terminal() == r {
		out = append(out, r.mod.moduleUsers()...)
	}
	return out
}

// moduleUsers returns the instructions, in any module of the program, that
// refer to m as a submodule.
func (m *Module) moduleUsers() []Ref {
	return slices.Clone(m.callers)
}

func detach(r Ref, mods []*Module) {
	for _, sub := range mods {
		if i := slices.Index(sub.callers, r); i >= 0 {
			sub.callers = slices.Delete(sub.callers, i, i+1)
		}
	}
}

func (m *Module) refreshModuleUsers() error {
	for _, u := range m.moduleUsers() {
		s, err := u.computeShape()
		if err != nil {
			return err
		}
		if err := propagate(u, s); err != nil {
			return err
		}
	}
	return nil
}

// AddParameter declares a named input after the existing parameters. It
// panics if the name is taken or the shape is a tuple.
func (m *Module) AddParameter(name string, s shape.Shape) Ref {
	if _, taken := m.names[name]; taken {
		panic(fmt.Sprintf("ir: name '%s' already used in module '%s'", name, m.name))
	}
	before := m.Begin()
	if n := len(m.params); n > 0 {
		before = Ref{mod: m, id: m.params[n-1]}.Next()
	}
	r, err := m.insert(before, op.NewParam(name, s), nil, nil, name)
	if err != nil {
		panic(fmt.Sprintf("ir: parameter '%s': %v", name, err))
	}
	m.params = append(m.params, r.id)
	return r
}

// AddLiteral inserts a constant at the front of the module.
func (m *Module) AddLiteral(t tensor.Tensor) Ref {
	r, err := m.insert(m.Begin(), op.NewLiteral(t), nil, nil, "")
	if err != nil {
		panic(fmt.Sprintf("ir: literal: %v", err))
	}
	return r
}

// AddReturn sets the module outputs, creating the @return terminal or
// rewiring the existing one.
func (m *Module) AddReturn(outputs ...Ref) (Ref, error) {
	if m.ret == none {
		r, err := m.insert(m.End(), op.Return{}, outputs, nil, "")
		if err != nil {
			return Ref{}, err
		}
		m.ret = r.id
		return r, m.refreshModuleUsers()
	}

	r := Ref{mod: m, id: m.ret}
	for _, o := range outputs {
		m.checkInput("@return", o, r)
	}
	shapes := make([]shape.Shape, len(outputs))
	for i, o := range outputs {
		shapes[i] = o.Shape()
	}
	s, err := op.Return{}.ComputeShape(shapes, nil)
	if err != nil {
		return Ref{}, err
	}
	in := r.ins()
	for _, a := range in.inputs {
		a.removeUser(r)
	}
	in.inputs = slices.Clone(outputs)
	for _, a := range outputs {
		a.addUser(r)
	}
	return r, propagate(r, s)
}

// Terminal returns the @return instruction if present, otherwise the last
// instruction. It is invalid for an empty module.
func (m *Module) Terminal() Ref {
	if m.ret != none {
		return Ref{mod: m, id: m.ret}
	}
	return Ref{mod: m, id: m.tail}
}

// Parameters returns the parameters in declaration order.
func (m *Module) Parameters() []Ref {
	out := make([]Ref, len(m.params))
	for i, id := range m.params {
		out[i] = Ref{mod: m, id: id}
	}
	return out
}

// Parameter finds a parameter by name.
func (m *Module) Parameter(name string) (Ref, bool) {
	r, ok := m.Lookup(name)
	if !ok || !slices.Contains(m.params, r.id) {
		return Ref{}, false
	}
	return r, true
}

// ParameterNames returns the parameter names in declaration order.
func (m *Module) ParameterNames() []string {
	out := make([]string, len(m.params))
	for i, id := range m.params {
		out[i] = m.arena[id].name
	}
	return out
}

// ParameterShapes returns the parameter shapes in declaration order.
func (m *Module) ParameterShapes() []shape.Shape {
	out := make([]shape.Shape, len(m.params))
	for i, id := range m.params {
		out[i] = m.arena[id].shape
	}
	return out
}

// OutputShapes returns the shapes of the module outputs: the inputs of
// @return, or the shape of the last instruction.
func (m *Module) OutputShapes() []shape.Shape {
	t := m.Terminal()
	if !t.Valid() {
		return nil
	}
	if t.id != m.ret {
		return []shape.Shape{t.Shape()}
	}
	in := t.ins()
	out := make([]shape.Shape, len(in.inputs))
	for i, a := range in.inputs {
		out[i] = a.Shape()
	}
	return out
}

// Outputs returns the instructions whose values the module returns.
func (m *Module) Outputs() []Ref {
	t := m.Terminal()
	if !t.Valid() {
		return nil
	}
	if t.id != m.ret {
		return []Ref{t}
	}
	return t.Inputs()
}

func (m *Module) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "module: %q\n", m.name)
	for r := range m.Instructions() {
		in := r.ins()
		sb.WriteString(in.name)
		sb.WriteString(" = ")
		if p, ok := in.op.(op.Param); ok {
			sb.WriteString("@param:" + p.Parameter)
		} else {
			sb.WriteString(op.String(in.op))
		}
		if len(in.inputs) > 0 {
			names := make([]string, len(in.inputs))
			for i, a := range in.inputs {
				names[i] = a.ins().name
				if a.mod != m {
					names[i] = a.String()
				}
			}
			sb.WriteString("(" + strings.Join(names, ", ") + ")")
		}
		if len(in.mods) > 0 {
			names := make([]string, len(in.mods))
			for i, sub := range in.mods {
				names[i] = sub.name
			}
			sb.WriteString(", [" + strings.Join(names, ", ") + "]")
		}
		sb.WriteString(" -> " + in.shape.String() + "\n")
	}
	return sb.String()
}
