// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package ir

import (
	"fmt"
	"slices"
	"strings"
)

// Validate checks reference integrity, ordering and shape consistency. All
// problems are reported together, wrapped in ErrValidation.
func (m *Module) Validate() error {
	var problems []string
	report := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	enclosing := map[string]bool{}
	if m.prog != nil {
		g, err := m.prog.Graph()
		if err != nil {
			report("%v", err)
		} else if anc, err := g.Ancestors(m.name); err == nil {
			for _, name := range anc {
				enclosing[name] = true
			}
		}
	}

	for r := range m.Instructions() {
		in := r.ins()
		for i, a := range in.inputs {
			if !a.Valid() {
				report("instruction '%s': input %d is not a live instruction", in.name, i)
				continue
			}
			switch {
			case a.mod == m:
				if !a.Before(r) {
					report("instruction '%s': input '%s' does not precede it", in.name, a.Name())
				}
			case m.prog == nil || a.mod.prog != m.prog:
				report("instruction '%s': input %v belongs to another program", in.name, a)
			case !enclosing[a.mod.name]:
				report("instruction '%s': input %v is in a module that does not enclose '%s'", in.name, a, m.name)
			}
			if !slices.Contains(a.ins().users, r) {
				report("instruction '%s': missing from the users of %v", in.name, a)
			}
		}
		for _, u := range in.users {
			if !u.Valid() || !slices.Contains(u.ins().inputs, r) {
				report("instruction '%s': stale user %v", in.name, u)
			}
		}
		for _, sub := range in.mods {
			if m.prog == nil || sub.prog != m.prog {
				report("instruction '%s': module '%s' belongs to another program", in.name, sub.name)
			}
		}

		s, err := r.computeShape()
		switch {
		case err != nil:
			report("instruction '%s': %v", in.name, err)
		case !s.Equal(in.shape):
			report("instruction '%s': cached shape %s, inferred %s", in.name, in.shape, s)
		}
	}

	if m.ret != none && m.tail != m.ret {
		report("@return is not the last instruction")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: module '%s':\n- %s", ErrValidation, m.name, strings.Join(problems, "\n- "))
	}
	return nil
}
