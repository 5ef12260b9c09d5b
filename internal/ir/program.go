// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package ir

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vk/graphc/internal/dag"
)

// MainModule is the name of the module a program is entered through.
const MainModule = "main"

// Program owns a set of named modules. The main module is created eagerly.
type Program struct {
	modules map[string]*Module
	order   []*Module
}

// NewProgram returns a program holding an empty main module.
func NewProgram() *Program {
	p := &Program{modules: make(map[string]*Module)}
	p.add(MainModule)
	return p
}

func (p *Program) add(name string) *Module {
	m := NewModule(name)
	m.prog = p
	p.modules[name] = m
	p.order = append(p.order, m)
	return m
}

// Main returns the main module.
func (p *Program) Main() *Module { return p.modules[MainModule] }

// Module finds a module by name.
func (p *Program) Module(name string) (*Module, bool) {
	m, ok := p.modules[name]
	return m, ok
}

// Modules returns the modules in creation order.
func (p *Program) Modules() []*Module {
	out := make([]*Module, len(p.order))
	copy(out, p.order)
	return out
}

// CreateModule adds an empty module. A taken name gets the first free
// numeric suffix: name_1, name_2, and so on.
func (p *Program) CreateModule(name string) *Module {
	unique := name
	for i := 1; p.modules[unique] != nil; i++ {
		unique = fmt.Sprintf("%s_%d", name, i)
	}
	return p.add(unique)
}

// Graph builds the module nesting graph: an edge runs from each module to
// every module its instructions refer to. A module nesting itself,
// directly or not, is an error.
func (p *Program) Graph() (*dag.Graph, error) {
	g := dag.New()
	for _, m := range p.order {
		g.AddNode(m.name)
	}
	for _, m := range p.order {
		for r := range m.Instructions() {
			for _, sub := range r.ins().mods {
				if err := g.AddEdge(m.name, sub.name); err != nil {
					return nil, fmt.Errorf("module '%s': %w", m.name, err)
				}
			}
		}
	}
	if err := g.DetectCycles(); err != nil {
		return nil, err
	}
	return g, nil
}

// Validate checks module nesting and every module.
func (p *Program) Validate() error {
	if _, err := p.Graph(); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	var errs []error
	for _, m := range p.order {
		if err := m.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *Program) String() string {
	parts := make([]string, len(p.order))
	for i, m := range p.order {
		parts[i] = m.String()
	}
	return strings.Join(parts, "\n")
}
