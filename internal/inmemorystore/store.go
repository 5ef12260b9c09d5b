package inmemorystore

import (
	"context"
	"sync"

	"github.com/vk/graphc/internal/ir"
)

// Status is the compilation stage a graph has reached.
type Status int

const (
	StatusPending Status = iota
	StatusBuilding
	StatusOptimizing
	StatusCompleted
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusBuilding:
		return "building"
	case StatusOptimizing:
		return "optimizing"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Store keeps compilation state keyed by graph source. Each graph is
// written by one goroutine while others read, so state lives in sync.Maps
// rather than behind a global lock.
//
//   - states: graph source to Status
//   - programs: graph source to the compiled *ir.Program
//   - errors: graph source to the error that failed the graph
type Store struct {
	states   sync.Map
	programs sync.Map
	errors   sync.Map
}

// New creates a new, empty store.
func New() *Store {
	return &Store{}
}

// SetStatus updates the status of a graph.
func (s *Store) SetStatus(ctx context.Context, key string, status Status) error {
	s.states.Store(key, status)
	return nil
}

// GetStatus retrieves the status of a graph. If a status has not been set,
// it returns StatusPending.
func (s *Store) GetStatus(ctx context.Context, key string) (Status, error) {
	status, ok := s.states.Load(key)
	if !ok {
		return StatusPending, nil
	}
	return status.(Status), nil
}

// SetProgram records the compiled program of a graph.
func (s *Store) SetProgram(ctx context.Context, key string, p *ir.Program) error {
	s.programs.Store(key, p)
	return nil
}

// GetProgram retrieves the compiled program of a graph, or nil.
func (s *Store) GetProgram(ctx context.Context, key string) (*ir.Program, error) {
	p, ok := s.programs.Load(key)
	if !ok {
		return nil, nil
	}
	return p.(*ir.Program), nil
}

// SetError records the failure of a graph.
func (s *Store) SetError(ctx context.Context, key string, graphErr error) error {
	s.errors.Store(key, graphErr)
	return nil
}

// GetError retrieves the recorded failure of a graph, or nil.
func (s *Store) GetError(ctx context.Context, key string) (error, error) {
	err, ok := s.errors.Load(key)
	if !ok {
		return nil, nil
	}
	return err.(error), nil
}
