// internal/nodeid/address.go
package nodeid

import (
	"fmt"
	"strings"
)

// Address identifies an instruction, optionally qualified by its module and
// narrowed to one element of a tuple result.
type Address struct {
	Module string // empty means the referencing module
	Name   string
	Index  int // -1 indicates no index is present
}

// New creates an unqualified address without an index.
func New(name string) *Address {
	return &Address{Name: name, Index: -1}
}

// Qualified creates an address of instruction name in module.
func Qualified(module, name string) *Address {
	return &Address{Module: module, Name: name, Index: -1}
}

// HasIndex returns true if the address selects a tuple element.
func (a *Address) HasIndex() bool {
	return a.Index != -1
}

// Element returns a copy of a that selects tuple element i.
func (a *Address) Element(i int) *Address {
	c := *a
	c.Index = i
	return &c
}

// String serializes the Address into its canonical representation.
func (a *Address) String() string {
	if a == nil {
		return ""
	}

	var sb strings.Builder
	if a.Module != "" {
		sb.WriteString(a.Module)
		sb.WriteRune('.')
	}
	sb.WriteString(a.Name)
	if a.HasIndex() {
		sb.WriteString(fmt.Sprintf("[%d]", a.Index))
	}
	return sb.String()
}

// Equal checks two Address pointers for equality.
func (a *Address) Equal(other *Address) bool {
	if a == nil || other == nil {
		return a == other
	}
	return *a == *other
}
