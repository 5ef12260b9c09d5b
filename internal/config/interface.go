package config

import (
	"context"
	"io"
)

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads configuration from the given files or directories and
	// translates it into the format-agnostic model.
	Load(ctx context.Context, paths ...string) (*Model, error)
}

// Writer is the interface for a format-specific graph serializer. Output
// written by a Writer can be read back by the Loader of the same format.
type Writer interface {
	WriteGraph(w io.Writer, g *Graph) error
}
