package config

import (
	"context"

	"github.com/zclconf/go-cty/cty"
)

// Loader is the interface for a format-specific project loader.
type Loader interface {
	// Load reads one or more files or directories and merges everything
	// found into a single format-agnostic Project.
	Load(ctx context.Context, paths ...string) (*Project, error)
}

// Converter is the bridge between the opaque Go values held by ports,
// variables and node state and the cty values stored in snapshots.
type Converter interface {
	// ToCtyValue converts a native Go value into its cty equivalent.
	ToCtyValue(v any) (cty.Value, error)

	// FromCtyValue converts a cty value back into a plain Go value.
	FromCtyValue(v cty.Value) (any, error)
}
