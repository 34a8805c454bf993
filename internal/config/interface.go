package config

import "context"

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads the build declaration from a given path (a single file or
	// a directory tree) and translates it into the format-agnostic model.
	Load(ctx context.Context, path string) (*Model, error)
}
