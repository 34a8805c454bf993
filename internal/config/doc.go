// Package config defines the format-agnostic configuration model for the
// build orchestrator, along with the Loader interface for loading it from
// various sources.
//
// The `config.Model` is the single source of truth for the `dag` and
// `executor` packages. Concrete loader implementations, such as for HCL,
// are provided in separate packages.
package config
