// Package cli defines the papermake command-line surface: the build, clean,
// watch, and targets subcommands, their flags, and the mapping from errors
// to process exit codes.
package cli
