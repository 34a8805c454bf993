// Package hcl implements the config.Loader interface for HCL paperfiles.
// It discovers .hcl files under a path, parses them with hclparse, decodes
// them into the schema structs, and translates the result into the
// format-agnostic config model.
package hcl
