// Package registry provides the central "glue" for the module system.
//
// The Registry maps the string identifiers stored in snapshots (e.g. "rand"
// or "fn.add") to the node type definitions compiled into the binary or
// created at runtime from function definitions. Flows resolve types through
// it when nodes are placed or loaded.
//
// During application startup the registry is populated from modules and
// then validated, so that every registered type can round-trip through a
// snapshot.
package registry
