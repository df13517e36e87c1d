// Package config defines the format-agnostic snapshot model of a project,
// along with the core interfaces (Loader, Converter) for reading snapshots
// from various sources and translating values between Go and cty.
//
// A snapshot is an ordered, self-contained description of one or more flows:
// every node (type, id, persistable state, port values), every connection (by
// node id and port index) and every variable. The `config.Project` is the
// single source of truth for the `flow` and `session` packages when restoring
// state. Concrete encodings, such as HCL or msgpack, are provided in separate
// packages.
package config
