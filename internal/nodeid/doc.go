// internal/nodeid/doc.go

/*
Package nodeid provides the identifiers used to address nodes and ports
within a flow.

Node ids are small integers handed out by a per-flow Counter. Ports are
positional and are addressed by a PortRef whose canonical text form is
`n<id>.<in|out>[<index>]`, e.g. `n3.in[0]` or `n12.out[2]`.

This package centralizes all formatting and parsing of those references so
snapshots, the CLI and event payloads agree on one representation.
*/
package nodeid
