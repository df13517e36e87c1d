// Package hcl provides the concrete HCL implementation of the configuration
// loading and value conversion interfaces defined in the `config` package.
// It parses project files into the format-agnostic model, writes projects
// back out as HCL, and binds opaque Go values to cty values.
package hcl
