// Package cli turns command-line arguments into an app.Config. It owns the
// flag set, the usage text and the exit codes for bad invocations.
package cli
