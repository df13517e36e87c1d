// Package dag keeps a small dependency graph keyed by string identifiers.
// The session uses it to order function definitions so that every function
// is registered after the functions it contains, and to reject definitions
// that contain themselves directly or through other functions.
package dag
