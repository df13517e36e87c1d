// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the run lifecycle: load a project into a
// session, apply variables, trigger nodes and save the result. It is
// decoupled from any specific entrypoint like a CLI or server.
package app
