// Package cli provides the interactive authkeeper command-line client.
//
// It wires configuration and the HTTP API client into a small REPL:
// register, login, whoami, logout, help and exit. Passwords are read from
// the terminal without echo and wiped after use.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App and runREPL for details.
package cli
