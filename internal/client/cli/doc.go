// Package cli provides the interactive bulletin board command-line client.
//
// It wires configuration, the local credential store, the gateway clients,
// the session manager, the router and the announcement and log caches, then
// runs a REPL on top of them. Commands that show a page go through the
// router, so the route guard decides whether the caller may see it.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
