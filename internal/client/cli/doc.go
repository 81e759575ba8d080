// Package cli provides the interactive wsdrive command-line client.
//
// It wires configuration, the HTTP API client and a REPL. The user pastes
// an access token with "login", picks a workspace with "use" and then
// browses folders, uploads and downloads files and manages the trash.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
