// Package cli provides the interactive Daybook command-line client.
//
// It wires configuration, the local note store, the backend HTTP client, the
// auth session and the sync coordinator into an interactive REPL that keeps
// working with or without connectivity. Typical flow: resolve an identity
// (anonymous by default), start a background connectivity watcher, and
// execute user commands.
//
// Key features:
//   - One note per calendar day: text, mood (1..5), image references
//   - Navigate days (today, open), list and search notes
//   - Link the anonymous identity to a username, or log in to an account
//   - Retention (prune) and full wipe (clear)
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, and runREPL for details.
package cli
