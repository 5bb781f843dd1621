// Package cli provides the interactive dryerwatch command-line client.
//
// NewApp wires configuration, the local database, the API client and the
// background components (session, token watcher, health poller, error
// queue, backup manager). App.Run restores a stored session and blocks in
// the REPL until the user exits.
//
// Commands that read dashboard data require a logged-in session and run
// behind telemetry.Guard, so a panic is reported and replaced by a fallback
// message instead of ending the program.
package cli
