// Package cli provides reviewctl, the interactive client of the account and
// category services.
//
// The session (user id, user name and the token pair) lives in a local
// SQLite file, so a login survives restarts. Expired access tokens are
// refreshed transparently by the api package.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits or
// ctx is cancelled. See runREPL for the command list.
package cli
