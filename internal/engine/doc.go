// Package engine interprets ordered command transactions against a
// file-backed SQLite store.
//
// Callers never issue raw queries; they submit a Transaction holding typed
// commands (initialize schema metadata, read rows, execute DDL, run a
// mutating statement, migrate the schema version, vacuum, close). The
// engine applies the batch atomically, marshals typed parameters in and
// typed rows out, and keeps schema version metadata across reopens.
package engine
