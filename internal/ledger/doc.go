// Package ledger builds on the command engine: a convenience store that
// assembles single-purpose transactions, embedded schema migrations, and
// the rewards wallet record store.
package ledger
