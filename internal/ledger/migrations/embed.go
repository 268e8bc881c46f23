package migrations

import "embed"

// FS contains embedded ledger schema migrations, one numbered v<N>.sql
// file per schema version.
//
//go:embed *.sql
var FS embed.FS
