package migrations

import "embed"

// FS embeds the SQL migrations for the session store.
//
//go:embed *.sql
var FS embed.FS
