// Package migrations embeds the PostgreSQL schema migrations for the
// metadata store, applied via golang-migrate at startup.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
