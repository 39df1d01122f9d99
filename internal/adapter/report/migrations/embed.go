// Package migrations embeds the SQL schema of the report database.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
