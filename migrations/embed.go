// Package migrations embeds the SQL schema migrations applied by
// cmd/migrate and by cmd/api on boot.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
