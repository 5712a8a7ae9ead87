// Package migrations embeds the goose SQL catalog so a deployed binary can
// migrate without shipping loose files. The same directory works with the
// goose CLI: goose -dir db/migrations postgres "$PG_DSN" up
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
