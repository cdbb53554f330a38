// filepath: internal/db/migrations/embed.go
package migrations

import "embed"

// FS embeds the goose migrations of the reference courrier schema.
//
//go:embed *.sql
var FS embed.FS
