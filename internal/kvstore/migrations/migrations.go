// Package migrations embeds the SQL migrations for the local key-value
// schema, applied with goose when an instance is first opened.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
