// Package migrations embeds the goose SQL migrations for the post store.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
