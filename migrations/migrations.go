// Package migrations embeds the versioned database schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
