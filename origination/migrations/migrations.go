// Package migrations embeds the origination schema.
package migrations

import "embed"

// FS holds the golang-migrate files of the origination database.
//
//go:embed *.sql
var FS embed.FS
