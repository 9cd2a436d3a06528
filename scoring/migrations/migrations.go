// Package migrations embeds the scoring schema.
package migrations

import "embed"

// FS holds the golang-migrate files of the scoring database.
//
//go:embed *.sql
var FS embed.FS
