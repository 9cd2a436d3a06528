// Package migrations embeds the review schema.
package migrations

import "embed"

// FS holds the golang-migrate files of the review database.
//
//go:embed *.sql
var FS embed.FS
