// Package migrations embeds the goose SQL migrations so the binaries can
// apply them without a checkout of this repository next to them.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
