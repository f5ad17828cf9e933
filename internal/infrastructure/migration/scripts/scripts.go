// Package scripts embeds the versioned SQL migrations.
package scripts

import "embed"

//go:embed *.sql
var FS embed.FS
