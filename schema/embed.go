// Package schema provides the embedded MultiFlexi report schema.
package schema

import "embed"

// FS contains the embedded schema files.
//
//go:embed *.schema.json
var FS embed.FS
