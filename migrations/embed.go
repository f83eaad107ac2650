// Package migrations ships the schema with the binaries that apply it.
package migrations

import "embed"

//go:embed *.sql
var Files embed.FS
