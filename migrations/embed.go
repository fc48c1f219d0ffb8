// Package migrations embeds the SQL schema migrations of the backoffice
// database so that the server and the migrate CLI ship with them.
package migrations

import "embed"

// FS holds every NNNNNN_name.{up,down}.sql file of this directory
//
//go:embed *.sql
var FS embed.FS
