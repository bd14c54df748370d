// Package migrations embeds the SQL schema files into the binary and
// registers them with the database package at init time.
package migrations

import (
	"embed"

	"github.com/nerrad567/junghome-bridge/internal/infrastructure/database"
)

//go:embed *.sql
var files embed.FS

func init() {
	database.MigrationsFS = files
	database.MigrationsDir = "."
}
