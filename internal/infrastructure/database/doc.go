// Package database provides SQLite connectivity and schema migrations.
//
// The DB wrapper opens the database with WAL mode and a busy timeout,
// restricts the pool to a single writer connection (SQLite's model),
// and applies embedded SQL migrations at startup.
//
// Migration files live in the top-level migrations/ directory and are
// embedded via database.MigrationsFS. Filenames follow
// YYYYMMDD_HHMMSS_description.up.sql (with a matching .down.sql).
//
// # Usage
//
//	db, err := database.Open(database.Config{
//	    Path:        cfg.Database.Path,
//	    WALMode:     cfg.Database.WALMode,
//	    BusyTimeout: cfg.Database.BusyTimeout,
//	})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
package database
