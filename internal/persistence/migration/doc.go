// Package migration applies versioned SQL files to a database.
//
// Migration files are named {version}_{description}.sql, where version is a
// zero-padded integer. Files are read from an fs.FS so the schema can be
// embedded into the binary. Each file runs in its own transaction and is
// recorded in the schema_migrations table on success. Versions must form a
// continuous sequence and every applied version must still have a file.
package migration
