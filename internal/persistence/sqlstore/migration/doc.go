// Package migration applies versioned SQL files to a database and records
// them in a schema_migrations table.
//
// Files are named {version}_{description}.sql and are read from an fs.FS,
// normally one embedded in the binary. Each file runs in its own
// transaction. Versions already recorded are skipped, so running the
// migrations repeatedly is safe.
package migration
