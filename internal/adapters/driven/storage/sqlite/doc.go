// Package sqlite keeps camdeck's state in one database file, by default
// ~/.camdeck/data/camdeck.db, using the pure Go modernc.org/sqlite driver.
//
// Catalogue stores the last storage index and the scan history. TaskStore
// stores scheduler task state and the most recent runs of each task.
//
// The schema lives in migrations/*.up.sql. Files are applied in version
// order on open, each recording its version in schema_migrations. The
// database runs in WAL mode so readers are not blocked by a scan.
package sqlite
