//go:build !cgo_sqlite

// Pure Go SQLite driver, via modernc.org/sqlite. Default build: no CGO,
// no external libsqlite3 required.
package sqlitedriver

import (
	_ "modernc.org/sqlite" // pure Go SQLite driver
)

const (
	driverName = "sqlite"
	driverType = "purego"
)
