//go:build sqlite_vec
// +build sqlite_vec

package storage

// CGO build with the sqlite-vec extension. Vector similarity runs inside
// SQLite instead of in Go, which matters once the index holds tens of
// thousands of chunks.
//
//	CGO_ENABLED=1 go build -tags "sqlite_vec,fts5" ./...

import (
	_ "github.com/mattn/go-sqlite3"
)

const (
	// DriverName selects the database/sql driver for this build.
	DriverName = "sqlite3"

	// VectorExtensionAvailable reports whether sqlite-vec is compiled in.
	VectorExtensionAvailable = true

	// BuildMode names the build variant for diagnostics.
	BuildMode = "cgo"
)
