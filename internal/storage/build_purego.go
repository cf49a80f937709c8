//go:build purego || !sqlite_vec
// +build purego !sqlite_vec

package storage

// Default build on modernc.org/sqlite, no C compiler needed. Without
// sqlite-vec the store falls back to brute-force cosine scoring in Go,
// which is fine for a personal corpus.
//
//	CGO_ENABLED=0 go build ./...

import (
	_ "modernc.org/sqlite"
)

const (
	// DriverName selects the database/sql driver for this build.
	DriverName = "sqlite"

	// VectorExtensionAvailable reports whether sqlite-vec is compiled in.
	VectorExtensionAvailable = false

	// BuildMode names the build variant for diagnostics.
	BuildMode = "purego"
)
