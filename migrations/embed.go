// Package migrations embeds the SQL migration files so they can be used
// by the goose programmatic API in tests and server bootstrap.
// Each dialect lives in its own directory with its own version sequence.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

// Postgres returns the migrations for the durable shared store.
func Postgres() fs.FS {
	return sub("postgres")
}

// SQLite returns the migrations for the per-device local store.
func SQLite() fs.FS {
	return sub("sqlite")
}

func sub(dir string) fs.FS {
	f, err := fs.Sub(files, dir)
	if err != nil {
		// Only possible if the embed pattern above is changed.
		panic("migrations: " + err.Error())
	}
	return f
}
