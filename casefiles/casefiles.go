// Package casefiles embeds the cases shipped with the game.
package casefiles

import (
	"embed"
	"io/fs"
	"os"
)

//go:embed case01
var FS embed.FS

// Open returns the cases under dir, or the embedded cases when dir is empty.
func Open(dir string) fs.FS {
	if dir == "" {
		return FS
	}
	return os.DirFS(dir)
}
