// Package web provides the embedded catalog browser served at the server root.
package web

import (
	"embed"
	"io/fs"
)

//go:embed all:dist
var distFS embed.FS

// DistFS returns the embedded assets with "dist" as the root, so files are
// accessed directly (e.g., "index.html").
func DistFS() (fs.FS, error) {
	return fs.Sub(distFS, "dist")
}
