package content

import (
	"embed"
	"io/fs"
)

//go:embed catalog
var embedded embed.FS

// DefaultFS returns the built-in content catalog
func DefaultFS() fs.FS {
	sub, err := fs.Sub(embedded, "catalog")
	if err != nil {
		panic(err) // embedded directory is always present
	}
	return sub
}
