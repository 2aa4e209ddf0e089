// Package templates carries the embedded default component, profile, and
// preset tree. User overrides under ~/.crew/templates shadow entries here
// by id or name; this package is never written to at runtime.
package templates

import (
	"embed"
	"io/fs"
)

//go:embed all:data
var embedded embed.FS

// Data returns the embedded template tree: components/ and profiles/
// subtrees plus any pre-rendered preset directories at the root.
func Data() fs.FS {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		panic(err)
	}
	return sub
}

// Components returns the embedded component source tree.
func Components() fs.FS {
	sub, err := fs.Sub(embedded, "data/components")
	if err != nil {
		panic(err)
	}
	return sub
}

// Profiles returns the embedded profile source tree.
func Profiles() fs.FS {
	sub, err := fs.Sub(embedded, "data/profiles")
	if err != nil {
		panic(err)
	}
	return sub
}
