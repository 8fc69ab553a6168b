// Package web holds the browser UI, compiled into the binary.
package web

import (
	"embed"
)

//go:embed index.html
var IndexHTML []byte

//go:embed static
var StaticFS embed.FS
