// Package ui holds the HTML templates of the web shell.
package ui

import "embed"

// Templates has base.gohtml at its root and one directory per page under pages/.
//
//go:embed templates
var Templates embed.FS
