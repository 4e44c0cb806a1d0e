//go:build tools
// +build tools

package tools

// Tool dependencies tracked in go.mod. Not imported by application code.

import (
	_ "github.com/pressly/goose/v3/cmd/goose"
	_ "github.com/vektra/mockery/v2"
)
