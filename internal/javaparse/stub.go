//go:build !cgo

package javaparse

import (
	"context"

	"apidiff/internal/decl"
	"apidiff/internal/errors"
)

// ErrNoCGO is returned by Parse when tree-sitter is not compiled in.
var ErrNoCGO = errors.New(errors.InvalidInput, "java source parsing requires CGO (tree-sitter)", nil)

// Parser is unavailable without CGO. Snapshots and SCIP indexes still load.
type Parser struct{}

// NewParser returns a parser whose Parse always fails.
func NewParser() *Parser {
	return &Parser{}
}

// Available reports whether source parsing is compiled in.
func Available() bool {
	return false
}

// Parse returns ErrNoCGO.
func (p *Parser) Parse(ctx context.Context, path string, source []byte) (*decl.File, error) {
	return nil, ErrNoCGO
}
