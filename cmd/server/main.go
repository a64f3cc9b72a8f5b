// Package main is the wordclaim binary: the HTTP server that hands out words
// from the pool, plus the operator commands that manage it.
package main

import (
	"context"
	"os"
)

// Version information, set during build.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	// Errors are printed by the commands themselves.
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
