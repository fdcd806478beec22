// Package main provides the starmap command-line tool. It answers the same
// queries as the daemon, either in-process against a local catalog or against
// a running server with --server.
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
