// Command toolserve serves app_package records over HTTP.
package main

import (
	"context"
	"os"

	"github.com/roach88/toolserve/internal/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}
