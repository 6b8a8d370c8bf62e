// Command sfsutil is the CLI bootstrap for SFS images, grounded on the
// teacher's cmd/main.go urfave/cli/v2 App with one subcommand per operation
// rather than flags on a single invocation.
package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "sfsutil",
		Usage: "Create, inspect, and check SFS disk images",
		Commands: []*cli.Command{
			formatCommand(),
			fsckCommand(),
			reportCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("sfsutil: %s", err)
	}
}
