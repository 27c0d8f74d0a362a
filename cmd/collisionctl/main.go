// Package main is the collisionctl command line tool.
package main

import (
	"fmt"
	"os"

	"github.com/robotos/collisionguard/cli"
)

func main() {
	app := cli.NewApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
