package main

import (
	"context"
	"fmt"
	"os"

	"bachbot/internal/cli"
	"bachbot/internal/util"
)

func main() {
	// Log lines go to stdout; the final error goes to stderr.
	if err := cli.Execute(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", util.RedBold("!!! ERROR"), err)
		os.Exit(1)
	}
}
