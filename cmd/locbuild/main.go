package main

import (
	"context"
	"fmt"
	"os"

	"locbuild/internal/cli"
)

// main maps the run outcome to the process exit code. Builds are not
// cancellable; an interrupt reaches the toolchain through the terminal.
func main() {
	result, err := cli.Run(context.Background(), os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(result.ExitCode)
}
