// Command glance controls a running glanced and, with no arguments, opens
// its live panel in the terminal.
package main

import (
	"os"

	"github.com/glance-io/glance/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
