// Package main is the entry point for the glanced daemon.
package main

import (
	"os"

	"github.com/glance-io/glance/internal/daemon/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
