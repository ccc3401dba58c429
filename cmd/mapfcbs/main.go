// Command mapfcbs solves multi-agent path finding problems on grids with
// Conflict-Based Search.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
