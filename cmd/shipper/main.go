// Package main provides shipper, the CLI that releases the expense bot:
// it stages app secrets and runs the deploy when CI sees a push.
package main

import (
	"os"
)

var version = "dev"

func main() {
	rootCmd := newRootCmd()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
