// Command ucicrawl crawls the uci.edu academic subdomains.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/ucicrawl/ucicrawl/internal/cli"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
