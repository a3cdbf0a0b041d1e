// Command ghusers browses GitHub users from a web page, a terminal UI or the
// command line.
//
//	ghusers serve            # HTTP server on $PORT
//	ghusers browse           # terminal UI
//	ghusers list --json      # one fetch, printed
//	ghusers token --ttl 1h   # API token for POST /api/users/fetch
//
// Settings come from the environment (and a .env file), see internal/config.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
