// Command spiderly generates the API client, the base controllers and the
// filter builders of a Go module from its entity declarations.
package main

import (
	"os"

	"github.com/deepakshirkem/spiderly/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
