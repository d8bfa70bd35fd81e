// Command sercha-kb builds a knowledge base from PDF, DOCX and CSV files and
// answers questions about them.
package main

import (
	"os"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.SetVersion(version)
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
