// tenderctl is the command-line interface of the Tender-Intelligence
// platform: offline extraction, record search and schema migrations.
package main

import (
	"os"

	"github.com/turtacn/Tender-Intelligence/internal/interfaces/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

//Personal.AI order the ending
