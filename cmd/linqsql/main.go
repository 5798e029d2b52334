// Command linqsql compiles query documents to parameterized SQL and runs
// them against SQLite or PostgreSQL.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/linqsql/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err == nil {
		return
	}

	fmt.Fprintln(os.Stderr, "Error:", err)

	// Errors without an exit code come from cobra itself: unknown
	// commands, bad flags, wrong argument counts.
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		os.Exit(cli.ExitCommandError)
	}
	os.Exit(exitErr.Code)
}
