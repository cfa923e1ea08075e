// coursemirror - mirrors a course document server into a local directory tree.
//
// All functionality lives behind the cobra CLI in internal/cli; this entry
// point only dispatches to it.
package main

import (
	"os"

	"github.com/coursemirror/coursemirror/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
