// Command vcs is a local, single-user version control tool backed by a
// content-addressed object store.
package main

import (
	"os"

	"github.com/tbickford/vcs/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
