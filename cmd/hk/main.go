// hk runs the hook pipeline declared in hk.yaml: the git hook shims it
// installs call back into `hk run-hook <hook>`, and `hk check`/`hk fix`
// are the direct entry points for running a hook's steps by hand.
package main

import (
	"fmt"
	"os"

	"github.com/jdx/hk/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "hk:", err)
		os.Exit(cli.ExitCodeFor(err))
	}
}
